// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"testing"

	"github.com/ttbt-io/fakegold/solver/record"
)

func TestNewPuzzle(t *testing.T) {
	tests := []struct {
		name    string
		coins   int
		fake    int
		wantErr bool
	}{
		{name: "default", coins: DefaultCoins, fake: 3},
		{name: "random fake", coins: DefaultCoins, fake: -1},
		{name: "two coins", coins: 2, fake: 1},
		{name: "too few coins", coins: 1, fake: 0, wantErr: true},
		{name: "too many coins", coins: MaxPuzzleCoins + 1, fake: 0, wantErr: true},
		{name: "fake out of range", coins: 9, fake: 9, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPuzzle(tt.coins, tt.fake)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPuzzle(%d, %d) error = %v, wantErr %v", tt.coins, tt.fake, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !isValidUUID(p.ID) {
				t.Errorf("ID = %q, want a uuid", p.ID)
			}
			if p.Fake < 0 || p.Fake >= tt.coins {
				t.Errorf("Fake = %d, out of range", p.Fake)
			}
			if tt.fake >= 0 && p.Fake != tt.fake {
				t.Errorf("Fake = %d, want %d", p.Fake, tt.fake)
			}
		})
	}
}

func TestPuzzleWeigh(t *testing.T) {
	p, err := NewPuzzle(9, 3)
	if err != nil {
		t.Fatalf("NewPuzzle: %v", err)
	}
	tests := []struct {
		left, right []int
		want        string
		wantErr     bool
	}{
		{left: []int{0}, right: []int{1}, want: "[0] = [1]"},
		{left: []int{3}, right: []int{0}, want: "[3] < [0]"},
		{left: []int{0}, right: []int{3}, want: "[0] > [3]"},
		{left: []int{0, 1, 2}, right: []int{3, 4, 5}, want: "[0,1,2] > [3,4,5]"},
		{left: []int{6, 7, 8}, right: []int{0, 1, 2}, want: "[6,7,8] = [0,1,2]"},
		{left: []int{0, 1}, right: []int{3}, want: "[0,1] > [3]"},
		{left: []int{}, right: []int{1}, wantErr: true},
		{left: []int{0}, right: []int{0}, wantErr: true},
		{left: []int{9}, right: []int{1}, wantErr: true},
	}
	n := 0
	for _, tt := range tests {
		got, err := p.Weigh(tt.left, tt.right)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Weigh(%v, %v) error = %v, wantErr %v", tt.left, tt.right, err, tt.wantErr)
		}
		if err != nil {
			continue
		}
		n++
		if got != tt.want {
			t.Errorf("Weigh(%v, %v) = %q, want %q", tt.left, tt.right, got, tt.want)
		}
		if len(p.Weighings) != n {
			t.Fatalf("len(Weighings) = %d, want %d", len(p.Weighings), n)
		}
		if p.Weighings[n-1] != got {
			t.Errorf("last weighing = %q, want %q", p.Weighings[n-1], got)
		}
	}
}

// Every record the simulator renders must be understood by the parser.
func TestPuzzleRecordsParse(t *testing.T) {
	for fake := 0; fake < 9; fake++ {
		p, err := NewPuzzle(9, fake)
		if err != nil {
			t.Fatalf("NewPuzzle: %v", err)
		}
		for c := 1; c < 9; c++ {
			rec, err := p.Weigh([]int{0}, []int{c})
			if err != nil {
				t.Fatalf("Weigh: %v", err)
			}
			v := record.Parse(rec)
			switch {
			case fake == c:
				if v.Kind != record.Unequal || len(v.Lesser) != 1 || v.Lesser[0] != itoas([]int{c})[0] {
					t.Errorf("fake %d: Parse(%q) = %+v, want lesser %d", fake, rec, v, c)
				}
				if got := record.ExtractLesserCoin(rec); got != itoas([]int{c})[0] {
					t.Errorf("ExtractLesserCoin(%q) = %q", rec, got)
				}
			case fake == 0:
				if v.Kind != record.Unequal || v.Lesser[0] != "0" {
					t.Errorf("fake 0: Parse(%q) = %+v, want lesser 0", rec, v)
				}
			default:
				if v.Kind != record.Equal {
					t.Errorf("fake %d: Parse(%q) = %+v, want equal", fake, rec, v)
				}
				if record.IsUnequal(rec) {
					t.Errorf("IsUnequal(%q) = true", rec)
				}
			}
		}
	}
}

func TestPuzzleGuess(t *testing.T) {
	p, err := NewPuzzle(9, 5)
	if err != nil {
		t.Fatalf("NewPuzzle: %v", err)
	}
	if _, _, err := p.Guess(12); err == nil {
		t.Fatal("Guess(12) should fail")
	}
	ok, msg, err := p.Guess(4)
	if err != nil || ok || msg != MessageWrong {
		t.Fatalf("Guess(4) = %v, %q, %v", ok, msg, err)
	}
	if pub := p.Public(); pub.Fake != -1 {
		t.Errorf("Public().Fake = %d before solved", pub.Fake)
	}
	ok, msg, err = p.Guess(5)
	if err != nil || !ok || msg != MessageFound {
		t.Fatalf("Guess(5) = %v, %q, %v", ok, msg, err)
	}
	if !p.Solved {
		t.Error("puzzle not solved")
	}
	if len(p.Guesses) != 2 {
		t.Errorf("len(Guesses) = %d, want 2", len(p.Guesses))
	}
	if pub := p.Public(); pub.Fake != 5 {
		t.Errorf("Public().Fake = %d after solved, want 5", pub.Fake)
	}
}
