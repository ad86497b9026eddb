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
	"errors"
	"testing"

	"github.com/c2FmZQ/storage"
)

func TestPuzzleStorePersistence(t *testing.T) {
	dir := t.TempDir()
	ps := NewPuzzleStore(storage.New(dir, nil), nil)

	p, err := ps.Create(9, 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := ps.Update(p.ID, func(p *Puzzle) error {
		_, err := p.Weigh([]int{0}, []int{2})
		return err
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// A fresh store over the same directory reads the puzzle back from disk.
	ps2 := NewPuzzleStore(storage.New(dir, nil), nil)
	got, err := ps2.Get(p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Fake != 2 {
		t.Errorf("Fake = %d, want 2", got.Fake)
	}
	if len(got.Weighings) != 1 || got.Weighings[0] != "[0] > [2]" {
		t.Errorf("Weighings = %v", got.Weighings)
	}
}

func TestPuzzleStoreGetReturnsCopy(t *testing.T) {
	ps := NewPuzzleStore(nil, nil)
	p, err := ps.Create(9, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := ps.Get(p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Weighings = append(got.Weighings, "bogus")
	again, _ := ps.Get(p.ID)
	if len(again.Weighings) != 0 {
		t.Errorf("store was modified through a copy: %v", again.Weighings)
	}
}

func TestPuzzleStoreNotFound(t *testing.T) {
	ps := NewPuzzleStore(storage.New(t.TempDir(), nil), nil)
	if _, err := ps.Get("aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaaa"); !errors.Is(err, ErrPuzzleNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrPuzzleNotFound", err)
	}
	if _, err := ps.Get("../x"); !errors.Is(err, ErrPuzzleNotFound) {
		t.Errorf("Get(../x) error = %v, want ErrPuzzleNotFound", err)
	}
	err := ps.Update("aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaaa", func(*Puzzle) error { return nil })
	if !errors.Is(err, ErrPuzzleNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrPuzzleNotFound", err)
	}
}

func TestPuzzleStoreUpdateError(t *testing.T) {
	ps := NewPuzzleStore(nil, nil)
	p, _ := ps.Create(9, 1)
	if err := ps.Update(p.ID, func(p *Puzzle) error {
		_, err := p.Weigh([]int{0}, []int{0})
		return err
	}); err == nil {
		t.Fatal("Update should return the weighing error")
	}
	got, _ := ps.Get(p.ID)
	if len(got.Weighings) != 0 {
		t.Errorf("Weighings = %v, want none", got.Weighings)
	}
}
