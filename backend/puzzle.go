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
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ttbt-io/fakegold/solver/record"
)

const (
	// DefaultCoins is the number of coins of a puzzle.
	DefaultCoins = 9

	genuineWeight = 10
	fakeWeight    = 9

	MessageFound   = "Yay! You find it!"
	MessageWrong   = "Oops! Try Again!"
	MaxPuzzleCoins = 64
)

// Guess is one click on a coin.
type Guess struct {
	Coin    int   `json:"coin"`
	Correct bool  `json:"correct"`
	At      int64 `json:"at"`
}

// Puzzle is one game: a row of coins of which exactly one is lighter.
type Puzzle struct {
	ID        string   `json:"id"`
	Coins     int      `json:"coins"`
	Fake      int      `json:"fake"`
	Weighings []string `json:"weighings"`
	Guesses   []Guess  `json:"guesses,omitempty"`
	Solved    bool     `json:"solved"`
	CreatedAt int64    `json:"createdAt"`
}

// NewPuzzle creates a puzzle with the given number of coins. A negative
// fake picks the fake coin at random.
func NewPuzzle(coins, fake int) (*Puzzle, error) {
	if coins < 2 || coins > MaxPuzzleCoins {
		return nil, fmt.Errorf("coins must be between 2 and %d, got %d", MaxPuzzleCoins, coins)
	}
	if fake < 0 {
		fake = rand.IntN(coins)
	}
	if fake >= coins {
		return nil, fmt.Errorf("fake coin %d out of range [0,%d)", fake, coins)
	}
	return &Puzzle{
		ID:        uuid.New().String(),
		Coins:     coins,
		Fake:      fake,
		Weighings: make([]string, 0),
		CreatedAt: time.Now().UnixNano(),
	}, nil
}

func (p *Puzzle) weight(coin int) int {
	if coin == p.Fake {
		return fakeWeight
	}
	return genuineWeight
}

// Weigh compares the two pans, appends the record to the weighing log and
// returns it.
func (p *Puzzle) Weigh(left, right []int) (string, error) {
	if err := validatePans(p.Coins, left, right); err != nil {
		return "", err
	}
	var l, r int
	for _, c := range left {
		l += p.weight(c)
	}
	for _, c := range right {
		r += p.weight(c)
	}
	op := record.OpEqual
	switch {
	case l > r:
		op = record.OpGreater
	case l < r:
		op = record.OpLess
	}
	rec := record.Format(itoas(left), op, itoas(right))
	p.Weighings = append(p.Weighings, rec)
	return rec, nil
}

// Guess records a click on coin and returns the dialog message to show.
func (p *Puzzle) Guess(coin int) (bool, string, error) {
	if err := validateCoin(p.Coins, coin); err != nil {
		return false, "", err
	}
	correct := coin == p.Fake
	p.Guesses = append(p.Guesses, Guess{Coin: coin, Correct: correct, At: time.Now().UnixNano()})
	if correct {
		p.Solved = true
		return true, MessageFound, nil
	}
	return false, MessageWrong, nil
}

// Public returns a copy of the puzzle that does not reveal the fake coin
// until the puzzle is solved.
func (p *Puzzle) Public() Puzzle {
	cp := *p
	cp.Weighings = append([]string(nil), p.Weighings...)
	cp.Guesses = append([]Guess(nil), p.Guesses...)
	if !p.Solved {
		cp.Fake = -1
	}
	return cp
}

func itoas(coins []int) []string {
	out := make([]string, len(coins))
	for i, c := range coins {
		out[i] = strconv.Itoa(c)
	}
	return out
}
