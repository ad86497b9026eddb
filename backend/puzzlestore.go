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
	"fmt"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/c2FmZQ/storage"
	"go.uber.org/zap"
)

// ErrPuzzleNotFound is returned for unknown puzzle ids.
var ErrPuzzleNotFound = errors.New("puzzle not found")

// PuzzleStore keeps puzzles in memory and, when a storage is configured,
// writes every change to disk so that puzzles survive a restart.
type PuzzleStore struct {
	storage *storage.Storage
	logger  *zap.Logger
	mu      sync.Map // Stores *sync.Mutex for each puzzle id
	cache   sync.Map // Stores *Puzzle for each puzzle id
}

// NewPuzzleStore creates a new PuzzleStore. s may be nil.
func NewPuzzleStore(s *storage.Storage, logger *zap.Logger) *PuzzleStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PuzzleStore{storage: s, logger: logger}
}

func puzzleFile(id string) string {
	return filepath.Join("puzzles", url.PathEscape(id)+".json")
}

func (ps *PuzzleStore) lock(id string) func() {
	m, _ := ps.mu.LoadOrStore(id, &sync.Mutex{})
	mutex := m.(*sync.Mutex)
	mutex.Lock()
	return mutex.Unlock
}

// Create makes a new puzzle and stores it.
func (ps *PuzzleStore) Create(coins, fake int) (*Puzzle, error) {
	p, err := NewPuzzle(coins, fake)
	if err != nil {
		return nil, err
	}
	unlock := ps.lock(p.ID)
	defer unlock()
	if err := ps.save(p); err != nil {
		return nil, err
	}
	ps.logger.Debug("puzzle created", zap.String("id", p.ID), zap.Int("coins", p.Coins))
	return p, nil
}

// Get returns a copy of the puzzle.
func (ps *PuzzleStore) Get(id string) (Puzzle, error) {
	unlock := ps.lock(id)
	defer unlock()
	p, err := ps.load(id)
	if err != nil {
		return Puzzle{}, err
	}
	cp := *p
	cp.Weighings = append([]string(nil), p.Weighings...)
	cp.Guesses = append([]Guess(nil), p.Guesses...)
	return cp, nil
}

// Update applies fn to the puzzle under its lock and saves the result.
func (ps *PuzzleStore) Update(id string, fn func(*Puzzle) error) error {
	unlock := ps.lock(id)
	defer unlock()
	p, err := ps.load(id)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	return ps.save(p)
}

func (ps *PuzzleStore) load(id string) (*Puzzle, error) {
	if v, ok := ps.cache.Load(id); ok {
		return v.(*Puzzle), nil
	}
	if ps.storage == nil || !isValidUUID(id) {
		return nil, fmt.Errorf("%w: %s", ErrPuzzleNotFound, id)
	}
	var p Puzzle
	if err := ps.storage.ReadDataFile(puzzleFile(id), &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPuzzleNotFound, id, err)
	}
	ps.cache.Store(id, &p)
	return &p, nil
}

func (ps *PuzzleStore) save(p *Puzzle) error {
	ps.cache.Store(p.ID, p)
	if ps.storage == nil {
		return nil
	}
	if err := ps.storage.SaveDataFile(puzzleFile(p.ID), p); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	return nil
}
