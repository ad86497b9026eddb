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

// Package journal keeps a history of solver runs.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/google/uuid"
	"github.com/ttbt-io/fakegold/solver"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown run ids.
var ErrNotFound = errors.New("run not found")

const indexFile = "runs/index.json"

// Entry is one journaled run.
type Entry struct {
	ID        string     `json:"id"`
	Engine    string     `json:"engine"`
	URL       string     `json:"url"`
	StartedAt time.Time  `json:"startedAt"`
	Run       solver.Run `json:"run"`
	Error     string     `json:"error,omitempty"`
}

// Summary is the index line of a run.
type Summary struct {
	ID        string      `json:"id"`
	StartedAt time.Time   `json:"startedAt"`
	Engine    string      `json:"engine"`
	Strategy  string      `json:"strategy"`
	Coin      solver.Coin `json:"coin,omitempty"`
	Found     bool        `json:"found"`
	Weighings int         `json:"weighings"`
	Error     string      `json:"error,omitempty"`
}

// Stats aggregates every run in the journal.
type Stats struct {
	Runs      int       `json:"runs"`
	Found     int       `json:"found"`
	Failed    int       `json:"failed"`
	Weighings int       `json:"weighings"`
	Latency   Histogram `json:"latency"`
}

type index struct {
	Runs  []Summary `json:"runs"`
	Stats Stats     `json:"stats"`
}

// Journal stores runs under runs/ in the storage.
type Journal struct {
	storage *storage.Storage
	logger  *zap.Logger
	mu      sync.Mutex
}

// New returns a Journal backed by s.
func New(s *storage.Storage, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{storage: s, logger: logger}
}

func runFile(id string) string {
	return filepath.Join("runs", id+".json")
}

// Save writes the entry and adds it to the index. An empty ID is replaced
// by a new one.
func (j *Journal) Save(e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	} else if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", e.ID, err)
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.storage.SaveDataFile(runFile(e.ID), e); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	idx, err := j.readIndex()
	if err != nil {
		return err
	}
	idx.Runs = append(idx.Runs, summarize(e))
	idx.Stats.Runs++
	switch {
	case e.Error != "":
		idx.Stats.Failed++
	case e.Run.Result.Found:
		idx.Stats.Found++
	}
	idx.Stats.Weighings += e.Run.Result.Weighings
	for _, d := range e.Run.Latencies {
		idx.Stats.Latency.Add(d)
	}
	if err := j.storage.SaveDataFile(indexFile, idx); err != nil {
		return fmt.Errorf("storage.SaveDataFile (index): %w", err)
	}
	j.logger.Debug("run saved", zap.String("id", e.ID))
	return nil
}

// Load returns the run with the given id.
func (j *Journal) Load(id string) (*Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	var e Entry
	if err := j.storage.ReadDataFile(runFile(id), &e); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	return &e, nil
}

// List returns the summaries of all runs, newest first.
func (j *Journal) List() ([]Summary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	idx, err := j.readIndex()
	if err != nil {
		return nil, err
	}
	runs := idx.Runs
	sort.SliceStable(runs, func(a, b int) bool {
		return runs[a].StartedAt.After(runs[b].StartedAt)
	})
	return runs, nil
}

// Stats returns the aggregate of all runs.
func (j *Journal) Stats() (Stats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	idx, err := j.readIndex()
	if err != nil {
		return Stats{}, err
	}
	return idx.Stats, nil
}

func (j *Journal) readIndex() (*index, error) {
	var idx index
	if err := j.storage.ReadDataFile(indexFile, &idx); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &index{}, nil
		}
		return nil, fmt.Errorf("ReadDataFile (index): %w", err)
	}
	return &idx, nil
}

func summarize(e *Entry) Summary {
	return Summary{
		ID:        e.ID,
		StartedAt: e.StartedAt,
		Engine:    e.Engine,
		Strategy:  e.Run.Strategy,
		Coin:      e.Run.Result.Coin,
		Found:     e.Run.Result.Found,
		Weighings: e.Run.Result.Weighings,
		Error:     e.Error,
	}
}
