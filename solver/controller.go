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

package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/ttbt-io/fakegold/solver/record"
	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts is the number of times the weighing log is read
	// while waiting for a new record.
	DefaultMaxAttempts = 5
	// DefaultInterval is the pause between two reads of the weighing log.
	DefaultInterval = 2000 * time.Millisecond
)

// Status tells whether a weighing produced a new record in time.
type Status int

const (
	Updated Status = iota
	StaleTimeout
)

func (s Status) String() string {
	if s == Updated {
		return "Updated"
	}
	return "StaleTimeout"
}

// Outcome is the result of waiting for one weighing.
type Outcome struct {
	Status   Status
	Log      []string // full weighing log at the last read
	Before   int      // log length before the weigh button was clicked
	Attempts int      // number of reads after the click
	Elapsed  time.Duration
}

// Stale reports whether the log did not grow before the polling budget ran out.
func (o Outcome) Stale() bool {
	return o.Status == StaleTimeout
}

// Last returns the most recent record of the log.
func (o Outcome) Last() (string, bool) {
	if len(o.Log) == 0 {
		return "", false
	}
	return o.Log[len(o.Log)-1], true
}

// Classification is the textual class of a weighing record.
type Classification int

const (
	Equal Classification = iota
	Unequal
)

func (c Classification) String() string {
	if c == Equal {
		return "Equal"
	}
	return "Unequal"
}

// ClassifyRecord returns Unequal iff the record has no equality marker.
func ClassifyRecord(rec string) Classification {
	if record.IsUnequal(rec) {
		return Unequal
	}
	return Equal
}

// ExtractLesserCoin returns y for a record of the form "[x] > [y]" and the
// fallback coin "0" for anything else.
func ExtractLesserCoin(rec string) Coin {
	return Coin(record.ExtractLesserCoin(rec))
}

// Controller performs weighings on the puzzle page, one at a time.
type Controller struct {
	Driver    Driver
	Selectors Selectors
	// MaxAttempts and Interval bound the wait for a new weighing record.
	MaxAttempts int
	Interval    time.Duration
	// Strict makes a polling timeout an error instead of a stale outcome.
	Strict bool
	Logger *zap.Logger

	latencies []time.Duration
}

// NewController returns a Controller with the default polling budget.
func NewController(d Driver, sel Selectors, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		Driver:      d,
		Selectors:   sel,
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
		Logger:      logger,
	}
}

// Place puts coins on the cells of one pan, starting at cell 0.
func (c *Controller) Place(ctx context.Context, side Side, coins ...Coin) error {
	for i, coin := range coins {
		id := c.Selectors.Field(side, i)
		if err := c.Driver.SetField(ctx, id, string(coin)); err != nil {
			return fmt.Errorf("set %s: %w", id, err)
		}
	}
	return nil
}

// Reset empties both pans.
func (c *Controller) Reset(ctx context.Context) error {
	if err := c.Driver.Click(ctx, c.Selectors.Reset); err != nil {
		return fmt.Errorf("click %s: %w", c.Selectors.Reset, err)
	}
	return nil
}

// Log reads the current weighing log.
func (c *Controller) Log(ctx context.Context) ([]string, error) {
	entries, err := c.Driver.TextList(ctx, c.Selectors.Results)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.Selectors.Results, err)
	}
	return entries, nil
}

// Evaluate clicks the weigh button and waits for the log to grow. When the
// log does not grow within the polling budget the outcome is StaleTimeout
// and carries the log as last read; the error is only set in strict mode.
func (c *Controller) Evaluate(ctx context.Context) (Outcome, error) {
	before, err := c.Log(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if err := c.Driver.Click(ctx, c.Selectors.Weigh); err != nil {
		return Outcome{}, fmt.Errorf("click %s: %w", c.Selectors.Weigh, err)
	}
	out, err := c.waitForUpdate(ctx, before)
	c.latencies = append(c.latencies, out.Elapsed)
	return out, err
}

// PerformWeighing weighs left against right.
func (c *Controller) PerformWeighing(ctx context.Context, left, right Coin) (Outcome, error) {
	if err := c.Place(ctx, Left, left); err != nil {
		return Outcome{}, err
	}
	if err := c.Place(ctx, Right, right); err != nil {
		return Outcome{}, err
	}
	return c.Evaluate(ctx)
}

// Latencies returns how long each evaluated weighing took to show up.
func (c *Controller) Latencies() []time.Duration {
	return append([]time.Duration(nil), c.latencies...)
}

func (c *Controller) waitForUpdate(ctx context.Context, before []string) (Outcome, error) {
	maxAttempts := c.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	start := time.Now()
	out := Outcome{Status: StaleTimeout, Log: before, Before: len(before)}

	for out.Attempts < maxAttempts {
		out.Attempts++
		entries, err := c.Log(ctx)
		if err != nil {
			out.Elapsed = time.Since(start)
			return out, err
		}
		out.Log = entries
		if len(entries) > len(before) {
			out.Status = Updated
			out.Elapsed = time.Since(start)
			c.Logger.Debug("weighing recorded",
				zap.Int("attempt", out.Attempts),
				zap.Int("records", len(entries)))
			return out, nil
		}
		if out.Attempts == maxAttempts {
			break
		}
		c.Logger.Debug("waiting for weighing result",
			zap.Int("attempt", out.Attempts),
			zap.Duration("interval", c.Interval))
		if err := sleep(ctx, c.Interval); err != nil {
			out.Elapsed = time.Since(start)
			return out, err
		}
	}
	out.Elapsed = time.Since(start)

	c.Logger.Warn("weighing log did not grow, using stale log",
		zap.Int("attempts", out.Attempts),
		zap.Int("records", len(out.Log)))
	if c.Strict {
		return out, fmt.Errorf("%w: log still has %d records after %d reads", ErrPollingTimeout, len(out.Log), out.Attempts)
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
