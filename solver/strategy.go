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
	"strings"

	"github.com/ttbt-io/fakegold/solver/record"
	"go.uber.org/zap"
)

// Result is the outcome of a search for the fake coin.
type Result struct {
	Coin      Coin     `json:"coin,omitempty"`
	Found     bool     `json:"found"`
	Weighings int      `json:"weighings"`
	Log       []string `json:"log,omitempty"` // weighing log after the last weighing
}

// Strategy searches a coin set for the fake coin using a Controller.
type Strategy interface {
	Name() string
	Find(ctx context.Context, c *Controller, coins CoinSet) (Result, error)
}

// NewStrategy returns the strategy with the given name.
func NewStrategy(name string, strict bool, logger *zap.Logger) (Strategy, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(name) {
	case "", "linear":
		return LinearScan{Strict: strict, Logger: logger}, nil
	case "tournament":
		return Tournament{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// LinearScan pins the first coin on the left pan and weighs it against every
// other coin in order, stopping at the first unbalanced weighing. The lighter
// coin of that weighing is the fake. A fake reference coin is never detected.
type LinearScan struct {
	// Strict makes an unparsable record an error instead of falling back to
	// the legacy extraction, which yields coin "0".
	Strict bool
	Logger *zap.Logger
}

func (LinearScan) Name() string { return "linear" }

func (s LinearScan) Find(ctx context.Context, c *Controller, coins CoinSet) (Result, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result
	if err := coins.Validate(); err != nil {
		return res, err
	}
	reference := coins[0]
	if err := c.Place(ctx, Left, reference); err != nil {
		return res, err
	}

	for _, coin := range coins[1:] {
		if err := c.Place(ctx, Right, coin); err != nil {
			return res, err
		}
		out, err := c.Evaluate(ctx)
		res.Weighings++
		res.Log = out.Log
		if err != nil {
			return res, err
		}
		last, ok := out.Last()
		if !ok {
			continue
		}
		v := record.Parse(last)
		logger.Debug("weighing", zap.String("reference", string(reference)), zap.String("coin", string(coin)),
			zap.String("record", last), zap.Stringer("verdict", v.Kind), zap.Stringer("status", out.Status))

		switch {
		case v.Kind == record.Equal:
			continue
		case v.Kind == record.Unequal && len(v.Lesser) == 1:
			res.Coin = Coin(v.Lesser[0])
		case s.Strict:
			return res, fmt.Errorf("%w: %q", ErrMalformedRecord, last)
		default:
			res.Coin = Coin(record.ExtractLesserCoin(last))
			logger.Warn("unexpected weighing record, using legacy extraction",
				zap.String("record", last), zap.String("coin", string(res.Coin)))
		}
		res.Found = true
		return res, nil
	}
	return res, nil
}

// Tournament splits the candidates into three groups and weighs the first
// two against each other, keeping the lighter group or the third one when
// the pans balance. It assumes the fake coin is lighter and needs
// ceil(log3(n)) weighings, e.g. 2 for 9 coins. Stale or unparsable records
// are errors.
type Tournament struct {
	Logger *zap.Logger
}

func (Tournament) Name() string { return "tournament" }

func (s Tournament) Find(ctx context.Context, c *Controller, coins CoinSet) (Result, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result
	if err := coins.Validate(); err != nil {
		return res, err
	}

	candidates := coins
	for len(candidates) > 1 {
		a, b, rest := thirds(candidates)
		if err := c.Reset(ctx); err != nil {
			return res, err
		}
		if err := c.Place(ctx, Left, a...); err != nil {
			return res, err
		}
		if err := c.Place(ctx, Right, b...); err != nil {
			return res, err
		}
		out, err := c.Evaluate(ctx)
		res.Weighings++
		res.Log = out.Log
		if err != nil {
			return res, err
		}
		if out.Stale() {
			return res, fmt.Errorf("%w: weighing %v against %v after %d reads", ErrPollingTimeout, a, b, out.Attempts)
		}
		last, _ := out.Last()
		v := record.Parse(last)
		logger.Debug("weighing", zap.Stringer("left", a), zap.Stringer("right", b),
			zap.String("record", last), zap.Stringer("verdict", v.Kind))

		switch v.Kind {
		case record.Equal:
			candidates = rest
		case record.Unequal:
			lesser := coinsOf(v.Lesser)
			switch {
			case sameCoins(lesser, a):
				candidates = a
			case sameCoins(lesser, b):
				candidates = b
			default:
				return res, fmt.Errorf("%w: %q does not match pans %v and %v", ErrMalformedRecord, last, a, b)
			}
		default:
			return res, fmt.Errorf("%w: %q", ErrMalformedRecord, last)
		}
	}

	if len(candidates) == 1 {
		res.Coin = candidates[0]
		res.Found = true
	}
	return res, nil
}

// thirds splits coins into two groups of equal size and a remainder.
func thirds(coins CoinSet) (a, b, rest CoinSet) {
	k := (len(coins) + 2) / 3
	if 2*k > len(coins) {
		k = len(coins) / 2
	}
	return coins[:k], coins[k : 2*k], coins[2*k:]
}

func sameCoins(x, y CoinSet) bool {
	if len(x) != len(y) {
		return false
	}
	set := make(map[Coin]bool, len(x))
	for _, c := range x {
		set[c] = true
	}
	for _, c := range y {
		if !set[c] {
			return false
		}
	}
	return true
}
