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

	"go.uber.org/zap"
)

const (
	// DefaultTitle is the title of the puzzle page.
	DefaultTitle = "React App"
	// DefaultDialogTimeout bounds the wait for the dialog opened by a coin click.
	DefaultDialogTimeout = 5 * time.Second
)

// Options configures a Game.
type Options struct {
	URL           string
	ExpectedTitle string // empty skips the title check
	Selectors     Selectors
	Strategy      Strategy
	MaxAttempts   int
	Interval      time.Duration
	Strict        bool
	DialogTimeout time.Duration
	Logger        *zap.Logger
}

// Game is the page object of the puzzle.
type Game struct {
	driver     Driver
	opts       Options
	controller *Controller
	logger     *zap.Logger
}

// Run summarizes one complete play of the puzzle.
type Run struct {
	Strategy  string          `json:"strategy"`
	Coins     CoinSet         `json:"coins"`
	Result    Result          `json:"result"`
	Message   string          `json:"message,omitempty"`
	Weighings []string        `json:"weighings"`
	Latencies []time.Duration `json:"latencies,omitempty"`
	Elapsed   time.Duration   `json:"elapsed"`
}

// NewGame returns a Game that drives the puzzle through d. Zero option
// values are replaced by the defaults.
func NewGame(d Driver, opts Options) *Game {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Selectors == (Selectors{}) {
		opts.Selectors = DefaultSelectors
	}
	if opts.Strategy == nil {
		opts.Strategy = LinearScan{Strict: opts.Strict, Logger: opts.Logger}
	}
	if opts.DialogTimeout <= 0 {
		opts.DialogTimeout = DefaultDialogTimeout
	}
	c := NewController(d, opts.Selectors, opts.Logger)
	if opts.MaxAttempts > 0 {
		c.MaxAttempts = opts.MaxAttempts
	}
	if opts.Interval > 0 {
		c.Interval = opts.Interval
	}
	c.Strict = opts.Strict
	return &Game{
		driver:     d,
		opts:       opts,
		controller: c,
		logger:     opts.Logger,
	}
}

// Controller returns the weighing controller used by the game.
func (g *Game) Controller() *Controller {
	return g.controller
}

// Open navigates to the puzzle page and verifies its title.
func (g *Game) Open(ctx context.Context) error {
	g.logger.Info("opening puzzle", zap.String("url", g.opts.URL))
	if err := g.driver.Navigate(ctx, g.opts.URL); err != nil {
		return fmt.Errorf("navigate to %s: %w", g.opts.URL, err)
	}
	if g.opts.ExpectedTitle == "" {
		return nil
	}
	title, err := g.driver.Title(ctx)
	if err != nil {
		return fmt.Errorf("read title: %w", err)
	}
	if title != g.opts.ExpectedTitle {
		return fmt.Errorf("%w: got %q, want %q", ErrUnexpectedTitle, title, g.opts.ExpectedTitle)
	}
	return nil
}

// FindFake runs the configured strategy on coins.
func (g *Game) FindFake(ctx context.Context, coins CoinSet) (Result, error) {
	res, err := g.opts.Strategy.Find(ctx, g.controller, coins)
	if err != nil {
		return res, fmt.Errorf("%s strategy: %w", g.opts.Strategy.Name(), err)
	}
	g.logger.Info("search finished",
		zap.String("strategy", g.opts.Strategy.Name()),
		zap.Bool("found", res.Found),
		zap.String("coin", string(res.Coin)),
		zap.Int("weighings", res.Weighings))
	return res, nil
}

// Reveal clicks coin and returns the message of the dialog it opens. The
// dialog subscription is registered before the click and fires once.
func (g *Game) Reveal(ctx context.Context, coin Coin) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.DialogTimeout)
	defer cancel()

	messages, err := g.driver.ExpectDialog(ctx)
	if err != nil {
		return "", fmt.Errorf("subscribe to dialog: %w", err)
	}
	id := g.opts.Selectors.CoinID(coin)
	if err := g.driver.Click(ctx, id); err != nil {
		return "", fmt.Errorf("click %s: %w", id, err)
	}
	select {
	case msg, ok := <-messages:
		if !ok {
			return "", fmt.Errorf("%w: coin %s", ErrNoDialog, coin)
		}
		g.logger.Info("dialog", zap.String("coin", string(coin)), zap.String("message", msg))
		return msg, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: coin %s: %w", ErrNoDialog, coin, ctx.Err())
	}
}

// Weighings returns every weighing record shown on the page.
func (g *Game) Weighings(ctx context.Context) ([]string, error) {
	return g.controller.Log(ctx)
}

// Play opens the page, finds the fake coin, clicks it and collects the
// weighing log. The dialog is only awaited when a coin was found.
func (g *Game) Play(ctx context.Context, coins CoinSet) (run Run, err error) {
	start := time.Now()
	seen := len(g.controller.latencies)
	run = Run{Strategy: g.opts.Strategy.Name(), Coins: coins}
	defer func() {
		run.Elapsed = time.Since(start)
	}()

	if err := g.Open(ctx); err != nil {
		return run, err
	}
	res, err := g.FindFake(ctx, coins)
	run.Result = res
	run.Latencies = g.controller.Latencies()[seen:]
	if err != nil {
		return run, err
	}
	if res.Found {
		msg, err := g.Reveal(ctx, res.Coin)
		if err != nil {
			return run, err
		}
		run.Message = msg
	}
	weighings, err := g.Weighings(ctx)
	if err != nil {
		return run, err
	}
	run.Weighings = weighings
	return run, nil
}
