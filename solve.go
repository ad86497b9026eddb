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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ttbt-io/fakegold/config"
	"github.com/ttbt-io/fakegold/drivers/cdpdriver"
	"github.com/ttbt-io/fakegold/drivers/pwdriver"
	"github.com/ttbt-io/fakegold/drivers/roddriver"
	"github.com/ttbt-io/fakegold/journal"
	"github.com/ttbt-io/fakegold/solver"
	"go.uber.org/zap"
)

var solveFlags struct {
	url           string
	engine        string
	remote        string
	headless      bool
	strategy      string
	coins         string
	maxAttempts   int
	interval      time.Duration
	strict        bool
	timeout       time.Duration
	screenshotDir string
	noJournal     bool
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Play the puzzle in a browser and find the fake coin",
	Args:  cobra.NoArgs,
	RunE:  runSolve,
}

func registerSolveFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&solveFlags.url, "url", d.Solver.URL, "URL of the puzzle page")
	f.StringVar(&solveFlags.engine, "engine", d.Browser.Engine, "Browser automation engine: chromedp, rod or playwright")
	f.StringVar(&solveFlags.remote, "remote", "", "Debugger URL of a running browser")
	f.BoolVar(&solveFlags.headless, "headless", d.Browser.Headless, "Run a launched browser without a window")
	f.StringVar(&solveFlags.strategy, "strategy", d.Solver.Strategy, "Search strategy: linear or tournament")
	f.StringVar(&solveFlags.coins, "coins", d.Solver.Coins, "Comma separated coin ids, the first one is the reference")
	f.IntVar(&solveFlags.maxAttempts, "max-attempts", d.Solver.MaxAttempts, "Reads of the weighing log per weighing")
	f.DurationVar(&solveFlags.interval, "interval", d.Solver.Interval, "Pause between two reads of the weighing log")
	f.BoolVar(&solveFlags.strict, "strict", false, "Fail on polling timeouts and unparsable records")
	f.DurationVar(&solveFlags.timeout, "timeout", d.Solver.Timeout, "Time limit of the whole run")
	f.StringVar(&solveFlags.screenshotDir, "screenshot-dir", "", "Save a screenshot here when a chromedp run fails")
	f.BoolVar(&solveFlags.noJournal, "no-journal", false, "Do not record the run")
}

// applySolveFlags copies the flags given on the command line into c.
func applySolveFlags(cmd *cobra.Command, c *config.Config) error {
	override(cmd, "url", func() { c.Solver.URL = solveFlags.url })
	override(cmd, "engine", func() { c.Browser.Engine = solveFlags.engine })
	override(cmd, "remote", func() { c.Browser.RemoteURL = solveFlags.remote })
	override(cmd, "headless", func() { c.Browser.Headless = solveFlags.headless })
	override(cmd, "strategy", func() { c.Solver.Strategy = solveFlags.strategy })
	override(cmd, "coins", func() { c.Solver.Coins = solveFlags.coins })
	override(cmd, "max-attempts", func() { c.Solver.MaxAttempts = solveFlags.maxAttempts })
	override(cmd, "interval", func() { c.Solver.Interval = solveFlags.interval })
	override(cmd, "strict", func() { c.Solver.Strict = solveFlags.strict })
	override(cmd, "timeout", func() { c.Solver.Timeout = solveFlags.timeout })
	override(cmd, "screenshot-dir", func() { c.Browser.ScreenshotDir = solveFlags.screenshotDir })
	override(cmd, "data-dir", func() { c.DataDir = dataDir })
	return c.Validate()
}

func runSolve(cmd *cobra.Command, args []string) error {
	if err := applySolveFlags(cmd, cfg); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var j *journal.Journal
	if !solveFlags.noJournal {
		s, err := journal.OpenStorage(cfg.DataDir, os.Getenv(journal.MasterKeyEnv), logger)
		if err != nil {
			return err
		}
		j = journal.New(s, logger)
	}
	entry, err := solve(ctx, cfg, logger)
	if j != nil {
		if jerr := j.Save(entry); jerr != nil {
			logger.Error("failed to save run", zap.Error(jerr))
		} else {
			logger.Info("run saved", zap.String("id", entry.ID))
		}
	}
	if err != nil {
		return err
	}
	printRun(cmd.OutOrStdout(), entry.Run)
	return nil
}

// solve plays one game with the configured engine. The returned entry is
// filled in even when the run fails.
func solve(ctx context.Context, c *config.Config, logger *zap.Logger) (*journal.Entry, error) {
	entry := &journal.Entry{
		Engine:    c.Browser.Engine,
		URL:       c.Solver.URL,
		StartedAt: time.Now(),
	}
	fail := func(err error) (*journal.Entry, error) {
		entry.Error = err.Error()
		return entry, err
	}

	coins, err := solver.ParseCoinSet(c.Solver.Coins)
	if err != nil {
		return fail(err)
	}
	strategy, err := solver.NewStrategy(c.Solver.Strategy, c.Solver.Strict, logger)
	if err != nil {
		return fail(err)
	}

	// The browser outlives the run timeout so that a failure can still be
	// captured.
	d, err := newDriver(ctx, c.Browser, logger)
	if err != nil {
		return fail(err)
	}
	defer d.Close()
	if c.Solver.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Solver.Timeout)
		defer cancel()
	}

	g := solver.NewGame(d, solver.Options{
		URL:           c.Solver.URL,
		ExpectedTitle: c.Solver.ExpectedTitle,
		Strategy:      strategy,
		MaxAttempts:   c.Solver.MaxAttempts,
		Interval:      c.Solver.Interval,
		Strict:        c.Solver.Strict,
		DialogTimeout: c.Solver.DialogTimeout,
		Logger:        logger,
	})
	run, err := g.Play(ctx, coins)
	entry.Run = run
	if err != nil {
		debugFailure(d, c.Browser.ScreenshotDir, logger)
		return fail(err)
	}
	return entry, nil
}

func newDriver(ctx context.Context, b config.BrowserConfig, logger *zap.Logger) (solver.Driver, error) {
	logger = logger.With(zap.String("engine", b.Engine))
	switch b.Engine {
	case "chromedp":
		return cdpdriver.New(ctx, cdpdriver.Options{RemoteURL: b.RemoteURL, Headless: b.Headless, Logger: logger})
	case "rod":
		return roddriver.New(ctx, roddriver.Options{RemoteURL: b.RemoteURL, Headless: b.Headless, Logger: logger})
	case "playwright":
		return pwdriver.New(pwdriver.Options{RemoteURL: b.RemoteURL, Headless: b.Headless, Logger: logger})
	default:
		return nil, fmt.Errorf("unknown engine %q", b.Engine)
	}
}

// debugFailure saves a screenshot of the page when the engine supports it.
func debugFailure(d solver.Driver, dir string, logger *zap.Logger) {
	cd, ok := d.(*cdpdriver.Driver)
	if dir == "" || !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	name := "failure-" + time.Now().Format("20060102-150405")
	if err := cd.DebugFailure(ctx, dir, name); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("failed to save debug data", zap.Error(err))
	}
}

func printRun(w io.Writer, run solver.Run) {
	if run.Result.Found {
		fmt.Fprintf(w, "Message: %s\n", run.Message)
		fmt.Fprintf(w, "Fake coin: %s\n", run.Result.Coin)
	} else {
		fmt.Fprintln(w, "Fake coin: not found")
	}
	fmt.Fprintf(w, "Number of weighings: %d\n", len(run.Weighings))
	if run.Result.Weighings != len(run.Weighings) {
		// Some results never showed up on the page.
		fmt.Fprintf(w, "Weighings performed: %d\n", run.Result.Weighings)
	}
	fmt.Fprintln(w, "Weighings:")
	for i, rec := range run.Weighings {
		fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
	}
}
