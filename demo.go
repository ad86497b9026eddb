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
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ttbt-io/fakegold/backend"
	"github.com/ttbt-io/fakegold/solver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Serve the puzzle on a loopback port and solve it",
	Long: `demo starts the local puzzle on a free loopback port and solves it in
the same process. The solve flags select the engine and strategy, the serve
flags configure the puzzle.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	if err := applySolveFlags(cmd, cfg); err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}
	// The puzzle has one coin per id of the solve coin list.
	coins, err := solver.ParseCoinSet(cfg.Solver.Coins)
	if err != nil {
		return err
	}
	cfg.Server.Coins = len(coins)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cmd.Flags().Changed("delay") {
		cfg.Server.WeighDelay = 100 * time.Millisecond
	}
	if !cmd.Flags().Changed("interval") {
		cfg.Solver.Interval = 250 * time.Millisecond
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	opts, err := serverOptions(cfg, logger.Named("server"))
	if err != nil {
		l.Close()
		return err
	}
	opts.Listener = l
	server, err := backend.StartServer(opts)
	if err != nil {
		l.Close()
		return fmt.Errorf("failed to start server: %w", err)
	}
	scheme := "http"
	if opts.Cert != nil {
		scheme = "https"
	}
	cfg.Solver.URL = fmt.Sprintf("%s://%s/", scheme, server.Addr())
	cfg.Solver.ExpectedTitle = cfg.Server.Title

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	solved := make(chan struct{})

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-solved:
		}
		sdCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(sdCtx)
	})
	g.Go(func() error {
		defer close(solved)
		entry, err := solve(gctx, cfg, logger.Named("solver"))
		if err != nil {
			return err
		}
		logger.Info("demo solved", zap.String("url", entry.URL))
		printRun(cmd.OutOrStdout(), entry.Run)
		return nil
	})
	return g.Wait()
}
