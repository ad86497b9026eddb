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
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ttbt-io/fakegold/backend"
	"github.com/ttbt-io/fakegold/config"
	"github.com/ttbt-io/fakegold/journal"
	"go.uber.org/zap"
)

var serveFlags struct {
	addr    string
	coins   int
	fake    int
	delay   time.Duration
	title   string
	persist bool
	tlsCert string
	tlsKey  string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local copy of the puzzle",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func registerServeFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", d.Server.Addr, "The TCP address to listen to")
	if f.Lookup("coins") == nil {
		f.IntVar(&serveFlags.coins, "coins", d.Server.Coins, "Number of coins per puzzle")
	}
	f.IntVar(&serveFlags.fake, "fake", d.Server.FakeCoin, "Index of the fake coin, negative for a random one per puzzle")
	f.DurationVar(&serveFlags.delay, "delay", d.Server.WeighDelay, "Delay before a weighing result is shown")
	f.StringVar(&serveFlags.title, "title", d.Server.Title, "Title of the puzzle page")
	f.BoolVar(&serveFlags.persist, "persist", false, "Keep puzzles in the data directory")
	f.StringVar(&serveFlags.tlsCert, "tls-cert", "", "Path to the TLS certificate")
	f.StringVar(&serveFlags.tlsKey, "tls-key", "", "Path to the TLS key")
}

func applyServeFlags(cmd *cobra.Command, c *config.Config) error {
	override(cmd, "addr", func() { c.Server.Addr = serveFlags.addr })
	// demo shares the solve flag of the same name.
	if f := cmd.Flags().Lookup("coins"); f != nil && f.Value.Type() == "int" {
		override(cmd, "coins", func() { c.Server.Coins = serveFlags.coins })
	}
	override(cmd, "fake", func() { c.Server.FakeCoin = serveFlags.fake })
	override(cmd, "delay", func() { c.Server.WeighDelay = serveFlags.delay })
	override(cmd, "title", func() { c.Server.Title = serveFlags.title })
	override(cmd, "persist", func() { c.Server.Persist = serveFlags.persist })
	override(cmd, "tls-cert", func() { c.Server.TLSCert = serveFlags.tlsCert })
	override(cmd, "tls-key", func() { c.Server.TLSKey = serveFlags.tlsKey })
	override(cmd, "data-dir", func() { c.DataDir = dataDir })
	return c.Validate()
}

// serverOptions builds the simulator options of the configuration.
func serverOptions(c *config.Config, logger *zap.Logger) (backend.Options, error) {
	opts := backend.Options{
		Addr:       c.Server.Addr,
		Debug:      debugMode,
		Logger:     logger,
		Title:      c.Server.Title,
		Coins:      c.Server.Coins,
		FakeCoin:   c.Server.FakeCoin,
		WeighDelay: c.Server.WeighDelay,
	}
	if c.Server.TLSCert != "" {
		cert, err := tls.LoadX509KeyPair(c.Server.TLSCert, c.Server.TLSKey)
		if err != nil {
			return opts, fmt.Errorf("failed to load TLS cert/key: %w", err)
		}
		opts.Cert = &cert
	}
	if c.Server.Persist {
		s, err := journal.OpenStorage(c.DataDir, os.Getenv(journal.MasterKeyEnv), logger)
		if err != nil {
			return opts, err
		}
		opts.Storage = s
	}
	return opts, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}
	opts, err := serverOptions(cfg, logger)
	if err != nil {
		return err
	}
	server, err := backend.StartServer(opts)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	scheme := "http"
	if opts.Cert != nil {
		scheme = "https"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving the puzzle on %s://%s/\n", scheme, server.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	sdCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(sdCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("gracefully stopped")
	return nil
}
