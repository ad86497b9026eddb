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

// Command fakegold finds the fake gold coin of the weighing puzzle by driving
// its web page, and serves a local copy of the puzzle.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ttbt-io/fakegold/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	debugMode  bool
	dataDir    string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fakegold",
	Short: "Find the fake gold coin with a balance scale",
	Long: `fakegold plays the fake gold coin puzzle in a real browser: it weighs
coins against each other on the puzzle page, deduces which one is the
lighter fake, clicks it and reports the confirmation message.

It also serves a local copy of the puzzle for testing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if debugMode {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		if logger, err = zc.Build(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path of the YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	registerSolveFlags(solveCmd)
	registerServeFlags(serveCmd)
	registerSolveFlags(demoCmd)
	registerServeFlags(demoCmd)
	for _, cmd := range []*cobra.Command{solveCmd, serveCmd, demoCmd, historyCmd} {
		cmd.Flags().StringVar(&dataDir, "data-dir", config.DefaultConfig().DataDir, "Directory of the run journal and persisted puzzles")
		rootCmd.AddCommand(cmd)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// override calls set when the named flag was given on the command line.
func override(cmd *cobra.Command, name string, set func()) {
	if cmd.Flags().Changed(name) {
		set()
	}
}
