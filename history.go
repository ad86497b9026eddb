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
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/ttbt-io/fakegold/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List journaled runs or show one of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	override(cmd, "data-dir", func() { cfg.DataDir = dataDir })
	s, err := journal.OpenStorage(cfg.DataDir, os.Getenv(journal.MasterKeyEnv), logger)
	if err != nil {
		return err
	}
	j := journal.New(s, logger)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		e, err := j.Load(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	}

	runs, err := j.List()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tENGINE\tSTRATEGY\tCOIN\tWEIGHINGS\tERROR")
	for _, r := range runs {
		coin := string(r.Coin)
		if !r.Found {
			coin = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n", r.ID, r.StartedAt.Format(time.DateTime), r.Engine, r.Strategy, coin, r.Weighings, r.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats, err := j.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d runs, %d found, %d failed, %d weighings, latency mean %v p90 %v\n",
		stats.Runs, stats.Found, stats.Failed, stats.Weighings,
		stats.Latency.Mean(), stats.Latency.Quantile(0.9))
	return nil
}
