// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Solverstat aggregates and reports on e-graph extraction experiments.
//
// Usage:
//
//	solverstat aggregate --models m1,m2 --datasets d1.jsonl,d2.jsonl --dst aggregate.json
//	solverstat aggregate --manifest batch.toml
//	solverstat summary [--graph cost|runtime] [--csv] [--data aggregate.json]
//	solverstat render [--graph cost|runtime] --out chart.png [--data aggregate.json]
//
// Each dataset is a file of JSON records, one per line, written by one
// run of the ILP or LP extractor:
//
//	{"num_iter": 3, "algorithm": "ilp", "num_nodes": 5, "num_classes": 2,
//	 "num_programs": 3, "solve_time": 10, "obj_start": 100, "obj_opt": 80,
//	 "obj_ext": 85}
//
// The aggregate command groups the records of each dataset by
// iteration count and extractor and stores the result under the model
// name, replacing any previous entry for that model. The aggregate is a
// JSON file, or, with --driver and --dsn, a sqlite3 or mysql database.
//
// The summary and render commands read the aggregate and compare the
// extractors at each model's largest iteration count. The cost graph
// shows the mean optimized cost of LP, ILP and rounded LP solutions
// relative to the input program. The runtime graph shows the
// distribution of solve times.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logger *zap.Logger
	root := &cobra.Command{
		Use:          "solverstat",
		Short:        "Aggregate and summarize extraction experiments",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	log := func() *zap.Logger {
		if logger == nil {
			return zap.NewNop()
		}
		return logger
	}
	root.AddCommand(
		aggregateCmd(log),
		summaryCmd(),
		renderCmd(),
	)
	return root
}
