// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tamago-eval/solverstat/evalstore"
	"github.com/tamago-eval/solverstat/internal/manifest"
)

// A batch is one run of the aggregate command.
type batch struct {
	models, datasets []string
	dst              string // aggregate file
	driver, dsn      string // aggregate database
	strict           bool
}

func aggregateCmd(log func() *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Merge datasets into the aggregate, one model per dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := batchFromFlags(cmd)
			if err != nil {
				return err
			}
			return runBatch(b, log())
		},
	}
	cmd.Flags().StringSlice("models", nil, "model names, in the same order as --datasets")
	cmd.Flags().StringSlice("datasets", nil, "dataset files to aggregate")
	cmd.Flags().String("dst", "", "aggregate JSON `file` to merge into")
	cmd.Flags().String("manifest", "", "read the batch from a TOML or YAML manifest `file`")
	cmd.Flags().Bool("strict", false, "reject dataset records with unexpected keys")
	addDBFlags(cmd)
	return cmd
}

func batchFromFlags(cmd *cobra.Command) (batch, error) {
	b, err := batchFromArgs(cmd)
	if err != nil {
		return batch{}, err
	}
	b.strict, _ = cmd.Flags().GetBool("strict")
	return b, nil
}

func batchFromArgs(cmd *cobra.Command) (batch, error) {
	path, _ := cmd.Flags().GetString("manifest")
	if path != "" {
		for _, name := range []string{"models", "datasets", "dst", "driver", "dsn"} {
			if cmd.Flags().Changed(name) {
				return batch{}, errors.New("--manifest cannot be combined with --" + name)
			}
		}
		m, err := manifest.Load(path)
		if err != nil {
			return batch{}, err
		}
		b := batch{models: m.Models(), datasets: m.Datasets(), dst: m.Dst}
		if m.Store != nil {
			b.driver, b.dsn = m.Store.Driver, m.Store.DSN
		}
		return b, nil
	}

	var b batch
	b.models, _ = cmd.Flags().GetStringSlice("models")
	b.datasets, _ = cmd.Flags().GetStringSlice("datasets")
	b.dst, _ = cmd.Flags().GetString("dst")
	b.driver, _ = cmd.Flags().GetString("driver")
	b.dsn, _ = cmd.Flags().GetString("dsn")
	if len(b.models) == 0 {
		return batch{}, errors.New("no models given")
	}
	if b.dst != "" && b.driver != "" {
		return batch{}, errors.New("--dst and --driver are mutually exclusive")
	}
	return b, nil
}

func runBatch(b batch, logger *zap.Logger) error {
	backend, closeBackend, err := openBackend(b.dst, b.driver, b.dsn)
	if err != nil {
		return err
	}
	defer closeBackend()

	logger.Debug("aggregating", zap.Int("pairs", len(b.models)), zap.String("dst", b.dst), zap.String("driver", b.driver))
	return evalstore.Aggregate(backend, b.models, b.datasets, &evalstore.Options{Logger: logger, Strict: b.strict})
}
