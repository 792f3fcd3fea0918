// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"

	"github.com/tamago-eval/solverstat/evalstat"
	"github.com/tamago-eval/solverstat/evalstore"
)

// addReportFlags adds the flags shared by summary and render.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("data", "aggregate.json", "aggregate JSON `file` to read")
	cmd.Flags().String("graph", "cost", "comparison to report: cost or runtime")
	cmd.Flags().StringSlice("models", nil, "report only these models, in this order")
	cmd.Flags().StringSlice("exclude", nil, "leave these models out of the report")
	addDBFlags(cmd)
}

// report is the data behind one summary or chart.
type report struct {
	graph    string
	costs    []evalstat.Cost
	runtimes []evalstat.Runtime
}

func loadReport(cmd *cobra.Command) (*report, error) {
	graph, _ := cmd.Flags().GetString("graph")
	if graph != "cost" && graph != "runtime" {
		return nil, fmt.Errorf("unknown graph %q: want cost or runtime", graph)
	}
	s, err := loadStore(cmd)
	if err != nil {
		return nil, err
	}
	models, _ := cmd.Flags().GetStringSlice("models")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	sel, err := evalstat.Select(s, models, exclude)
	if err != nil {
		return nil, err
	}
	if len(sel) == 0 {
		return nil, errors.New("no models to report")
	}
	return newReport(graph, s, sel)
}

func newReport(graph string, s evalstore.Store, models []string) (*report, error) {
	r := &report{graph: graph}
	var err error
	switch graph {
	case "cost":
		r.costs, err = evalstat.CostSummary(s, models)
	case "runtime":
		r.runtimes, err = evalstat.RuntimeSummary(s, models)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *report) plot() (*plot.Plot, int, error) {
	if r.graph == "cost" {
		p, err := evalstat.CostChart(r.costs)
		return p, len(r.costs), err
	}
	p, err := evalstat.RuntimeChart(r.runtimes)
	return p, len(r.runtimes), err
}

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a comparison of the extractors as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadReport(cmd)
			if err != nil {
				return err
			}
			asCSV, _ := cmd.Flags().GetBool("csv")
			w := cmd.OutOrStdout()
			switch {
			case r.graph == "cost" && asCSV:
				return evalstat.FormatCostCSV(w, r.costs)
			case r.graph == "cost":
				return evalstat.FormatCostText(w, r.costs)
			case asCSV:
				return evalstat.FormatRuntimeCSV(w, r.runtimes)
			default:
				return evalstat.FormatRuntimeText(w, r.runtimes)
			}
		},
	}
	addReportFlags(cmd)
	cmd.Flags().Bool("csv", false, "print CSV instead of an aligned table")
	return cmd
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw a comparison of the extractors as a PNG chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return errors.New("no output file given")
			}
			r, err := loadReport(cmd)
			if err != nil {
				return err
			}
			p, n, err := r.plot()
			if err != nil {
				return err
			}
			width, height := evalstat.ChartSize(n)
			if w, _ := cmd.Flags().GetFloat64("width"); w > 0 {
				width = w
			}
			if h, _ := cmd.Flags().GetFloat64("height"); h > 0 {
				height = h
			}
			return evalstat.WritePNG(p, out, width, height)
		},
	}
	addReportFlags(cmd)
	cmd.Flags().String("out", "", "write the chart to PNG `file`")
	cmd.Flags().Float64("width", 0, "chart width in centimeters (0 = fit to the number of models)")
	cmd.Flags().Float64("height", 0, "chart height in centimeters (0 = fit to the width)")
	return cmd
}
