// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evalstat

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/tamago-eval/solverstat/evalfmt"
	"github.com/tamago-eval/solverstat/internal/texttab"
)

// fmtRatio formats a normalized cost the way the charts label bars.
func fmtRatio(x float64) string {
	if math.IsNaN(x) {
		return "-"
	}
	return fmt.Sprintf("%.2f", x)
}

func fmtTime(x float64) string {
	if math.IsNaN(x) {
		return "-"
	}
	return strconv.FormatFloat(x, 'g', 4, 64)
}

// FormatCostText writes costs to w as an aligned text table.
func FormatCostText(w io.Writer, costs []Cost) error {
	var t texttab.Table
	t.Row().Cell("model").AlignedCell("iter", texttab.Right).
		AlignedCell("lp runs", texttab.Right).AlignedCell("ilp runs", texttab.Right).
		AlignedCell("lp opt", texttab.Right).AlignedCell("ilp opt", texttab.Right).
		AlignedCell("rounded", texttab.Right)
	for _, c := range costs {
		t.Row().Cell(c.Model).AlignedCell(strconv.Itoa(c.Iter), texttab.Right).
			AlignedCell(strconv.Itoa(c.LPRuns), texttab.Right).
			AlignedCell(strconv.Itoa(c.ILPRuns), texttab.Right).
			AlignedCell(fmtRatio(c.LPOpt), texttab.Right).
			AlignedCell(fmtRatio(c.ILPOpt), texttab.Right).
			AlignedCell(fmtRatio(c.Rounded), texttab.Right)
	}
	return t.Format(w)
}

// FormatCostCSV writes costs to w in CSV form, with full precision.
func FormatCostCSV(w io.Writer, costs []Cost) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"model", "iter", "lp_runs", "ilp_runs", "lp_opt", "ilp_opt", "rounded"})
	for _, c := range costs {
		cw.Write([]string{
			c.Model,
			strconv.Itoa(c.Iter),
			strconv.Itoa(c.LPRuns),
			strconv.Itoa(c.ILPRuns),
			strconv.FormatFloat(c.LPOpt, 'g', -1, 64),
			strconv.FormatFloat(c.ILPOpt, 'g', -1, 64),
			strconv.FormatFloat(c.Rounded, 'g', -1, 64),
		})
	}
	cw.Flush()
	return cw.Error()
}

// FormatRuntimeText writes one row per model and extractor to w as an
// aligned text table.
func FormatRuntimeText(w io.Writer, rs []Runtime) error {
	var t texttab.Table
	t.Row().Cell("model").AlignedCell("iter", texttab.Right).Cell("algorithm").
		AlignedCell("n", texttab.Right)
	for _, h := range []string{"min", "q1", "median", "q3", "max"} {
		t.AlignedCell(h, texttab.Right)
	}
	for _, r := range rs {
		for _, alg := range evalfmt.Algorithms {
			d := r.dist(alg)
			t.Row().Cell(r.Model).AlignedCell(strconv.Itoa(r.Iter), texttab.Right).
				Cell(string(alg)).AlignedCell(strconv.Itoa(len(d.Values)), texttab.Right)
			for _, x := range []float64{d.Min, d.Q1, d.Median, d.Q3, d.Max} {
				t.AlignedCell(fmtTime(x), texttab.Right)
			}
		}
	}
	return t.Format(w)
}

// FormatRuntimeCSV writes one row per model and extractor to w in CSV
// form.
func FormatRuntimeCSV(w io.Writer, rs []Runtime) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"model", "iter", "algorithm", "n", "min", "q1", "median", "q3", "max"})
	for _, r := range rs {
		for _, alg := range evalfmt.Algorithms {
			d := r.dist(alg)
			row := []string{r.Model, strconv.Itoa(r.Iter), string(alg), strconv.Itoa(len(d.Values))}
			for _, x := range []float64{d.Min, d.Q1, d.Median, d.Q3, d.Max} {
				row = append(row, strconv.FormatFloat(x, 'g', -1, 64))
			}
			cw.Write(row)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Runtime) dist(alg evalfmt.Algorithm) Dist {
	if alg == evalfmt.LP {
		return r.LP
	}
	return r.ILP
}
