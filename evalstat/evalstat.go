// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package evalstat summarizes an evaluation aggregate for reporting.
//
// Every summary reads a model's most converged cohort, the one at the
// largest iteration count, and compares the ILP and LP extractors
// there.
package evalstat

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/tamago-eval/solverstat/evalfmt"
	"github.com/tamago-eval/solverstat/evalseries"
	"github.com/tamago-eval/solverstat/evalstore"
)

// Select returns the models of s to report on.
//
// If models is non-empty, exactly those are returned, in that order,
// and each must be present in s. Otherwise every model in s is
// returned in sorted order. Models named in exclude are dropped in
// either case.
func Select(s evalstore.Store, models, exclude []string) ([]string, error) {
	skip := make(map[string]bool, len(exclude))
	for _, m := range exclude {
		skip[m] = true
	}
	if len(models) == 0 {
		models = s.Models()
	}
	var out []string
	for _, m := range models {
		if _, ok := s[m]; !ok {
			return nil, fmt.Errorf("model %s not in aggregate", m)
		}
		if !skip[m] {
			out = append(out, m)
		}
	}
	return out, nil
}

// latest returns the cohort at the largest iteration count of model.
func latest(s evalstore.Store, model string) (int, evalseries.Cohort, error) {
	d := s[model]
	iter, ok := d.MaxIter()
	if !ok {
		return 0, nil, fmt.Errorf("model %s has no observations", model)
	}
	return iter, d[iter], nil
}

// A Cost is the mean cost of extracted programs for one model,
// normalized by the cost of the input program.
type Cost struct {
	Model string
	Iter  int // iteration count the costs were taken at

	LPRuns, ILPRuns int

	LPOpt   float64 // mean obj_opt/obj_start of LP runs
	ILPOpt  float64 // mean obj_opt/obj_start of ILP runs
	Rounded float64 // mean obj_ext/obj_start of LP runs
}

// CostSummary computes a Cost for each of models.
func CostSummary(s evalstore.Store, models []string) ([]Cost, error) {
	var out []Cost
	for _, model := range models {
		iter, c, err := latest(s, model)
		if err != nil {
			return nil, err
		}
		lp, ilp := c[evalfmt.LP], c[evalfmt.ILP]
		out = append(out, Cost{
			Model:   model,
			Iter:    iter,
			LPRuns:  len(lp[evalfmt.ObjStart]),
			ILPRuns: len(ilp[evalfmt.ObjStart]),
			LPOpt:   mean(ratios(lp[evalfmt.ObjOpt], lp[evalfmt.ObjStart])),
			ILPOpt:  mean(ratios(ilp[evalfmt.ObjOpt], ilp[evalfmt.ObjStart])),
			Rounded: mean(ratios(lp[evalfmt.ObjExt], lp[evalfmt.ObjStart])),
		})
	}
	return out, nil
}

// ratios returns num[i]/den[i] for each i.
func ratios(num, den []float64) []float64 {
	n := len(num)
	if len(den) < n {
		n = len(den)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = num[i] / den[i]
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stats.Mean(xs)
}

// A Dist summarizes a distribution of solve times.
type Dist struct {
	Values []float64 // sorted

	Min, Q1, Median, Q3, Max float64
}

// NewDist summarizes xs. The quantiles of an empty sample are NaN.
func NewDist(xs []float64) Dist {
	vs := append([]float64(nil), xs...)
	sort.Float64s(vs)
	d := Dist{Values: vs}
	if len(vs) == 0 {
		nan := math.NaN()
		d.Min, d.Q1, d.Median, d.Q3, d.Max = nan, nan, nan, nan, nan
		return d
	}
	sample := stats.Sample{Xs: vs, Sorted: true}
	d.Min, d.Max = stats.Bounds(vs)
	d.Q1 = sample.Quantile(0.25)
	d.Median = sample.Quantile(0.5)
	d.Q3 = sample.Quantile(0.75)
	return d
}

// A Runtime holds the solve-time distributions of both extractors for
// one model.
type Runtime struct {
	Model string
	Iter  int

	LP, ILP Dist
}

// RuntimeSummary computes a Runtime for each of models.
func RuntimeSummary(s evalstore.Store, models []string) ([]Runtime, error) {
	var out []Runtime
	for _, model := range models {
		iter, c, err := latest(s, model)
		if err != nil {
			return nil, err
		}
		out = append(out, Runtime{
			Model: model,
			Iter:  iter,
			LP:    NewDist(c[evalfmt.LP][evalfmt.SolveTime]),
			ILP:   NewDist(c[evalfmt.ILP][evalfmt.SolveTime]),
		})
	}
	return out, nil
}
