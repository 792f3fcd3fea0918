// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package evalseries groups evaluation records into per-iteration,
// per-algorithm metric series.
package evalseries

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tamago-eval/solverstat/evalfmt"
)

// Metrics maps a metric name to the values observed for it, in source
// record order.
type Metrics map[string][]float64

// UnmarshalJSON decodes m, rejecting null values inside a series. A
// null series decodes to a nil slice, which Dataset.Check reports.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var raw map[string][]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*m = nil
		return nil
	}
	out := make(Metrics, len(raw))
	for name, vs := range raw {
		if vs == nil {
			out[name] = nil
			continue
		}
		xs := make([]float64, len(vs))
		for i, v := range vs {
			if v == nil {
				return fmt.Errorf("metric %s: value %d is null", name, i)
			}
			xs[i] = *v
		}
		out[name] = xs
	}
	*m = out
	return nil
}

// A Cohort holds the metric series of every algorithm at one
// iteration count.
type Cohort map[evalfmt.Algorithm]Metrics

// A Dataset maps iteration counts to cohorts.
//
// Every cohort in a Dataset built by a Builder has an entry for each
// of evalfmt.Algorithms, and every entry has a series for each of
// evalfmt.Metrics, even if no record reported that algorithm at that
// iteration. Within one (iteration, algorithm) pair all series have
// the same length.
//
// A Dataset encodes to JSON as an object keyed by the decimal
// iteration count.
type Dataset map[int]Cohort

func newMetrics() Metrics {
	m := make(Metrics, len(evalfmt.Metrics))
	for _, name := range evalfmt.Metrics {
		m[name] = []float64{}
	}
	return m
}

func newCohort() Cohort {
	c := make(Cohort, len(evalfmt.Algorithms))
	for _, alg := range evalfmt.Algorithms {
		c[alg] = newMetrics()
	}
	return c
}

// A Builder collects evaluation records into a Dataset.
type Builder struct {
	data Dataset
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{data: make(Dataset)}
}

// Add appends every metric of rec to the series for rec's iteration
// count and algorithm.
//
// If rec names an unknown algorithm or lacks a metric, Add returns the
// *evalfmt.SchemaError from rec.Check and leaves b unchanged.
func (b *Builder) Add(rec *evalfmt.Record) error {
	if err := rec.Check(); err != nil {
		return err
	}
	c := b.data[rec.NumIter]
	if c == nil {
		c = newCohort()
		b.data[rec.NumIter] = c
	}
	m := c[rec.Algorithm]
	for _, name := range evalfmt.Metrics {
		m[name] = append(m[name], rec.Values[name])
	}
	return nil
}

// Dataset returns the accumulated Dataset and resets b to empty.
func (b *Builder) Dataset() Dataset {
	d := b.data
	b.data = make(Dataset)
	return d
}

// Reshape groups recs into a Dataset.
//
// If any record fails validation, Reshape returns its error and a nil
// Dataset; no partial result is produced.
func Reshape(recs []*evalfmt.Record) (Dataset, error) {
	b := NewBuilder()
	for _, rec := range recs {
		if err := b.Add(rec); err != nil {
			return nil, err
		}
	}
	return b.Dataset(), nil
}

// ReshapeFile loads the evaluation file at path and reshapes it.
func ReshapeFile(path string) (Dataset, error) {
	recs, err := evalfmt.Load(path)
	if err != nil {
		return nil, err
	}
	return Reshape(recs)
}

// Iters returns the iteration counts in d in increasing numeric order.
func (d Dataset) Iters() []int {
	iters := make([]int, 0, len(d))
	for i := range d {
		iters = append(iters, i)
	}
	sort.Ints(iters)
	return iters
}

// MaxIter returns the largest iteration count in d, which consumers
// treat as the most converged one. ok is false if d is empty.
func (d Dataset) MaxIter() (iter int, ok bool) {
	for i := range d {
		if !ok || i > iter {
			iter, ok = i, true
		}
	}
	return
}

// Latest returns the cohort at MaxIter.
func (d Dataset) Latest() (Cohort, bool) {
	i, ok := d.MaxIter()
	if !ok {
		return nil, false
	}
	return d[i], true
}

// Count returns the number of observations of alg at iteration iter.
func (d Dataset) Count(iter int, alg evalfmt.Algorithm) int {
	m := d[iter][alg]
	if m == nil {
		return 0
	}
	return len(m[evalfmt.Metrics[0]])
}

// Clone returns a deep copy of d.
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	out := make(Dataset, len(d))
	for i, c := range d {
		nc := make(Cohort, len(c))
		for alg, m := range c {
			nm := make(Metrics, len(m))
			for name, vs := range m {
				nm[name] = append([]float64{}, vs...)
			}
			nc[alg] = nm
		}
		out[i] = nc
	}
	return out
}

// FillEmpty adds empty series for every algorithm that has no metrics
// at some iteration in d, so that d satisfies Check. Aggregates written
// by older tools left such entries as empty objects.
func (d Dataset) FillEmpty() {
	for _, c := range d {
		if c == nil {
			continue
		}
		for _, alg := range evalfmt.Algorithms {
			if len(c[alg]) == 0 {
				c[alg] = newMetrics()
			}
		}
	}
}

// Check verifies that d has the shape a Builder produces: every
// cohort has exactly the known algorithms, every algorithm has exactly
// the known metrics, and series within an algorithm have equal
// lengths. It is used to validate datasets read back from storage.
func (d Dataset) Check() error {
	for _, i := range d.Iters() {
		c := d[i]
		if c == nil {
			return fmt.Errorf("iteration %d: cohort is null", i)
		}
		if len(c) != len(evalfmt.Algorithms) {
			return fmt.Errorf("iteration %d: have %d algorithms, want %d", i, len(c), len(evalfmt.Algorithms))
		}
		for _, alg := range evalfmt.Algorithms {
			m, ok := c[alg]
			if !ok {
				return fmt.Errorf("iteration %d: missing algorithm %s", i, alg)
			}
			if len(m) != len(evalfmt.Metrics) {
				return fmt.Errorf("iteration %d, %s: have %d metrics, want %d", i, alg, len(m), len(evalfmt.Metrics))
			}
			n := -1
			for _, name := range evalfmt.Metrics {
				vs, ok := m[name]
				if !ok {
					return fmt.Errorf("iteration %d, %s: missing metric %s", i, alg, name)
				}
				if vs == nil {
					return fmt.Errorf("iteration %d, %s: metric %s is null", i, alg, name)
				}
				if n >= 0 && len(vs) != n {
					return fmt.Errorf("iteration %d, %s: metric %s has %d values, want %d", i, alg, name, len(vs), n)
				}
				n = len(vs)
			}
		}
	}
	return nil
}
