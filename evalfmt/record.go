// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package evalfmt reads and writes solver evaluation records.
//
// Each line of an evaluation file is an independent JSON object
// describing one solver run:
//
//	{"num_iter":1,"algorithm":"ilp","num_nodes":5,"num_classes":2,"num_programs":3,
//	 "solve_time":10,"obj_start":100,"obj_opt":80,"obj_ext":85}
//
// num_iter is the number of equality-saturation iterations applied
// before the solver ran. algorithm names the extraction method, either
// "ilp" (integer linear program) or "lp" (linear relaxation). The
// remaining keys are the metrics listed in Metrics.
package evalfmt

import "fmt"

// An Algorithm identifies the optimization method that produced a
// Record.
type Algorithm string

const (
	ILP Algorithm = "ilp"
	LP  Algorithm = "lp"
)

// Algorithms lists every known Algorithm in canonical order.
var Algorithms = []Algorithm{ILP, LP}

// Known reports whether a is one of Algorithms.
func (a Algorithm) Known() bool {
	return a == ILP || a == LP
}

// Metric names.
const (
	NumNodes    = "num_nodes"
	NumClasses  = "num_classes"
	NumPrograms = "num_programs"
	SolveTime   = "solve_time"
	ObjStart    = "obj_start"
	ObjOpt      = "obj_opt"
	ObjExt      = "obj_ext"
)

// Metrics lists the metrics every Record must report, in canonical
// order.
var Metrics = []string{
	NumNodes,
	NumClasses,
	NumPrograms,
	SolveTime,
	ObjStart,
	ObjOpt,
	ObjExt,
}

// IsMetric reports whether name is one of Metrics.
func IsMetric(name string) bool {
	for _, m := range Metrics {
		if m == name {
			return true
		}
	}
	return false
}

// A Record is a single solver-run observation.
//
// Records returned by a Reader are freshly allocated and may be
// retained by the caller. They should be treated as immutable.
type Record struct {
	// NumIter is the equality-saturation iteration count.
	NumIter int

	// Algorithm is the value of the "algorithm" key. It is not
	// checked by the Reader; see Check.
	Algorithm Algorithm

	// Values maps metric names to their values. Only metrics
	// present in the input are set.
	Values map[string]float64

	fileName string
	line     int
}

// Pos returns the file name and 1-based line number this record was
// read from. If the record was not read from a file, it returns "", 0.
func (r *Record) Pos() (fileName string, line int) {
	return r.fileName, r.line
}

// Value returns the value of the named metric and whether it was
// present.
func (r *Record) Value(metric string) (float64, bool) {
	v, ok := r.Values[metric]
	return v, ok
}

// Check reports whether r names a known algorithm and carries every
// metric in Metrics. If not, it returns a *SchemaError describing the
// first problem found.
func (r *Record) Check() error {
	if r.Algorithm == "" {
		return r.schemaError("algorithm", "missing algorithm")
	}
	if !r.Algorithm.Known() {
		return r.schemaError("algorithm", fmt.Sprintf("unrecognized algorithm %q", r.Algorithm))
	}
	for _, m := range Metrics {
		if _, ok := r.Values[m]; !ok {
			return r.schemaError(m, "missing metric "+m)
		}
	}
	return nil
}

func (r *Record) schemaError(field, msg string) *SchemaError {
	return &SchemaError{r.fileName, r.line, field, msg}
}

// A SyntaxError reports a line that is not a JSON object.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// A SchemaError reports a record that is valid JSON but does not
// describe a usable observation: a missing or malformed key, or an
// unrecognized algorithm.
type SchemaError struct {
	FileName string
	Line     int
	Field    string // offending key
	Msg      string
}

func (e *SchemaError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SchemaError) Error() string {
	if e.FileName == "" && e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}
