// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evalfmt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// maxLineSize bounds the length of a single input line.
const maxLineSize = 16 << 20

// A Reader reads newline-delimited evaluation records.
//
// Its API is modeled on bufio.Scanner. Unlike the benchmark format,
// errors are fatal: the first malformed line stops the Reader, and
// Err reports it. Skipping a bad line would silently misalign the
// per-iteration metric sequences built from the records.
type Reader struct {
	// Strict causes keys other than num_iter, algorithm and the
	// known metrics to be reported as a *SchemaError. By default
	// they are ignored.
	Strict bool

	s        *bufio.Scanner
	fileName string
	line     int

	rec *Record
	err error
}

// NewReader constructs a reader to parse evaluation records from r.
// fileName is used in error messages; it is purely diagnostic.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to begin reading from a new input.
// It preserves Strict.
func (r *Reader) Reset(ior io.Reader, fileName string) {
	r.s = bufio.NewScanner(ior)
	r.s.Buffer(nil, maxLineSize)
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.fileName = fileName
	r.line = 0
	r.rec = nil
	r.err = nil
}

// Scan advances the reader to the next record and reports whether a
// record was read. The caller should use the Result method to get the
// record. If Scan reaches EOF or encounters an error, it returns
// false, and the caller should use the Err method to check for errors.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	r.rec = nil
	for r.s.Scan() {
		r.line++
		line := bytes.TrimSpace(r.s.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := r.parseLine(line)
		if err != nil {
			r.err = err
			return false
		}
		r.rec = rec
		return true
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
	}
	return false
}

// Result returns the record read by the last successful call to Scan,
// or nil if there is none.
func (r *Reader) Result() *Record {
	return r.rec
}

// Err returns the first error encountered by the Reader: a
// *SyntaxError, a *SchemaError, or an I/O error.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) syntaxError(msg string) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, msg}
}

func (r *Reader) schemaError(field, msg string) *SchemaError {
	return &SchemaError{r.fileName, r.line, field, msg}
}

// parseLine decodes a single JSON object into a Record.
func (r *Reader) parseLine(line []byte) (*Record, error) {
	if line[0] != '{' {
		return nil, r.syntaxError("expected JSON object")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(line, &obj); err != nil {
		return nil, r.syntaxError(err.Error())
	}

	rec := &Record{
		Values:   make(map[string]float64, len(Metrics)),
		fileName: r.fileName,
		line:     r.line,
	}

	raw, ok := obj["num_iter"]
	if !ok {
		return nil, r.schemaError("num_iter", "missing num_iter")
	}
	n, err := parseIter(raw)
	if err != nil {
		return nil, r.schemaError("num_iter", "parsing num_iter: "+err.Error())
	}
	rec.NumIter = n

	if raw, ok := obj["algorithm"]; ok {
		var alg string
		if err := json.Unmarshal(raw, &alg); err != nil {
			return nil, r.schemaError("algorithm", "algorithm must be a string")
		}
		rec.Algorithm = Algorithm(alg)
	}

	// Visit keys in sorted order so errors are deterministic.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "num_iter" || k == "algorithm" {
			continue
		}
		if !IsMetric(k) {
			if r.Strict {
				return nil, r.schemaError(k, fmt.Sprintf("unexpected key %q", k))
			}
			continue
		}
		v, err := parseValue(obj[k])
		if err != nil {
			return nil, r.schemaError(k, fmt.Sprintf("parsing %s: %s", k, err))
		}
		rec.Values[k] = v
	}
	return rec, nil
}

// unquote returns the contents of raw if it is a JSON string, or raw
// itself otherwise.
func unquote(raw json.RawMessage) (string, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	return string(raw), nil
}

// maxIntPlusOne is the smallest float64 above math.MaxInt. Unlike
// math.MaxInt it is exactly representable.
const maxIntPlusOne = -float64(math.MinInt)

// parseIter coerces an iteration count. Integers, integral floats,
// and strings holding either are accepted.
func parseIter(raw json.RawMessage) (int, error) {
	s, err := unquote(raw)
	if err != nil {
		return 0, err
	}
	if i, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number", s)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not an integer", s)
	}
	if f < math.MinInt || f >= maxIntPlusOne {
		return 0, fmt.Errorf("%s out of range", s)
	}
	return int(f), nil
}

// parseValue parses a metric value. JSON numbers and strings holding
// a number are accepted.
func parseValue(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("empty value")
	}
	switch c := raw[0]; {
	case c == '"':
	case c == '-' || (c >= '0' && c <= '9'):
	default:
		return 0, fmt.Errorf("%s is not a number", raw)
	}
	s, err := unquote(raw)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return f, nil
}
