// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evalfmt

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const ilpLine = `{"num_iter":1,"algorithm":"ilp","num_nodes":5,"num_classes":2,"num_programs":3,"solve_time":10,"obj_start":100,"obj_opt":80,"obj_ext":85}`

func parseAll(t *testing.T, data string, strict bool) ([]*Record, error) {
	t.Helper()
	r := NewReader(strings.NewReader(data), "test")
	r.Strict = strict
	var out []*Record
	for r.Scan() {
		rec := r.Result()
		// Wipe position information for comparisons.
		rec.fileName = ""
		rec.line = 0
		out = append(out, rec)
	}
	return out, r.Err()
}

func vals(vs ...float64) map[string]float64 {
	m := make(map[string]float64)
	for i, v := range vs {
		m[Metrics[i]] = v
	}
	return m
}

func TestReader(t *testing.T) {
	for _, test := range []struct {
		name  string
		input string
		want  []*Record
	}{
		{
			"basic",
			ilpLine + "\n",
			[]*Record{{NumIter: 1, Algorithm: ILP, Values: vals(5, 2, 3, 10, 100, 80, 85)}},
		},
		{
			"no trailing newline",
			ilpLine,
			[]*Record{{NumIter: 1, Algorithm: ILP, Values: vals(5, 2, 3, 10, 100, 80, 85)}},
		},
		{
			"blank lines",
			"\n" + ilpLine + "\n   \n" + strings.Replace(ilpLine, `"ilp"`, `"lp"`, 1) + "\n\n",
			[]*Record{
				{NumIter: 1, Algorithm: ILP, Values: vals(5, 2, 3, 10, 100, 80, 85)},
				{NumIter: 1, Algorithm: LP, Values: vals(5, 2, 3, 10, 100, 80, 85)},
			},
		},
		{
			"iter as string",
			`{"num_iter":"12","algorithm":"lp","solve_time":1.5}`,
			[]*Record{{NumIter: 12, Algorithm: LP, Values: map[string]float64{SolveTime: 1.5}}},
		},
		{
			"iter as float",
			`{"num_iter":3.0,"algorithm":"lp"}`,
			[]*Record{{NumIter: 3, Algorithm: LP, Values: map[string]float64{}}},
		},
		{
			"iter as float string",
			`{"num_iter":" 4.0 "}`,
			[]*Record{{NumIter: 4, Values: map[string]float64{}}},
		},
		{
			"metric as string",
			`{"num_iter":1,"obj_opt":"2.5e3"}`,
			[]*Record{{NumIter: 1, Values: map[string]float64{ObjOpt: 2500}}},
		},
		{
			"unknown algorithm is not a reader error",
			`{"num_iter":1,"algorithm":"sat"}`,
			[]*Record{{NumIter: 1, Algorithm: "sat", Values: map[string]float64{}}},
		},
		{
			"extra keys ignored",
			`{"num_iter":1,"algorithm":"ilp","model":"bert","obj_opt":7}`,
			[]*Record{{NumIter: 1, Algorithm: ILP, Values: map[string]float64{ObjOpt: 7}}},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, err := parseAll(t, test.input, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(Record{})); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReaderErrors(t *testing.T) {
	for _, test := range []struct {
		name   string
		input  string
		strict bool
		syntax bool // want *SyntaxError, else *SchemaError
		field  string
		msg    string
	}{
		{"not json", "{not json}", false, true, "", "test:1: invalid character"},
		{"array", "[1,2]", false, true, "", "test:1: expected JSON object"},
		{"truncated", `{"num_iter":1`, false, true, "", "test:1: unexpected end of JSON input"},
		{"second line", ilpLine + "\nnope\n", false, true, "", "test:2: expected JSON object"},
		{"missing iter", `{"algorithm":"ilp"}`, false, false, "num_iter", "test:1: missing num_iter"},
		{"fractional iter", `{"num_iter":1.5}`, false, false, "num_iter", "test:1: parsing num_iter: 1.5 is not an integer"},
		{"word iter", `{"num_iter":"ten"}`, false, false, "num_iter", "test:1: parsing num_iter: ten is not a number"},
		{"bool iter", `{"num_iter":true}`, false, false, "num_iter", "test:1: parsing num_iter: true is not a number"},
		{"numeric algorithm", `{"num_iter":1,"algorithm":3}`, false, false, "algorithm", "test:1: algorithm must be a string"},
		{"null metric", `{"num_iter":1,"obj_opt":null}`, false, false, "obj_opt", "test:1: parsing obj_opt: null is not a number"},
		{"word metric", `{"num_iter":1,"obj_opt":"lots"}`, false, false, "obj_opt", `test:1: parsing obj_opt: "lots" is not a number`},
		{"nan metric", `{"num_iter":1,"obj_opt":"NaN"}`, false, false, "obj_opt", `test:1: parsing obj_opt: "NaN" is not finite`},
		{"strict extra key", `{"num_iter":1,"model":"bert"}`, true, false, "model", `test:1: unexpected key "model"`},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := parseAll(t, test.input, test.strict)
			if err == nil {
				t.Fatalf("want error, got nil")
			}
			if !strings.HasPrefix(err.Error(), test.msg) {
				t.Errorf("error %q, want prefix %q", err, test.msg)
			}
			var syn *SyntaxError
			var sch *SchemaError
			switch {
			case test.syntax:
				if !errors.As(err, &syn) {
					t.Errorf("want *SyntaxError, got %T", err)
				}
			case !errors.As(err, &sch):
				t.Errorf("want *SchemaError, got %T", err)
			case sch.Field != test.field:
				t.Errorf("SchemaError.Field = %q, want %q", sch.Field, test.field)
			}
		})
	}
}

func TestParseIterRange(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("large iteration counts need a 64-bit int")
	}
	for _, in := range []string{`3000000000`, `"3000000000"`, `3e9`, `3000000000.0`, `"3e9"`} {
		got, err := parseIter(json.RawMessage(in))
		if err != nil || got != 3000000000 {
			t.Errorf("parseIter(%s) = %d, %v, want 3000000000", in, got, err)
		}
	}
	for _, in := range []string{`10000000000000000000`, `1e19`, `-1e19`, `9223372036854775808`} {
		_, err := parseIter(json.RawMessage(in))
		if err == nil || !strings.HasSuffix(err.Error(), "out of range") {
			t.Errorf("parseIter(%s) error = %v, want out of range", in, err)
		}
	}
}

func TestReaderStopsAtError(t *testing.T) {
	r := NewReader(strings.NewReader(ilpLine+"\nbad\n"+ilpLine+"\n"), "test")
	n := 0
	for r.Scan() {
		n++
	}
	if n != 1 {
		t.Errorf("read %d records before error, want 1", n)
	}
	if r.Err() == nil {
		t.Fatal("want error")
	}
	if r.Scan() {
		t.Error("Scan after error returned true")
	}
	if r.Result() != nil {
		t.Error("Result after error is non-nil")
	}
}

func TestReaderPos(t *testing.T) {
	r := NewReader(strings.NewReader("\n"+ilpLine+"\n"), "evals.jsonl")
	if !r.Scan() {
		t.Fatalf("Scan failed: %v", r.Err())
	}
	file, line := r.Result().Pos()
	if file != "evals.jsonl" || line != 2 {
		t.Errorf("Pos() = %s:%d, want evals.jsonl:2", file, line)
	}
}

func TestCheck(t *testing.T) {
	full := vals(5, 2, 3, 10, 100, 80, 85)
	missing := vals(5, 2, 3, 10, 100, 80)
	for _, test := range []struct {
		rec   Record
		field string
	}{
		{Record{Algorithm: ILP, Values: full}, ""},
		{Record{Algorithm: LP, Values: full}, ""},
		{Record{Algorithm: "sat", Values: full}, "algorithm"},
		{Record{Values: full}, "algorithm"},
		{Record{Algorithm: LP, Values: missing}, ObjExt},
	} {
		err := test.rec.Check()
		if test.field == "" {
			if err != nil {
				t.Errorf("%+v: unexpected error %v", test.rec, err)
			}
			continue
		}
		var sch *SchemaError
		if !errors.As(err, &sch) {
			t.Errorf("%+v: want *SchemaError, got %v", test.rec, err)
			continue
		}
		if sch.Field != test.field {
			t.Errorf("%+v: Field = %q, want %q", test.rec, sch.Field, test.field)
		}
	}
}
