// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evalfmt

import (
	"math"
	"strings"
	"testing"
)

func TestWriter(t *testing.T) {
	var out strings.Builder
	w := NewWriter(&out)
	recs := []*Record{
		{NumIter: 1, Algorithm: ILP, Values: vals(5, 2, 3, 10, 100, 80, 85)},
		{NumIter: 10, Algorithm: LP, Values: map[string]float64{SolveTime: 0.25}},
		{NumIter: 2},
	}
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	want := ilpLine + "\n" +
		`{"num_iter":10,"algorithm":"lp","solve_time":0.25}` + "\n" +
		`{"num_iter":2}` + "\n"
	if got := out.String(); got != want {
		t.Errorf("want:\n%s\ngot:\n%s", want, got)
	}

	// What we wrote must read back the same.
	got, err := parseAll(t, out.String(), true)
	if err != nil {
		t.Fatalf("reading written records: %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("read back %d records, want %d", len(got), len(recs))
	}
	if got[0].Values[ObjExt] != 85 || got[1].NumIter != 10 {
		t.Errorf("read back %+v %+v", got[0], got[1])
	}
}

func TestWriterNaN(t *testing.T) {
	var out strings.Builder
	err := NewWriter(&out).Write(&Record{NumIter: 1, Values: map[string]float64{ObjOpt: math.NaN()}})
	if err == nil {
		t.Fatal("want error writing NaN")
	}
	if out.Len() != 0 {
		t.Errorf("wrote %q after error", out.String())
	}
}
