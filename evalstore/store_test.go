// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evalstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tamago-eval/solverstat/evalfmt"
	"github.com/tamago-eval/solverstat/evalseries"
)

func dataset(t *testing.T, base float64, iters ...int) evalseries.Dataset {
	t.Helper()
	var recs []*evalfmt.Record
	for _, iter := range iters {
		for _, alg := range evalfmt.Algorithms {
			r := &evalfmt.Record{NumIter: iter, Algorithm: alg, Values: make(map[string]float64)}
			for i, m := range evalfmt.Metrics {
				r.Values[m] = base + float64(iter*10+i)
			}
			recs = append(recs, r)
		}
	}
	d, err := evalseries.Reshape(recs)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestUpsert(t *testing.T) {
	d1 := dataset(t, 0, 1, 2)
	d2 := dataset(t, 100, 10)
	s := Store{"bert": d1}

	got := Upsert(s, "resnet50", d2)
	if diff := cmp.Diff(Store{"bert": d1, "resnet50": d2}, got); diff != "" {
		t.Errorf("Upsert (-want +got):\n%s", diff)
	}
	if len(s) != 1 {
		t.Errorf("Upsert modified its input: %v", s.Models())
	}

	// Isolation: binding one model leaves the others alone.
	if diff := cmp.Diff(d1, got["bert"]); diff != "" {
		t.Errorf("Upsert changed bert (-want +got):\n%s", diff)
	}

	// Idempotence.
	once := Upsert(s, "resnet50", d2)
	twice := Upsert(once, "resnet50", d2)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Upsert not idempotent (-once +twice):\n%s", diff)
	}

	// Last write wins, with no merge of the old entry.
	replaced := Upsert(got, "bert", d2)
	if diff := cmp.Diff(d2, replaced["bert"]); diff != "" {
		t.Errorf("Upsert did not replace bert (-want +got):\n%s", diff)
	}

	if got := Upsert(nil, "m", d1); len(got) != 1 {
		t.Errorf("Upsert(nil) = %v", got)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aggregate.json")

	for _, s := range []Store{
		{},
		{"bert": dataset(t, 0, 1)},
		{"bert": dataset(t, 0, 1, 2, 10), "nasrnn": dataset(t, 5, 3), "empty": evalseries.Dataset{}},
	} {
		if err := Save(s, path); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if diff := cmp.Diff(s, got); diff != "" {
			t.Errorf("round trip (-saved +loaded):\n%s", diff)
		}
	}

	// Only the aggregate remains; temporary files were renamed away.
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 1 || ents[0].Name() != "aggregate.json" {
		var names []string
		for _, e := range ents {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only aggregate.json", names)
	}
}

func TestEncodeStable(t *testing.T) {
	a, b := dataset(t, 1, 1), dataset(t, 0, 2, 10)
	first, err := Encode(Upsert(Upsert(nil, "a", a), "b", b))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := Encode(Upsert(Upsert(nil, "b", b), "a", a))
		if err != nil {
			t.Fatal(err)
		}
		if string(again) != string(first) {
			t.Fatalf("encoding not stable:\n%s\n%s", first, again)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s == nil || len(s) != 0 {
		t.Errorf("Load of missing file = %v, want empty store", s)
	}
}

func TestLoadUnreadable(t *testing.T) {
	// A directory exists but cannot be read as a file.
	_, err := Load(t.TempDir())
	var perr *fs.PathError
	if !errors.As(err, &perr) {
		t.Fatalf("want *fs.PathError, got %v", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	for _, test := range []struct {
		name, data, model string
	}{
		{"empty", "", ""},
		{"array", "[]", ""},
		{"null", "null", ""},
		{"truncated", `{"bert":{"1":`, ""},
		{"bad iteration key", `{"bert":{"one":{"ilp":{},"lp":{}}}}`, ""},
		{"ragged", `{"bert":{"1":{"ilp":{"num_nodes":[1,2],"num_classes":[1],"num_programs":[1],"solve_time":[1],"obj_start":[1],"obj_opt":[1],"obj_ext":[1]},"lp":{}}}}`, "bert"},
		{"null dataset", `{"bert":null}`, "bert"},
		{"null cohort", `{"bert":{"1":null}}`, "bert"},
		{"null value", `{"bert":{"1":{"ilp":{"num_nodes":[1,null],"num_classes":[1,1],"num_programs":[1,1],"solve_time":[1,1],"obj_start":[1,1],"obj_opt":[1,1],"obj_ext":[1,1]},"lp":{}}}}`, ""},
	} {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "aggregate.json")
			if err := os.WriteFile(path, []byte(test.data), 0666); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			var cerr *CorruptError
			if !errors.As(err, &cerr) {
				t.Fatalf("want *CorruptError, got %v", err)
			}
			if cerr.Path != path || cerr.Model != test.model {
				t.Errorf("CorruptError at %s model %q, want %s model %q", cerr.Path, cerr.Model, path, test.model)
			}
		})
	}
}

func TestLoadLegacy(t *testing.T) {
	// Older tools left an algorithm with no observations as {}.
	path := filepath.Join(t.TempDir(), "aggregate.json")
	data := `{"bert":{"1":{"ilp":{},"lp":{}},"10":{"ilp":{"num_nodes":[1],"num_classes":[1],"num_programs":[1],"solve_time":[1],"obj_start":[1],"obj_opt":[1],"obj_ext":[1]},"lp":{}}}}`
	if err := os.WriteFile(path, []byte(data), 0666); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := s["bert"]
	if max, _ := d.MaxIter(); max != 10 {
		t.Errorf("MaxIter = %d, want 10", max)
	}
	if n := d.Count(10, evalfmt.ILP); n != 1 {
		t.Errorf("Count(10, ilp) = %d, want 1", n)
	}
	if vs := d[1][evalfmt.LP][evalfmt.ObjOpt]; vs == nil || len(vs) != 0 {
		t.Errorf("lp obj_opt at 1 = %v, want empty series", vs)
	}
}

func TestSaveFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "aggregate.json")
	err := Save(Store{}, path)
	var perr *fs.PathError
	if !errors.As(err, &perr) {
		t.Fatalf("want *fs.PathError, got %v", err)
	}
}
