// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evalfmt

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
)

// A Writer writes evaluation records, one JSON object per line.
type Writer struct {
	w   io.Writer
	buf bytes.Buffer
}

// NewWriter returns a writer that writes evaluation records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes rec to w. Keys are written in canonical order:
// num_iter, algorithm, then each metric in Metrics that rec reports.
func (w *Writer) Write(rec *Record) error {
	w.buf.Reset()
	w.buf.WriteString(`{"num_iter":`)
	w.buf.WriteString(strconv.Itoa(rec.NumIter))
	if rec.Algorithm != "" {
		alg, err := json.Marshal(string(rec.Algorithm))
		if err != nil {
			return err
		}
		w.buf.WriteString(`,"algorithm":`)
		w.buf.Write(alg)
	}
	for _, m := range Metrics {
		v, ok := rec.Values[m]
		if !ok {
			continue
		}
		// json.Marshal rejects NaN and infinities.
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		w.buf.WriteString(`,"` + m + `":`)
		w.buf.Write(val)
	}
	w.buf.WriteString("}\n")

	_, err := w.w.Write(w.buf.Bytes())
	return err
}
