// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evalfmt

import "os"

// Load reads every record in the file at path, in line order.
//
// If the file cannot be opened, Load returns the *fs.PathError from
// os.Open. If any line is malformed, it returns the *SyntaxError or
// *SchemaError for the first such line and no records.
func Load(path string) ([]*Record, error) {
	return load(path, false)
}

// LoadStrict is like Load, but reports keys other than num_iter,
// algorithm and the known metrics as a *SchemaError.
func LoadStrict(path string) ([]*Record, error) {
	return load(path, true)
}

func load(path string, strict bool) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recs []*Record
	r := NewReader(f, path)
	r.Strict = strict
	for r.Scan() {
		recs = append(recs, r.Result())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}
