// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package evalstore persists reshaped evaluation datasets for many
// models in a single aggregate.
//
// The aggregate is an explicit Store value. Callers Load it, bind a
// model with Upsert, and Save it back; nothing is cached between
// calls.
package evalstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/tamago-eval/solverstat/evalseries"
)

// A Store maps model names to their reshaped datasets.
//
// Datasets held by a Store are shared, not copied, and must not be
// modified.
type Store map[string]evalseries.Dataset

// Models returns the model names in s in sorted order.
func (s Store) Models() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Upsert returns a new Store equal to s with model bound to d,
// replacing any prior binding. s is not modified.
func Upsert(s Store, model string, d evalseries.Dataset) Store {
	out := make(Store, len(s)+1)
	for name, ds := range s {
		out[name] = ds
	}
	out[model] = d
	return out
}

// A CorruptError reports a persisted aggregate that could not be
// decoded or that holds a malformed dataset.
type CorruptError struct {
	Path  string // file or data source
	Model string // offending model, if known
	Err   error
}

func (e *CorruptError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s: model %s: %v", e.Path, e.Model, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Decode parses an encoded aggregate. source names the data in error
// messages. Datasets are normalized with FillEmpty and then checked.
func Decode(data []byte, source string) (Store, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, &CorruptError{Path: source, Err: errors.New("not a JSON object")}
	}
	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &CorruptError{Path: source, Err: err}
	}
	for _, name := range s.Models() {
		if err := CheckDataset(s[name]); err != nil {
			return nil, &CorruptError{Path: source, Model: name, Err: err}
		}
	}
	return s, nil
}

// CheckDataset normalizes a dataset read back from a backend with
// FillEmpty and checks its shape. A nil dataset is an error.
func CheckDataset(d evalseries.Dataset) error {
	if d == nil {
		return errors.New("dataset is null")
	}
	d.FillEmpty()
	return d.Check()
}

// Encode returns the JSON encoding of s. Model names and iteration
// counts are written in sorted order, so equal stores encode
// identically.
func Encode(s Store) ([]byte, error) {
	if s == nil {
		s = Store{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Load reads the aggregate at path. If no file exists at path, Load
// returns an empty Store. If the file exists but cannot be read, Load
// returns the *fs.PathError; if it cannot be decoded, a *CorruptError.
func Load(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Store{}, nil
		}
		return nil, err
	}
	return Decode(data, path)
}

// Save writes s to path, fully replacing its prior contents.
//
// Save writes to a temporary file in the same directory and renames
// it over path, so a concurrent reader sees either the old aggregate
// or the new one.
func Save(s Store, path string) error {
	data, err := Encode(s)
	if err != nil {
		return fmt.Errorf("encoding aggregate: %w", err)
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	// CreateTemp uses mode 0600; aggregates are meant to be shared.
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
