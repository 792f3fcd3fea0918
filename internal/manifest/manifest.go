// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package manifest reads batch aggregation manifests.
//
// A manifest names the datasets of a batch and where their aggregate
// is kept. It may be written in TOML:
//
//	dst = "aggregate.json"
//
//	[[dataset]]
//	model = "bert"
//	path = "bert.jsonl"
//
// or in YAML, with the same keys. Relative paths are resolved against
// the directory holding the manifest.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Drivers lists the database drivers a manifest may name.
var Drivers = []string{"sqlite3", "mysql"}

// A Manifest describes one aggregation batch.
type Manifest struct {
	// Dst is the aggregate JSON file. It is mutually exclusive with
	// Store.
	Dst   string  `toml:"dst" yaml:"dst"`
	Store *Store  `toml:"store" yaml:"store"`
	Data  []Entry `toml:"dataset" yaml:"dataset"`
}

// A Store names a database holding the aggregate.
type Store struct {
	Driver string `toml:"driver" yaml:"driver"`
	DSN    string `toml:"dsn" yaml:"dsn"`
}

// An Entry is one model and the dataset to aggregate for it.
type Entry struct {
	Model string `toml:"model" yaml:"model"`
	Path  string `toml:"path" yaml:"path"`
}

// Models returns the model of each entry, in order.
func (m *Manifest) Models() []string {
	out := make([]string, len(m.Data))
	for i, e := range m.Data {
		out[i] = e.Model
	}
	return out
}

// Datasets returns the dataset path of each entry, in order.
func (m *Manifest) Datasets() []string {
	out := make([]string, len(m.Data))
	for i, e := range m.Data {
		out[i] = e.Path
	}
	return out
}

// Validate checks m for missing or conflicting settings. It returns
// all problems found, joined together.
func (m *Manifest) Validate() error {
	var errs []error

	switch {
	case m.Dst == "" && m.Store == nil:
		errs = append(errs, errors.New("one of dst or store must be set"))
	case m.Dst != "" && m.Store != nil:
		errs = append(errs, errors.New("dst and store are mutually exclusive"))
	}
	if m.Store != nil {
		if !knownDriver(m.Store.Driver) {
			errs = append(errs, fmt.Errorf("store.driver must be one of %s", strings.Join(Drivers, ", ")))
		}
		if m.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn must not be empty"))
		}
	}

	if len(m.Data) == 0 {
		errs = append(errs, errors.New("no datasets"))
	}
	for i, e := range m.Data {
		if e.Model == "" {
			errs = append(errs, fmt.Errorf("dataset %d: model must not be empty", i+1))
		}
		if e.Path == "" {
			errs = append(errs, fmt.Errorf("dataset %d: path must not be empty", i+1))
		}
	}

	return errors.Join(errs...)
}

func knownDriver(name string) bool {
	for _, d := range Drivers {
		if name == d {
			return true
		}
	}
	return false
}

// Load reads and validates the manifest at path. The format is chosen
// by the file extension: ".toml", ".yaml" or ".yml". Unknown keys are
// an error.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	switch ext := filepath.Ext(path); ext {
	case ".toml":
		meta, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, fmt.Errorf("manifest: decode %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("manifest: unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("manifest: decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("manifest: %s: unsupported format %q", path, ext)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	m.resolve(filepath.Dir(path))
	return &m, nil
}

// resolve makes the file paths in m relative to dir. Store DSNs are
// passed to the driver as written.
func (m *Manifest) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	m.Dst = abs(m.Dst)
	for i := range m.Data {
		m.Data[i].Path = abs(m.Data[i].Path)
	}
}
