// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evalstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tamago-eval/solverstat/evalfmt"
	"github.com/tamago-eval/solverstat/evalseries"
)

// A Backend loads and saves a whole Store.
type Backend interface {
	// Load returns the persisted Store, or an empty Store if
	// nothing has been saved yet.
	Load() (Store, error)

	// Save replaces the persisted Store with s.
	Save(s Store) error
}

// File is a Backend that keeps the Store in a JSON file at the given
// path.
type File string

func (f File) Load() (Store, error) { return Load(string(f)) }
func (f File) Save(s Store) error    { return Save(s, string(f)) }

func (f File) String() string { return string(f) }

// An ArgumentError reports batch inputs of different lengths.
type ArgumentError struct {
	Models, Datasets int
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("unequal number of models (%d) and datasets (%d)", e.Models, e.Datasets)
}

// Options configures Aggregate.
type Options struct {
	// Logger receives one entry per processed pair. If nil,
	// nothing is logged.
	Logger *zap.Logger

	// Reshape loads and reshapes a dataset file. If nil,
	// evalseries.ReshapeFile is used.
	Reshape func(path string) (evalseries.Dataset, error)

	// Strict rejects dataset records with unexpected keys. It
	// applies only when Reshape is nil.
	Strict bool
}

// Aggregate merges each dataset file into b under the model name at
// the same index.
//
// Pairs are processed in order, and each is a complete cycle: the
// dataset is loaded and reshaped, the Store is loaded from b, the model
// is bound with Upsert, and the Store is saved back. If a pair fails,
// Aggregate stops and returns its error; pairs already processed stay
// saved.
//
// If models and datasets differ in length, Aggregate returns an
// *ArgumentError without touching b.
func Aggregate(b Backend, models, datasets []string, opts *Options) error {
	if len(models) != len(datasets) {
		return &ArgumentError{len(models), len(datasets)}
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Reshape == nil {
		o.Reshape = evalseries.ReshapeFile
		if o.Strict {
			o.Reshape = reshapeStrict
		}
	}

	for i, model := range models {
		dataset := datasets[i]
		log := o.Logger.With(zap.String("model", model), zap.String("dataset", dataset))
		log.Info("processing model")

		d, err := o.Reshape(dataset)
		if err != nil {
			return fmt.Errorf("model %s: %w", model, err)
		}
		s, err := b.Load()
		if err != nil {
			return fmt.Errorf("model %s: loading aggregate: %w", model, err)
		}
		s = Upsert(s, model, d)
		if err := b.Save(s); err != nil {
			return fmt.Errorf("model %s: saving aggregate: %w", model, err)
		}
		log.Debug("saved model",
			zap.Int("iterations", len(d)),
			zap.Int("models", len(s)))
	}
	return nil
}

func reshapeStrict(path string) (evalseries.Dataset, error) {
	recs, err := evalfmt.LoadStrict(path)
	if err != nil {
		return nil, err
	}
	return evalseries.Reshape(recs)
}
