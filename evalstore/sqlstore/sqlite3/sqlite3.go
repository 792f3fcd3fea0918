// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlite3 registers the sqlite3 driver for use with sqlstore.
package sqlite3

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tamago-eval/solverstat/evalstore/sqlstore"
)

func init() {
	sqlstore.RegisterOpenHook("sqlite3", func(db *sql.DB) error {
		// Each sqlite connection to ":memory:" is a separate
		// database, and sqlite allows one writer at a time.
		db.SetMaxOpenConns(1)
		return db.Ping()
	})
}
