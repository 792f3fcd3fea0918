// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"github.com/tamago-eval/solverstat/evalstore"
	"github.com/tamago-eval/solverstat/evalstore/sqlstore"
	_ "github.com/tamago-eval/solverstat/evalstore/sqlstore/sqlite3"
)

// addDBFlags adds the flags selecting a database-backed aggregate.
func addDBFlags(cmd *cobra.Command) {
	cmd.Flags().String("driver", "", "keep the aggregate in a database using `driver` (sqlite3 or mysql)")
	cmd.Flags().String("dsn", "", "database data source name, used with --driver")
}

// openBackend opens the aggregate kept in file, or, if driver is set,
// in the database named by driver and dsn. The returned close function
// must be called when the backend is no longer needed.
func openBackend(file, driver, dsn string) (evalstore.Backend, func() error, error) {
	if driver == "" {
		if dsn != "" {
			return nil, nil, errors.New("--dsn requires --driver")
		}
		if file == "" {
			return nil, nil, errors.New("no aggregate file given")
		}
		return evalstore.File(file), func() error { return nil }, nil
	}
	if dsn == "" {
		return nil, nil, errors.New("--driver requires --dsn")
	}
	db, err := sqlstore.OpenSQL(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return db, db.Close, nil
}

// loadStore reads the aggregate selected by cmd's flags.
func loadStore(cmd *cobra.Command) (evalstore.Store, error) {
	data, _ := cmd.Flags().GetString("data")
	driver, _ := cmd.Flags().GetString("driver")
	dsn, _ := cmd.Flags().GetString("dsn")
	if driver != "" && cmd.Flags().Changed("data") {
		return nil, errors.New("--data and --driver are mutually exclusive")
	}
	b, closeBackend, err := openBackend(data, driver, dsn)
	if err != nil {
		return nil, err
	}
	defer closeBackend()
	return b.Load()
}
