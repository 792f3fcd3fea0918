// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlstore keeps an evaluation aggregate in a SQL database.
//
// Each model is one row holding its JSON-encoded dataset. A DB
// implements evalstore.Backend, and Save replaces every row inside a
// single transaction, so concurrent readers see whole aggregates.
package sqlstore

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/tamago-eval/solverstat/evalseries"
	"github.com/tamago-eval/solverstat/evalstore"
)

// DB is a SQL-backed evalstore.Backend. It's safe for concurrent use
// by multiple goroutines.
type DB struct {
	sql    *sql.DB // underlying database connection
	source string  // for error messages

	// prepared statements
	selectModels *sql.Stmt
	insertModel  *sql.Stmt
}

var _ evalstore.Backend = (*DB)(nil)

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db, source: driverName + ":" + dataSourceName}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Models (
	Name VARCHAR(255) NOT NULL PRIMARY KEY,
	Dataset {{if .sqlite3}}BLOB{{else}}LONGBLOB{{end}} NOT NULL
);
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.selectModels, err = db.sql.Prepare("SELECT Name, Dataset FROM Models ORDER BY Name")
	if err != nil {
		return err
	}
	db.insertModel, err = db.sql.Prepare("INSERT INTO Models(Name, Dataset) VALUES (?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// Load returns every stored model. An empty database yields an empty
// Store. A row that does not decode to a valid dataset is reported as
// an *evalstore.CorruptError.
func (db *DB) Load() (evalstore.Store, error) {
	rows, err := db.selectModels.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := make(evalstore.Store)
	for rows.Next() {
		var name string
		var blob []byte
		if err := rows.Scan(&name, &blob); err != nil {
			return nil, err
		}
		var d evalseries.Dataset
		if err := json.Unmarshal(blob, &d); err != nil {
			return nil, &evalstore.CorruptError{Path: db.source, Model: name, Err: err}
		}
		if err := evalstore.CheckDataset(d); err != nil {
			return nil, &evalstore.CorruptError{Path: db.source, Model: name, Err: err}
		}
		s[name] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save replaces the stored models with s in one transaction.
func (db *DB) Save(s evalstore.Store) (err error) {
	tx, err := db.sql.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.Exec("DELETE FROM Models"); err != nil {
		return err
	}
	insert := tx.Stmt(db.insertModel)
	for _, name := range s.Models() {
		blob, err := json.Marshal(s[name])
		if err != nil {
			return fmt.Errorf("encoding model %s: %w", name, err)
		}
		if _, err := insert.Exec(name, blob); err != nil {
			return fmt.Errorf("inserting model %s: %w", name, err)
		}
	}
	return nil
}

// CountModels returns the number of stored models.
func (db *DB) CountModels() (int, error) {
	var n int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Models").Scan(&n)
	return n, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.selectModels.Close(); err != nil {
		return err
	}
	if err := db.insertModel.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
