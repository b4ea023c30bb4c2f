// Package relstore is the Relational Store collaborator: an embedded SQL
// engine holding one mirror table per ingested CSV plus the LastModified
// bookkeeping table. It exposes a generic Query(sql) for tabular results and
// an Ingest operation for wholesale table replacement.
package relstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Engine owns the *sql.DB for one mount source. The Backend is the only
// component that constructs one; callers elsewhere only ever see Query.
type Engine struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and ensures
// foreign keys are enabled and the bookkeeping schema exists.
func Open(path string) (*Engine, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	e := &Engine{db: db}
	if err := e.createBookkeepingSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return e, nil
}

// Close releases the underlying database connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// DB exposes the raw connection. No package in this repository calls it;
// ingest and the LastModified helpers use the engine's connection directly,
// and stats goes through Backend.Query. The Backend is still the sole
// owner; this is not a copy of ownership.
func (e *Engine) DB() *sql.DB {
	return e.db
}

// createBookkeepingSchema creates LastModified(Id AUTOINCREMENT, FileName,
// TimeStamp) if absent, per §4.3.1 step 3.
func (e *Engine) createBookkeepingSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS LastModified (
    Id INTEGER PRIMARY KEY AUTOINCREMENT,
    FileName TEXT NOT NULL UNIQUE,
    TimeStamp TEXT NOT NULL
)`
	if _, err := e.db.Exec(ddl); err != nil {
		return fmt.Errorf("create LastModified table: %w", err)
	}
	return nil
}

// Result is the structured outcome of Query: a column list plus rows of
// generic values, directly usable for CSV rendering or JSON statistics.
type Result struct {
	Columns []string
	Rows    [][]interface{}
}

// Query executes sql and returns a tabular Result. This is relstore's only
// query surface; the Backend.query wrapper (§4.3.3) reduces any error from
// this call into a null marker before it ever reaches a caller outside the
// Backend.
func (e *Engine) Query(sqlText string, args ...interface{}) (*Result, error) {
	rows, err := e.db.Query(sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	rowData := make([][]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		rowData = append(rowData, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &Result{Columns: columns, Rows: rowData}, nil
}

// Exec runs a non-query statement (DDL, DML without result rows).
func (e *Engine) Exec(sqlText string, args ...interface{}) error {
	if _, err := e.db.Exec(sqlText, args...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Commit is a no-op placeholder matching §4.3.1 step 7's "commit the
// relational store": sql.DB auto-commits every statement issued outside an
// explicit transaction, so there is nothing additional to flush here, but
// the call site in Backend stays explicit about when reconciliation
// considers itself durable.
func (e *Engine) Commit() error {
	return nil
}

// now is overridable in tests; production code always uses time.Now.
var now = time.Now
