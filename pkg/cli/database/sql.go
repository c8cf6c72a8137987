/* Copyright 2025 LitRift Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package database wraps the local SQLite database of a device
package database

import (
	"database/sql"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLCommon is the interface shared by a connection and a transaction
type SQLCommon interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// DB is a connection to the local database, or a transaction on it. Every
// statement on a DB returned by Begin runs inside that transaction.
type DB struct {
	Conn *sql.DB
	Tx   *sql.Tx

	Filepath string
}

// Open opens a connection to the database at the given path. SQLite allows a
// single writer, so the pool holds one connection and concurrent callers
// queue for it.
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening db connection")
	}
	conn.SetMaxOpenConns(1)

	return &DB{Conn: conn, Filepath: dbPath}, nil
}

func (d *DB) common() SQLCommon {
	if d.Tx != nil {
		return d.Tx
	}

	return d.Conn
}

// Begin begins a transaction
func (d *DB) Begin() (*DB, error) {
	if d.Tx != nil {
		return nil, errors.New("a transaction is already in progress")
	}

	tx, err := d.Conn.Begin()
	if err != nil {
		return nil, err
	}

	return &DB{Conn: d.Conn, Tx: tx, Filepath: d.Filepath}, nil
}

// Commit commits the transaction
func (d *DB) Commit() error {
	if d.Tx == nil {
		return errors.New("not in a transaction")
	}

	return d.Tx.Commit()
}

// Rollback rolls back the transaction. It is a no-op if the transaction is
// already finished.
func (d *DB) Rollback() error {
	if d.Tx == nil {
		return errors.New("not in a transaction")
	}

	if err := d.Tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}

	return nil
}

// Exec executes a statement
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.common().Exec(query, args...)
}

// Query queries rows
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return d.common().Query(query, args...)
}

// QueryRow queries a single row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return d.common().QueryRow(query, args...)
}

// Close closes the connection
func (d *DB) Close() error {
	return d.Conn.Close()
}
