// Package storage
// Author: momentics <momentics@gmail.com>

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/momentics/relaybot/api"
)

var _ api.Backend[struct{}] = (*SQLiteBackend[struct{}])(nil)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS state (
		name       TEXT PRIMARY KEY,
		blob       BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`
	sqliteSelect = `SELECT blob FROM state WHERE name = ?`
	sqliteUpsert = `INSERT INTO state (name, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`
)

// SQLiteBackend stores the state as one row of a SQLite table.
type SQLiteBackend[S any] struct {
	db   *sql.DB
	name string
}

// NewSQLiteBackend opens the database file at path and ensures the schema.
func NewSQLiteBackend[S any](path, name string) (*SQLiteBackend[S], error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema in %s: %w", path, err)
	}
	return &SQLiteBackend[S]{db: db, name: name}, nil
}

// Load reads the row named after the backend.
func (b *SQLiteBackend[S]) Load() (S, error) {
	var data []byte
	if err := b.db.QueryRow(sqliteSelect, b.name).Scan(&data); err != nil {
		var zero S
		if errors.Is(err, sql.ErrNoRows) {
			return zero, fmt.Errorf("%s: %w", b.name, api.ErrStateNotFound)
		}
		return zero, fmt.Errorf("%s: %w", b.name, err)
	}
	return Decode[S](data)
}

// Save upserts the row.
func (b *SQLiteBackend[S]) Save(state *S) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if _, err := b.db.Exec(sqliteUpsert, b.name, data, time.Now().Unix()); err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	return nil
}

// Close closes the database handle.
func (b *SQLiteBackend[S]) Close() error {
	return b.db.Close()
}
