// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteSlot stores values in a single kv table.
type SQLiteSlot struct {
	db   *sql.DB
	path string
}

// OpenSQLiteSlot opens (or creates) the database at path. An empty path
// uses ~/.folio/folio.db.
func OpenSQLiteSlot(path string) (*SQLiteSlot, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, &SlotError{Op: "open", Message: "could not determine home directory", Err: err}
		}
		path = filepath.Join(home, ".folio", "folio.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, &SlotError{Op: "open", Message: "could not create database directory", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &SlotError{Op: "open", Message: "could not open database", Err: err}
	}
	// One connection keeps ":memory:" databases coherent and avoids
	// SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, &SlotError{Op: "open", Message: "pragma failed", Err: err}
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &SlotError{Op: "open", Message: "could not create schema", Err: err}
	}

	return &SQLiteSlot{db: db, path: path}, nil
}

// Path returns the database location.
func (s *SQLiteSlot) Path() string {
	return s.path
}

// Get implements Slot.
func (s *SQLiteSlot) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &SlotError{Op: "get", Key: key, Message: "query failed", Err: err}
	}
	return value, true, nil
}

// Set implements Slot.
func (s *SQLiteSlot) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return &SlotError{Op: "set", Key: key, Message: "write failed", Err: err}
	}
	return nil
}

// Remove implements Slot.
func (s *SQLiteSlot) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return &SlotError{Op: "remove", Key: key, Message: "delete failed", Err: err}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
