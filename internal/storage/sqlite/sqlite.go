// Package sqlite keeps slot payloads in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"expenses/internal/storage"

	_ "modernc.org/sqlite"
)

const (
	readQuery  = `SELECT payload FROM slots WHERE name = ?`
	writeQuery = `INSERT INTO slots (name, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	updatedAtQuery = `SELECT updated_at FROM slots WHERE name = ?`
)

type Slot struct {
	db   *sql.DB
	name string
}

// Open opens (or creates) the database at dbPath, migrates it and returns
// the slot called name.
func Open(dbPath, name string) (*Slot, error) {
	if name == "" {
		return nil, errors.New("slot name is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writes and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Slot{db: db, name: name}, nil
}

func (s *Slot) Name() string { return s.name }

func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, readQuery, s.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", s.name, err)
	}
	return []byte(payload), nil
}

func (s *Slot) Write(ctx context.Context, payload []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, writeQuery, s.name, string(payload), now); err != nil {
		return fmt.Errorf("write slot %s: %w", s.name, err)
	}
	return nil
}

// UpdatedAt reports when the slot was last written.
func (s *Slot) UpdatedAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, updatedAtQuery, s.name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, storage.ErrSlotEmpty
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read slot timestamp: %w", err)
	}
	return time.Parse(time.RFC3339Nano, raw)
}

func (s *Slot) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
