// Package file stores each slot as a JSON file in a data directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"expenses/internal/storage"
)

type Slot struct {
	mu   sync.Mutex
	name string
	path string
}

// New returns the slot backed by <dir>/<name>.json, creating dir if needed.
func New(dir, name string) (*Slot, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid slot name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Slot{name: name, path: filepath.Join(dir, name+".json")}, nil
}

func (s *Slot) Name() string { return s.name }

// Path is the file holding the payload.
func (s *Slot) Path() string { return s.path }

func (s *Slot) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(b) == 0 {
		return nil, storage.ErrSlotEmpty
	}
	return b, nil
}

// Write replaces the file atomically via a temp file and rename.
func (s *Slot) Write(_ context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+s.name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
