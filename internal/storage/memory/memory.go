// Package memory holds slot payloads in process memory.
package memory

import (
	"context"
	"sync"

	"expenses/internal/storage"
)

type Slot struct {
	mu      sync.Mutex
	name    string
	payload []byte
	writes  int
}

func New(name string) *Slot {
	return &Slot{name: name}
}

// NewWithPayload seeds the slot, e.g. with a snapshot under test.
func NewWithPayload(name string, payload []byte) *Slot {
	s := New(name)
	s.payload = append([]byte(nil), payload...)
	return s
}

func (s *Slot) Name() string { return s.name }

// Read returns a copy of the stored payload.
func (s *Slot) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return nil, storage.ErrSlotEmpty
	}
	return append([]byte(nil), s.payload...), nil
}

// Write replaces the payload with a copy of p.
func (s *Slot) Write(_ context.Context, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = append(make([]byte, 0, len(p)), p...)
	s.writes++
	return nil
}

// Writes reports how many times the slot has been written.
func (s *Slot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
