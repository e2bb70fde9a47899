// Package storage persists the ledger snapshot into a single named slot.
package storage

import (
	"context"
	"errors"
)

// ErrSlotEmpty is returned by Slot.Read when nothing has been written yet.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is one named cell of durable storage holding an opaque payload.
// Write replaces the previous payload entirely.
type Slot interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
}
