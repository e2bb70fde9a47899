package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

// ErrPersistenceWrite marks a snapshot that could not be written.
var ErrPersistenceWrite = errors.New("persistence write failed")

// WriteError reports a failed Save. The in-memory state it describes is
// still valid, only its durability is in question.
type WriteError struct {
	Slot string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write slot %q: %v", e.Slot, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrPersistenceWrite, e.Err}
}

// Adapter serializes the whole expense collection as a JSON array into a Slot.
type Adapter struct {
	slot   Slot
	logger *slog.Logger
}

func NewAdapter(slot Slot, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		slot:   slot,
		logger: logger.With(applog.FieldComponent, applog.ComponentStorage, applog.FieldSlot, slot.Name()),
	}
}

// Save overwrites the slot with records.
func (a *Adapter) Save(ctx context.Context, records []core.Expense) error {
	if records == nil {
		records = []core.Expense{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return &WriteError{Slot: a.slot.Name(), Err: fmt.Errorf("encode snapshot: %w", err)}
	}
	if err := a.slot.Write(ctx, payload); err != nil {
		return &WriteError{Slot: a.slot.Name(), Err: err}
	}
	a.logger.DebugContext(ctx, "Snapshot saved", applog.FieldCount, len(records), "bytes", len(payload))
	return nil
}

// Load reads the slot. A missing, unreadable or malformed snapshot yields an
// empty collection; the failure is logged, never returned. One invalid record
// makes the whole snapshot malformed.
func (a *Adapter) Load(ctx context.Context) []core.Expense {
	payload, err := a.slot.Read(ctx)
	if errors.Is(err, ErrSlotEmpty) {
		a.logger.InfoContext(ctx, "No snapshot found, starting with an empty ledger")
		return []core.Expense{}
	}
	if err != nil {
		a.logger.WarnContext(ctx, "Snapshot unreadable, starting with an empty ledger",
			applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeStorage)
		return []core.Expense{}
	}

	var records []core.Expense
	if err := json.Unmarshal(payload, &records); err != nil {
		a.logger.WarnContext(ctx, "Snapshot malformed, starting with an empty ledger",
			applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeCorrupt, "bytes", len(payload))
		return []core.Expense{}
	}
	for i, e := range records {
		if err := e.Validate(); err != nil {
			a.logger.WarnContext(ctx, "Snapshot malformed, starting with an empty ledger",
				applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeCorrupt, "record", i)
			return []core.Expense{}
		}
	}
	if records == nil {
		records = []core.Expense{}
	}
	a.logger.InfoContext(ctx, "Snapshot loaded", applog.FieldCount, len(records))
	return records
}
