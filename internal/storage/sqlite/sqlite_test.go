package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"expenses/internal/storage"
)

func openTestSlot(t *testing.T, dbPath, name string) *Slot {
	t.Helper()
	s, err := Open(dbPath, name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "db", "expenses.db")
	s := openTestSlot(t, dbPath, "expenses")

	if _, err := s.Read(ctx); !errors.Is(err, storage.ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty, got %v", err)
	}
	if _, err := s.UpdatedAt(ctx); !errors.Is(err, storage.ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty for timestamp, got %v", err)
	}

	for _, payload := range []string{`[{"id":"a"}]`, `[]`} {
		if err := s.Write(ctx, []byte(payload)); err != nil {
			t.Fatalf("write: %v", err)
		}
		got, err := s.Read(ctx)
		if err != nil || string(got) != payload {
			t.Fatalf("read %q err=%v want %q", got, err, payload)
		}
	}
	if ts, err := s.UpdatedAt(ctx); err != nil || ts.IsZero() {
		t.Fatalf("expected timestamp, got %v err=%v", ts, err)
	}
}

func TestSQLiteSlotsAreIndependentAndDurable(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "expenses.db")

	a, err := Open(dbPath, "alice")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := a.Write(ctx, []byte(`["a"]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening re-runs migrations as a no-op and keeps the data.
	reopened := openTestSlot(t, dbPath, "alice")
	got, err := reopened.Read(ctx)
	if err != nil || string(got) != `["a"]` {
		t.Fatalf("data lost across reopen: %q err=%v", got, err)
	}

	other := openTestSlot(t, dbPath, "bob")
	if _, err := other.Read(ctx); !errors.Is(err, storage.ErrSlotEmpty) {
		t.Fatalf("slots must be independent, got %v", err)
	}
}

func TestOpenRequiresName(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "x.db"), ""); err == nil {
		t.Fatalf("expected error for empty slot name")
	}
}
