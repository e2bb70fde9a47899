package memory

import (
	"context"
	"errors"
	"testing"

	"expenses/internal/storage"
)

func TestSlotReadWrite(t *testing.T) {
	ctx := context.Background()
	s := New("expenses")

	if _, err := s.Read(ctx); !errors.Is(err, storage.ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty, got %v", err)
	}

	buf := []byte(`[]`)
	if err := s.Write(ctx, buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf[0] = 'x'

	got, err := s.Read(ctx)
	if err != nil || string(got) != `[]` {
		t.Fatalf("unexpected read: %q err=%v", got, err)
	}
	got[0] = 'y'
	again, _ := s.Read(ctx)
	if string(again) != `[]` {
		t.Fatalf("read must return a copy, got %q", again)
	}
	if s.Writes() != 1 || s.Name() != "expenses" {
		t.Fatalf("unexpected slot state: writes=%d name=%s", s.Writes(), s.Name())
	}
}

func TestNewWithPayload(t *testing.T) {
	s := NewWithPayload("x", []byte("{"))
	got, err := s.Read(context.Background())
	if err != nil || string(got) != "{" {
		t.Fatalf("unexpected seed: %q err=%v", got, err)
	}
}
