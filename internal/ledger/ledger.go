// Package ledger owns the in-memory expense collection and is the only code
// path that mutates it or talks to persistence.
package ledger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

var (
	ErrNotFound           = errors.New("expense not found")
	ErrNotInitialized     = errors.New("ledger not initialized")
	ErrAlreadyInitialized = errors.New("ledger already initialized")
	ErrIDCollision        = errors.New("generated id already in use")
)

// Store is the persistence contract. Load never fails; Save may.
type Store interface {
	Save(ctx context.Context, records []core.Expense) error
	Load(ctx context.Context) []core.Expense
}

type Ledger struct {
	store  Store
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	mu       sync.RWMutex
	ready    bool
	records  []core.Expense // insertion order
	revision uint64

	subMu     sync.Mutex
	subs      []subscription
	nextSubID uint64
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		now:    time.Now,
		newID:  core.GenerateID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(applog.FieldComponent, applog.ComponentLedger)
	return l
}

// Initialize loads the collection from the store. It may be called once.
func (l *Ledger) Initialize(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return ErrAlreadyInitialized
	}

	loaded := l.store.Load(ctx)
	seen := make(map[string]struct{}, len(loaded))
	records := make([]core.Expense, 0, len(loaded))
	for _, e := range loaded {
		if _, dup := seen[e.ID]; dup {
			l.logger.WarnContext(ctx, "Dropping duplicate expense id from snapshot",
				applog.FieldExpenseID, e.ID, applog.FieldErrorType, applog.ErrorTypeCorrupt)
			continue
		}
		seen[e.ID] = struct{}{}
		records = append(records, e)
	}

	l.records = records
	l.ready = true
	l.logger.InfoContext(ctx, "Ledger initialized", applog.FieldCount, len(records))
	return nil
}

// Ready reports whether Initialize has completed.
func (l *Ledger) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

// Revision increases by one with every applied mutation.
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// Add validates d, stores it under a fresh id and persists the collection.
// On a persistence failure the record is kept and returned with the error.
func (l *Ledger) Add(ctx context.Context, d core.Draft) (core.Expense, error) {
	d = d.Normalize()

	l.mu.Lock()
	if !l.ready {
		l.mu.Unlock()
		return core.Expense{}, ErrNotInitialized
	}
	if err := d.Validate(l.now()); err != nil {
		l.mu.Unlock()
		return core.Expense{}, err
	}

	id := l.newID()
	if id == "" || l.indexOf(id) >= 0 {
		l.mu.Unlock()
		return core.Expense{}, fmt.Errorf("%w: %q", ErrIDCollision, id)
	}

	e := d.Expense(id)
	l.records = append(l.records, e)
	ev := l.commit(ctx, EventCreated, e)
	l.mu.Unlock()

	return l.finish(ctx, ev)
}

// Update replaces every field of the record with id, keeping its position.
func (l *Ledger) Update(ctx context.Context, id string, d core.Draft) (core.Expense, error) {
	d = d.Normalize()

	l.mu.Lock()
	if !l.ready {
		l.mu.Unlock()
		return core.Expense{}, ErrNotInitialized
	}
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return core.Expense{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	if err := d.Validate(l.now()); err != nil {
		l.mu.Unlock()
		return core.Expense{}, err
	}

	e := d.Expense(id)
	l.records[i] = e
	ev := l.commit(ctx, EventUpdated, e)
	l.mu.Unlock()

	return l.finish(ctx, ev)
}

// Remove deletes the record with id. Unknown ids are ignored and nothing is
// persisted for them.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	if !l.ready {
		l.mu.Unlock()
		return ErrNotInitialized
	}
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		l.logger.DebugContext(ctx, "Remove of unknown expense ignored", applog.FieldExpenseID, id)
		return nil
	}

	removed := l.records[i]
	l.records = slices.Delete(l.records, i, i+1)
	ev := l.commit(ctx, EventDeleted, removed)
	l.mu.Unlock()

	_, err := l.finish(ctx, ev)
	return err
}

// List returns a copy of the collection, newest date first. Records sharing
// a date keep their insertion order.
func (l *Ledger) List() ([]core.Expense, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.ready {
		return nil, ErrNotInitialized
	}

	out := make([]core.Expense, len(l.records))
	for i, e := range l.records {
		out[i] = e.Clone()
	}
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})
	return out, nil
}

func (l *Ledger) Get(_ context.Context, id string) (core.Expense, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.ready {
		return core.Expense{}, ErrNotInitialized
	}
	i := l.indexOf(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return l.records[i].Clone(), nil
}

func (l *Ledger) indexOf(id string) int {
	return slices.IndexFunc(l.records, func(e core.Expense) bool { return e.ID == id })
}

// pending carries a mutation's outcome from inside the lock to the
// notification phase outside it.
type pending struct {
	event   Event
	saveErr error
}

// commit bumps the revision and persists the already-mutated collection.
// Callers hold l.mu.
func (l *Ledger) commit(ctx context.Context, kind EventKind, e core.Expense) pending {
	l.revision++
	ev := Event{Kind: kind, Expense: e.Clone(), Revision: l.revision, At: l.now()}

	snapshot := make([]core.Expense, len(l.records))
	copy(snapshot, l.records)
	var saveErr error
	if err := l.store.Save(ctx, snapshot); err != nil {
		saveErr = fmt.Errorf("persist ledger after %s: %w", kind, err)
	}
	return pending{event: ev, saveErr: saveErr}
}

func (l *Ledger) finish(ctx context.Context, p pending) (core.Expense, error) {
	e := p.event.Expense
	if p.saveErr != nil {
		l.logger.WarnContext(ctx, "Mutation kept in memory but not persisted",
			applog.FieldOperation, string(p.event.Kind),
			applog.FieldExpenseID, e.ID,
			applog.FieldRevision, p.event.Revision,
			applog.FieldError, p.saveErr,
			applog.FieldErrorType, applog.ErrorTypeStorage)
	} else {
		l.logger.InfoContext(ctx, "Ledger mutated",
			applog.FieldOperation, string(p.event.Kind),
			applog.FieldExpenseID, e.ID,
			applog.FieldAmount, e.Amount.Cents,
			applog.FieldCategory, string(e.Category),
			applog.FieldRevision, p.event.Revision)
	}

	l.notify(p.event)
	return e.Clone(), p.saveErr
}
