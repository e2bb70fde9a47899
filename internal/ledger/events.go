package ledger

import (
	"time"

	"expenses/internal/core"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes one applied mutation. For deletions Expense is the record
// as it was before removal.
type Event struct {
	Kind     EventKind
	Expense  core.Expense
	Revision uint64
	At       time.Time
}

// Listener is called synchronously after each mutation, outside the ledger
// lock, so it may read from the ledger.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

// Subscribe registers fn and returns a function that unregisters it.
func (l *Ledger) Subscribe(fn Listener) (cancel func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	l.nextSubID++
	id := l.nextSubID
	l.subs = append(l.subs, subscription{id: id, fn: fn})

	return func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

func (l *Ledger) notify(ev Event) {
	l.subMu.Lock()
	subs := make([]subscription, len(l.subs))
	copy(subs, l.subs)
	l.subMu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
