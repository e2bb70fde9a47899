// Package adapters connects the ledger to outbound integrations.
package adapters

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
)

// Publisher sends one ledger event to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.LedgerEvent) error
}

// Subscriber is the part of the ledger the publisher listens to.
type Subscriber interface {
	Subscribe(fn ledger.Listener) (cancel func())
}

const defaultBufferSize = 256

// EventPublisher forwards ledger events to a Publisher from a background
// goroutine. Mutating callers never wait on the broker; failures are logged
// and counted.
type EventPublisher struct {
	publisher Publisher
	logger    *slog.Logger
	timeout   time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan *amqp.LedgerEvent
	done   chan struct{}
	cancel func()

	published atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func NewEventPublisher(p Publisher, logger *slog.Logger, bufferSize int) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	ep := &EventPublisher{
		publisher: p,
		logger:    logger.With(applog.FieldComponent, applog.ComponentAMQP),
		timeout:   10 * time.Second,
		queue:     make(chan *amqp.LedgerEvent, bufferSize),
		done:      make(chan struct{}),
	}
	go ep.run()
	return ep
}

// Attach subscribes to s. Close detaches again.
func (ep *EventPublisher) Attach(s Subscriber) {
	cancel := s.Subscribe(ep.enqueue)
	ep.mu.Lock()
	ep.cancel = cancel
	ep.mu.Unlock()
}

func (ep *EventPublisher) enqueue(ev ledger.Event) {
	msg := amqp.NewLedgerEvent(string(ev.Kind), ev.Revision, ev.Expense)

	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.closed {
		return
	}
	select {
	case ep.queue <- msg:
	default:
		ep.dropped.Add(1)
		ep.logger.Warn("Event queue full, dropping ledger event",
			"kind", msg.Kind,
			applog.FieldExpenseID, msg.ID,
			applog.FieldRevision, msg.Revision)
	}
}

func (ep *EventPublisher) run() {
	defer close(ep.done)
	for msg := range ep.queue {
		ctx, cancel := context.WithTimeout(context.Background(), ep.timeout)
		err := ep.publisher.Publish(ctx, msg)
		cancel()
		if err != nil {
			ep.failed.Add(1)
			ep.logger.Error("Failed to publish ledger event",
				applog.FieldError, err,
				applog.FieldErrorType, applog.ErrorTypeNetwork,
				"kind", msg.Kind,
				applog.FieldExpenseID, msg.ID,
				applog.FieldRevision, msg.Revision)
			continue
		}
		ep.published.Add(1)
	}
}

// Close detaches from the ledger and waits for queued events to be sent, or
// for ctx to expire.
func (ep *EventPublisher) Close(ctx context.Context) error {
	ep.mu.Lock()
	if !ep.closed {
		ep.closed = true
		if ep.cancel != nil {
			ep.cancel()
		}
		close(ep.queue)
	}
	ep.mu.Unlock()

	select {
	case <-ep.done:
		return nil
	case <-ctx.Done():
		ep.logger.Warn("Event publisher closed with events pending", "pending", len(ep.queue))
		return ctx.Err()
	}
}

// Stats reports delivery counters.
func (ep *EventPublisher) Stats() (published, failed, dropped int64) {
	return ep.published.Load(), ep.failed.Load(), ep.dropped.Load()
}
