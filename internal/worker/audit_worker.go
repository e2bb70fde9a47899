// Package worker contains the handlers run by cmd/expenses-worker.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"expenses/internal/amqp"
	"expenses/internal/core"
	applog "expenses/internal/log"
)

// AuditWorker writes one log line per ledger event. Events carrying an
// invalid category or payment mode are returned as errors and requeued.
type AuditWorker struct {
	logger   *applog.Logger
	count    atomic.Int64
	revision atomic.Uint64
}

func NewAuditWorker(logger *applog.Logger) *AuditWorker {
	return &AuditWorker{logger: logger.WithComponent(applog.ComponentWorker)}
}

func (a *AuditWorker) Handle(ctx context.Context, msg *amqp.LedgerEvent) error {
	switch msg.Kind {
	case "created", "updated", "deleted":
	default:
		// Acknowledged so it does not loop.
		a.logger.WarnContext(ctx, "Ignoring unknown ledger event kind", "kind", msg.Kind, applog.FieldExpenseID, msg.ID)
		return nil
	}
	if !msg.Category.Valid() || !msg.PaymentMode.Valid() {
		return fmt.Errorf("event %s for %s: invalid category or payment mode", msg.Kind, msg.ID)
	}

	if prev := a.revision.Load(); msg.Revision <= prev {
		a.logger.DebugContext(ctx, "Ledger event older than last seen revision",
			applog.FieldRevision, msg.Revision, "last_revision", prev)
	} else {
		a.revision.Store(msg.Revision)
	}

	a.count.Add(1)
	a.logger.InfoContext(ctx, "Ledger event",
		"kind", msg.Kind,
		applog.FieldExpenseID, msg.ID,
		applog.FieldRevision, msg.Revision,
		applog.FieldAmount, msg.Amount.Cents,
		"amount_formatted", core.FormatCurrency(msg.Amount),
		applog.FieldCategory, string(msg.Category),
		applog.FieldPayment, string(msg.PaymentMode),
		"payee", msg.PayeeName,
		"date", core.FormatDate(msg.Date),
		"published_at", msg.Timestamp)
	return nil
}

func (a *AuditWorker) Count() int64 { return a.count.Load() }
