package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expenses/internal/core"
)

// LedgerEvent is the wire form of one applied ledger mutation. For deletions
// the expense fields describe the record as it was before removal.
type LedgerEvent struct {
	Kind        string           `json:"kind"`
	ID          string           `json:"id"`
	Revision    uint64           `json:"revision"`
	Amount      core.Money       `json:"amount"`
	Category    core.Category    `json:"category"`
	PaymentMode core.PaymentMode `json:"paymentMode"`
	PayeeName   string           `json:"payeeName"`
	Date        core.Date        `json:"date"`
	Timestamp   time.Time        `json:"timestamp"`
}

var errMalformedEvent = errors.New("malformed ledger event")

// NewLedgerEvent builds a message for e stamped with the current time.
func NewLedgerEvent(kind string, revision uint64, e core.Expense) *LedgerEvent {
	return &LedgerEvent{
		Kind:        kind,
		ID:          e.ID,
		Revision:    revision,
		Amount:      e.Amount,
		Category:    e.Category,
		PaymentMode: e.PaymentMode,
		PayeeName:   e.PayeeName,
		Date:        e.Date,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes a message and rejects ones missing kind or id.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedEvent, err)
	}
	if msg.Kind == "" || msg.ID == "" {
		return nil, fmt.Errorf("%w: kind and id are required", errMalformedEvent)
	}
	return &msg, nil
}
