package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// Expense is a single recorded spending transaction.
	Expense struct {
		ID          string      `json:"id"`
		Amount      Money       `json:"amount"`
		Category    Category    `json:"category"`
		Date        Date        `json:"date"`
		PaymentMode PaymentMode `json:"paymentMode"`
		PayeeName   string      `json:"payeeName"`
		Notes       *string     `json:"notes,omitempty"`
	}

	// Draft carries the user-supplied fields of an expense before an ID is assigned.
	Draft struct {
		Amount      Money
		Category    Category
		Date        Date
		PaymentMode PaymentMode
		PayeeName   string
		Notes       *string
	}
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrEmptyPayee         = errors.New("payee name is required")
	ErrZeroDate           = errors.New("date is required")
	ErrFutureDate         = errors.New("date cannot be in the future")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidPaymentMode = errors.New("invalid payment mode")
	ErrMissingID          = errors.New("id is required")
)

// FieldError ties a validation failure to the JSON name of the offending field.
type FieldError struct {
	Field string
	Err   error
}

func (f FieldError) Error() string {
	return f.Field + ": " + f.Err.Error()
}

// ValidationError aggregates every failing field of a draft.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "invalid expense: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f.Err
	}
	return errs
}

func (e *ValidationError) add(field string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Err: err})
}

// Normalize trims the payee, drops blank notes and truncates the date to
// millisecond precision so a saved record reloads unchanged.
func (d Draft) Normalize() Draft {
	d.PayeeName = strings.TrimSpace(d.PayeeName)
	if d.Notes != nil {
		notes := strings.TrimSpace(*d.Notes)
		if notes == "" {
			d.Notes = nil
		} else {
			d.Notes = &notes
		}
	}
	if !d.Date.IsZero() {
		d.Date = Date{Time: d.Date.UTC().Truncate(time.Millisecond)}
	}
	return d
}

// Validate checks the draft against now. It returns a *ValidationError
// listing every failing field, or nil.
func (d Draft) Validate(now time.Time) error {
	verr := &ValidationError{}

	if err := d.Amount.Validate(); err != nil {
		verr.add("amount", err)
	}
	if !d.Category.Valid() {
		verr.add("category", ErrInvalidCategory)
	}
	if err := d.Date.Validate(); err != nil {
		verr.add("date", err)
	} else if d.Date.IsFuture(now) {
		verr.add("date", ErrFutureDate)
	}
	if !d.PaymentMode.Valid() {
		verr.add("paymentMode", ErrInvalidPaymentMode)
	}
	if strings.TrimSpace(d.PayeeName) == "" {
		verr.add("payeeName", ErrEmptyPayee)
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Expense builds the record stored under id.
func (d Draft) Expense(id string) Expense {
	return Expense{
		ID:          id,
		Amount:      d.Amount,
		Category:    d.Category,
		Date:        d.Date,
		PaymentMode: d.PaymentMode,
		PayeeName:   d.PayeeName,
		Notes:       cloneString(d.Notes),
	}
}

// Validate checks a stored record: a non-empty id plus every draft rule
// except the future-date check, which only applies when a record is written.
func (e Expense) Validate() error {
	verr := &ValidationError{}
	if e.ID == "" {
		verr.add("id", ErrMissingID)
	}
	if err := e.Amount.Validate(); err != nil {
		verr.add("amount", err)
	}
	if !e.Category.Valid() {
		verr.add("category", ErrInvalidCategory)
	}
	if err := e.Date.Validate(); err != nil {
		verr.add("date", err)
	}
	if !e.PaymentMode.Valid() {
		verr.add("paymentMode", ErrInvalidPaymentMode)
	}
	if strings.TrimSpace(e.PayeeName) == "" {
		verr.add("payeeName", ErrEmptyPayee)
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Draft returns the editable fields of the expense.
func (e Expense) Draft() Draft {
	return Draft{
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
		PaymentMode: e.PaymentMode,
		PayeeName:   e.PayeeName,
		Notes:       cloneString(e.Notes),
	}
}

// Clone returns a copy that shares no pointers with e.
func (e Expense) Clone() Expense {
	e.Notes = cloneString(e.Notes)
	return e
}

// Equal reports field-wise equality, comparing dates as instants.
func (e Expense) Equal(o Expense) bool {
	if e.ID != o.ID || e.Amount != o.Amount || e.Category != o.Category ||
		e.PaymentMode != o.PaymentMode || e.PayeeName != o.PayeeName {
		return false
	}
	if !e.Date.Equal(o.Date.Time) {
		return false
	}
	if (e.Notes == nil) != (o.Notes == nil) {
		return false
	}
	return e.Notes == nil || *e.Notes == *o.Notes
}

func (e Expense) String() string {
	return fmt.Sprintf("%s %s %s (%s)", e.ID, FormatCurrency(e.Amount), e.PayeeName, e.Category)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
