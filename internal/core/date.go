package core

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// isoLayout matches the millisecond ISO-8601 form produced by browsers.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Date is the point in time an expense happened.
type Date struct {
	time.Time
}

// NewDate creates a new Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts an RFC 3339 timestamp or a bare YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Date{Time: t.UTC()}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: expected ISO-8601 timestamp or YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// IsFuture reports whether d falls on a calendar day after now's day,
// both read in now's location.
func (d Date) IsFuture(now time.Time) bool {
	loc := now.Location()
	dy, dm, dd := d.In(loc).Date()
	ny, nm, nd := now.Date()
	return time.Date(dy, dm, dd, 0, 0, 0, 0, loc).After(time.Date(ny, nm, nd, 0, 0, 0, 0, loc))
}

// ISO returns the serialized form, e.g. 2024-01-05T00:00:00.000Z.
func (d Date) ISO() string {
	return d.UTC().Format(isoLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return nil, errors.New("marshal date: zero value")
	}
	return []byte(strconv.Quote(d.ISO())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("date must be a JSON string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
