package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// GenerateID returns a random identifier for a new expense.
// Uniqueness against the existing collection is not checked here.
func GenerateID() string {
	return uuid.NewString()
}

// FormatCurrency renders m as US dollars with en-US grouping, e.g. "$1,234.50".
func FormatCurrency(m Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	dollars := message.NewPrinter(language.AmericanEnglish).Sprintf("%d", cents/100)
	return fmt.Sprintf("%s$%s.%02d", sign, dollars, cents%100)
}

// FormatDate renders d in the local zone, the zone the default ledger clock
// validates against, e.g. "Jan 5, 2024".
func FormatDate(d Date) string {
	return FormatDateIn(d, time.Local)
}

// FormatDateIn renders the calendar day d falls on in loc.
func FormatDateIn(d Date, loc *time.Location) string {
	return d.In(loc).Format("Jan 2, 2006")
}

// FormatDateString parses an ISO-8601 string before formatting it in the local zone.
func FormatDateString(iso string) (string, error) {
	d, err := ParseDate(iso)
	if err != nil {
		return "", err
	}
	return FormatDate(d), nil
}
