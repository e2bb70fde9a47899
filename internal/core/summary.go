package core

import (
	"cmp"
	"slices"
)

// Summary is derived from the current collection on demand and never stored.
type Summary struct {
	Total         Money                 `json:"total"`
	ByCategory    map[Category]Money    `json:"byCategory"`
	ByPaymentMode map[PaymentMode]Money `json:"byPaymentMode"`
}

// CategoryShare is one row of the category breakdown.
type CategoryShare struct {
	Category Category
	Amount   Money
	Percent  int
}

// PaymentModeShare is one row of the payment mode breakdown.
type PaymentModeShare struct {
	PaymentMode PaymentMode
	Amount      Money
	Percent     int
}

// Summarize totals the records overall, per category and per payment mode.
// Every enumeration value is present in the maps, zero when unused.
func Summarize(records []Expense) Summary {
	s := Summary{
		ByCategory:    make(map[Category]Money, len(categoryOrder)),
		ByPaymentMode: make(map[PaymentMode]Money, len(paymentModeOrder)),
	}
	for _, c := range categoryOrder {
		s.ByCategory[c] = Money{}
	}
	for _, m := range paymentModeOrder {
		s.ByPaymentMode[m] = Money{}
	}
	for _, e := range records {
		s.Total = s.Total.Add(e.Amount)
		s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(e.Amount)
		s.ByPaymentMode[e.PaymentMode] = s.ByPaymentMode[e.PaymentMode].Add(e.Amount)
	}
	return s
}

// TopExpenses returns the n largest records by amount, largest first.
// Equal amounts keep their input order.
func TopExpenses(records []Expense, n int) []Expense {
	if n <= 0 {
		return []Expense{}
	}
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Expense) int {
		return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CategoryBreakdown lists categories with a positive amount, largest first.
func CategoryBreakdown(records []Expense) []CategoryShare {
	s := Summarize(records)
	out := make([]CategoryShare, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		amount := s.ByCategory[c]
		if amount.Cents <= 0 {
			continue
		}
		out = append(out, CategoryShare{Category: c, Amount: amount, Percent: percentOf(amount, s.Total)})
	}
	slices.SortStableFunc(out, func(a, b CategoryShare) int {
		return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
	})
	return out
}

// PaymentModeBreakdown lists payment modes with a positive amount, largest first.
func PaymentModeBreakdown(records []Expense) []PaymentModeShare {
	s := Summarize(records)
	out := make([]PaymentModeShare, 0, len(paymentModeOrder))
	for _, m := range paymentModeOrder {
		amount := s.ByPaymentMode[m]
		if amount.Cents <= 0 {
			continue
		}
		out = append(out, PaymentModeShare{PaymentMode: m, Amount: amount, Percent: percentOf(amount, s.Total)})
	}
	slices.SortStableFunc(out, func(a, b PaymentModeShare) int {
		return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
	})
	return out
}

// percentOf is round(part/total*100) with halves rounded up, 0 when total is not positive.
func percentOf(part, total Money) int {
	if total.Cents <= 0 {
		return 0
	}
	return int((part.Cents*200 + total.Cents) / (2 * total.Cents))
}
