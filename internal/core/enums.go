package core

import (
	"fmt"
	"slices"
)

type (
	Category    string
	PaymentMode string
)

const (
	CategoryFood          Category = "food"
	CategoryShopping      Category = "shopping"
	CategoryBills         Category = "bills"
	CategoryEntertainment Category = "entertainment"
	CategoryTransport     Category = "transport"
	CategoryHealth        Category = "health"
	CategoryOthers        Category = "others"
)

const (
	PaymentCash          PaymentMode = "cash"
	PaymentCreditCard    PaymentMode = "credit card"
	PaymentDebitCard     PaymentMode = "debit card"
	PaymentBankTransfer  PaymentMode = "bank transfer"
	PaymentMobilePayment PaymentMode = "mobile payment"
	PaymentOther         PaymentMode = "other"
)

type categoryInfo struct {
	name  string
	color string
}

var (
	categoryOrder = []Category{
		CategoryFood, CategoryShopping, CategoryBills, CategoryEntertainment,
		CategoryTransport, CategoryHealth, CategoryOthers,
	}

	categoryTable = map[Category]categoryInfo{
		CategoryFood:          {name: "Food & Dining", color: "#4CAF50"},
		CategoryShopping:      {name: "Shopping", color: "#2196F3"},
		CategoryBills:         {name: "Bills & Utilities", color: "#FF9800"},
		CategoryEntertainment: {name: "Entertainment", color: "#9C27B0"},
		CategoryTransport:     {name: "Transportation", color: "#F44336"},
		CategoryHealth:        {name: "Healthcare", color: "#E91E63"},
		CategoryOthers:        {name: "Others", color: "#607D8B"},
	}

	paymentModeOrder = []PaymentMode{
		PaymentCash, PaymentCreditCard, PaymentDebitCard,
		PaymentBankTransfer, PaymentMobilePayment, PaymentOther,
	}

	paymentModeNames = map[PaymentMode]string{
		PaymentCash:          "Cash",
		PaymentCreditCard:    "Credit Card",
		PaymentDebitCard:     "Debit Card",
		PaymentBankTransfer:  "Bank Transfer",
		PaymentMobilePayment: "Mobile Payment",
		PaymentOther:         "Other",
	}
)

// AllCategories returns every category in display order.
func AllCategories() []Category {
	return slices.Clone(categoryOrder)
}

// AllPaymentModes returns every payment mode in display order.
func AllPaymentModes() []PaymentMode {
	return slices.Clone(paymentModeOrder)
}

// ParseCategory converts a stored or submitted value into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

func (c Category) String() string { return string(c) }

// DisplayName panics for values outside the enumeration.
func (c Category) DisplayName() string { return c.info().name }

// Color is the fixed hex color used for charts and badges.
func (c Category) Color() string { return c.info().color }

func (c Category) info() categoryInfo {
	info, ok := categoryTable[c]
	if !ok {
		panic(fmt.Sprintf("core: no display metadata for category %q", string(c)))
	}
	return info
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, string(c))
	}
	return []byte(c), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParsePaymentMode converts a stored or submitted value into a PaymentMode.
func ParsePaymentMode(s string) (PaymentMode, error) {
	m := PaymentMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMode, s)
	}
	return m, nil
}

func (m PaymentMode) Valid() bool {
	_, ok := paymentModeNames[m]
	return ok
}

func (m PaymentMode) String() string { return string(m) }

// DisplayName panics for values outside the enumeration.
func (m PaymentMode) DisplayName() string {
	name, ok := paymentModeNames[m]
	if !ok {
		panic(fmt.Sprintf("core: no display metadata for payment mode %q", string(m)))
	}
	return name
}

func (m PaymentMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMode, string(m))
	}
	return []byte(m), nil
}

func (m *PaymentMode) UnmarshalText(b []byte) error {
	parsed, err := ParsePaymentMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
