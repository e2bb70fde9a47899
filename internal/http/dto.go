package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"expenses/internal/core"
)

// expenseRequest is the body of POST /api/expenses and PUT /api/expenses/{id}.
type expenseRequest struct {
	Amount      *float64 `json:"amount" validate:"required,gt=0"`
	Category    string   `json:"category" validate:"required,category"`
	Date        string   `json:"date" validate:"required"`
	PaymentMode string   `json:"paymentMode" validate:"required,payment_mode"`
	PayeeName   string   `json:"payeeName" validate:"required"`
	Notes       *string  `json:"notes" validate:"omitempty,max=1000"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return core.Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("payment_mode", func(fl validator.FieldLevel) bool {
		return core.PaymentMode(fl.Field().String()).Valid()
	})
	return v
}

// validate checks req and converts it to a draft. Field problems come back
// as a map keyed by JSON field name.
func (req expenseRequest) validate(v *validator.Validate) (core.Draft, map[string]string) {
	fields := make(map[string]string)

	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			fields["_"] = err.Error()
			return core.Draft{}, fields
		}
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
	}

	var date core.Date
	if req.Date != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			fields["date"] = "must be an ISO-8601 timestamp or YYYY-MM-DD date"
		}
		date = d
	}

	if len(fields) > 0 {
		return core.Draft{}, fields
	}

	var notes *string
	if req.Notes != nil {
		n := sanitizeInput(*req.Notes)
		notes = &n
	}
	return core.Draft{
		Amount:      core.FromFloat(*req.Amount),
		Category:    core.Category(req.Category),
		Date:        date,
		PaymentMode: core.PaymentMode(req.PaymentMode),
		PayeeName:   sanitizeInput(req.PayeeName),
		Notes:       notes,
	}, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than zero"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "category":
		return "must be one of " + joinValues(core.AllCategories())
	case "payment_mode":
		return "must be one of " + joinValues(core.AllPaymentModes())
	}
	return "is invalid"
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// fieldErrors flattens a ledger validation error for the response body.
func fieldErrors(verr *core.ValidationError) map[string]string {
	fields := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		if _, seen := fields[f.Field]; !seen {
			fields[f.Field] = f.Err.Error()
		}
	}
	return fields
}
