package http

import (
	"net/http"

	"expenses/internal/core"
)

type categoryShareResponse struct {
	Category        core.Category `json:"category"`
	Name            string        `json:"name"`
	Color           string        `json:"color"`
	Amount          core.Money    `json:"amount"`
	AmountFormatted string        `json:"amountFormatted"`
	Percent         int           `json:"percent"`
}

type paymentShareResponse struct {
	PaymentMode     core.PaymentMode `json:"paymentMode"`
	Name            string           `json:"name"`
	Amount          core.Money       `json:"amount"`
	AmountFormatted string           `json:"amountFormatted"`
	Percent         int              `json:"percent"`
}

type summaryResponse struct {
	Revision       uint64                          `json:"revision"`
	Count          int                             `json:"count"`
	Total          core.Money                      `json:"total"`
	TotalFormatted string                          `json:"totalFormatted"`
	ByCategory     map[core.Category]core.Money    `json:"byCategory"`
	ByPaymentMode  map[core.PaymentMode]core.Money `json:"byPaymentMode"`
	Categories     []categoryShareResponse         `json:"categories"`
	PaymentModes   []paymentShareResponse          `json:"paymentModes"`
	TopExpenses    []core.Expense                  `json:"topExpenses"`
}

type categoryMeta struct {
	Value core.Category `json:"value"`
	Name  string        `json:"name"`
	Color string        `json:"color"`
}

type paymentModeMeta struct {
	Value core.PaymentMode `json:"value"`
	Name  string           `json:"name"`
}

type metaResponse struct {
	Categories   []categoryMeta    `json:"categories"`
	PaymentModes []paymentModeMeta `json:"paymentModes"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	top, err := parseTop(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	// Reading the revision before the list means a cached entry is never
	// older than its key.
	key := summaryKey{revision: s.ledger.Revision(), top: top}
	if cached, ok := s.summaries.Get(key); ok {
		NewJSONResponse().Header("X-Cache", "HIT").Body(cached).Write(w)
		return
	}

	list, err := s.ledger.List()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := buildSummary(key.revision, list, top)
	s.summaries.Set(key, resp)
	NewJSONResponse().Header("X-Cache", "MISS").Body(resp).Write(w)
}

func buildSummary(revision uint64, list []core.Expense, top int) summaryResponse {
	sum := core.Summarize(list)

	cats := core.CategoryBreakdown(list)
	catResp := make([]categoryShareResponse, len(cats))
	for i, c := range cats {
		catResp[i] = categoryShareResponse{
			Category:        c.Category,
			Name:            c.Category.DisplayName(),
			Color:           c.Category.Color(),
			Amount:          c.Amount,
			AmountFormatted: core.FormatCurrency(c.Amount),
			Percent:         c.Percent,
		}
	}

	modes := core.PaymentModeBreakdown(list)
	modeResp := make([]paymentShareResponse, len(modes))
	for i, m := range modes {
		modeResp[i] = paymentShareResponse{
			PaymentMode:     m.PaymentMode,
			Name:            m.PaymentMode.DisplayName(),
			Amount:          m.Amount,
			AmountFormatted: core.FormatCurrency(m.Amount),
			Percent:         m.Percent,
		}
	}

	return summaryResponse{
		Revision:       revision,
		Count:          len(list),
		Total:          sum.Total,
		TotalFormatted: core.FormatCurrency(sum.Total),
		ByCategory:     sum.ByCategory,
		ByPaymentMode:  sum.ByPaymentMode,
		Categories:     catResp,
		PaymentModes:   modeResp,
		TopExpenses:    core.TopExpenses(list, top),
	}
}

func (s *Server) handleMeta(w http.ResponseWriter, _ *http.Request) {
	var resp metaResponse
	for _, c := range core.AllCategories() {
		resp.Categories = append(resp.Categories, categoryMeta{Value: c, Name: c.DisplayName(), Color: c.Color()})
	}
	for _, m := range core.AllPaymentModes() {
		resp.PaymentModes = append(resp.PaymentModes, paymentModeMeta{Value: m, Name: m.DisplayName()})
	}
	NewJSONResponse().Body(resp).Write(w)
}
