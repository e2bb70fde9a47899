package http

import (
	"errors"
	"net/http"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/middleware/auth"
	"expenses/internal/storage"
)

const persistenceWarning = "change applied but could not be saved; it may be lost on restart"

type expenseListResponse struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
	Total    core.Money     `json:"total"`
}

// mutationResponse embeds the record so its fields stay top-level.
type mutationResponse struct {
	core.Expense
	Warning string `json:"warning,omitempty"`
}

type deleteResponse struct {
	ID      string `json:"id"`
	Warning string `json:"warning"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.List()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	NewJSONResponse().Body(expenseListResponse{
		Expenses: list,
		Count:    len(list),
		Total:    core.Summarize(list).Total,
	}).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.ledger.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	NewJSONResponse().Body(e).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.readDraft(w, r)
	if !ok {
		return
	}
	e, err := s.ledger.Add(r.Context(), draft)
	s.respondMutation(w, r, http.StatusCreated, applog.OpCreate, e, err)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.readDraft(w, r)
	if !ok {
		return
	}
	e, err := s.ledger.Update(r.Context(), r.PathValue("id"), draft)
	s.respondMutation(w, r, http.StatusOK, applog.OpUpdate, e, err)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.ledger.Remove(r.Context(), id)
	switch {
	case err == nil:
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
	case errors.Is(err, storage.ErrPersistenceWrite):
		s.logPersistenceFailure(r, applog.OpDelete, id, err)
		NewJSONResponse().
			Warning(persistenceWarning).
			Body(deleteResponse{ID: id, Warning: persistenceWarning}).
			Write(w)
	default:
		s.respondError(w, r, err)
	}
}

// readDraft decodes and validates the request body, writing the error
// response itself when it returns false.
func (s *Server) readDraft(w http.ResponseWriter, r *http.Request) (core.Draft, bool) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return core.Draft{}, false
	}
	draft, fields := req.validate(s.validate)
	if len(fields) > 0 {
		ValidationFailed(fields).Write(w)
		return core.Draft{}, false
	}
	return draft, true
}

func (s *Server) respondMutation(w http.ResponseWriter, r *http.Request, status int, op string, e core.Expense, err error) {
	switch {
	case err == nil:
		s.logMutation(r, op, e)
		NewJSONResponse().Status(status).Body(mutationResponse{Expense: e}).Write(w)
	case errors.Is(err, storage.ErrPersistenceWrite):
		s.logPersistenceFailure(r, op, e.ID, err)
		NewJSONResponse().
			Status(status).
			Warning(persistenceWarning).
			Body(mutationResponse{Expense: e, Warning: persistenceWarning}).
			Write(w)
	default:
		s.respondError(w, r, err)
	}
}

func (s *Server) logMutation(r *http.Request, op string, e core.Expense) {
	logger := applog.FromContext(r.Context())
	if sub := auth.Subject(r.Context()); sub != "" {
		logger = logger.With(applog.FieldSubject, sub)
	}
	applog.NewStructuredLogger(logger).LogExpense(r.Context(), op, e.ID, e.Amount.Cents,
		string(e.Category), string(e.PaymentMode), s.ledger.Revision())
}

func (s *Server) logPersistenceFailure(r *http.Request, op, id string, err error) {
	applog.FromContext(r.Context()).Warn("Mutation applied without durable write",
		applog.FieldOperation, op,
		applog.FieldExpenseID, id,
		applog.FieldError, err,
		applog.FieldErrorType, applog.ErrorTypeStorage)
}
