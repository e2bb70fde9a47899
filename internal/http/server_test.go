package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expenses/internal/core"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
	"expenses/internal/middleware/auth"
	"expenses/internal/storage"
	"expenses/internal/storage/memory"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type brokenSlot struct{ *memory.Slot }

func (*brokenSlot) Write(context.Context, []byte) error { return errors.New("disk full") }

func quietLogger() *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Output = io.Discard
	return applog.New(cfg)
}

func newLedger(t *testing.T, slot storage.Slot) *ledger.Ledger {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := ledger.New(storage.NewAdapter(slot, discard),
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithLogger(discard))
	if err := l.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return l
}

func newTestServer(t *testing.T, l Ledger, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	srv := NewServer(":0", l, opts)
	t.Cleanup(func() {
		srv.limiter.Stop()
		srv.caches.Stop()
	})
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

const groceries = `{"amount":12.5,"category":"food","date":"2025-03-01","paymentMode":"cash","payeeName":"Grocer"}`

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t, newLedger(t, memory.New("expenses")), Options{})

	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing request id header")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing security headers")
	}

	notReady := ledger.New(storage.NewAdapter(memory.New("x"), nil))
	srv = newTestServer(t, notReady, Options{})
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("uninitialized ledger readyz status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/expenses", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("uninitialized ledger list status=%d", rr.Code)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t, newLedger(t, memory.New("expenses")), Options{})

	rr := do(t, srv, http.MethodPost, "/api/expenses", groceries)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body)
	}
	created := decode[map[string]any](t, rr)
	id, _ := created["id"].(string)
	if id == "" || created["amount"] != 12.5 || created["category"] != "food" {
		t.Fatalf("unexpected created record: %v", created)
	}
	if _, ok := created["warning"]; ok {
		t.Fatalf("no warning expected on a durable write")
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}

	update := `{"amount":20,"category":"transport","date":"2025-03-02","paymentMode":"debit card","payeeName":"Metro","notes":"monthly"}`
	rr = do(t, srv, http.MethodPut, "/api/expenses/"+id, update)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body)
	}
	updated := decode[map[string]any](t, rr)
	if updated["id"] != id || updated["category"] != "transport" || updated["notes"] != "monthly" {
		t.Fatalf("unexpected updated record: %v", updated)
	}

	list := decode[struct {
		Expenses []map[string]any `json:"expenses"`
		Count    int              `json:"count"`
		Total    float64          `json:"total"`
	}](t, do(t, srv, http.MethodGet, "/api/expenses", ""))
	if list.Count != 1 || list.Total != 20 || len(list.Expenses) != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/expenses/"+id, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	// Removing an absent id is not an error.
	if rr := do(t, srv, http.MethodDelete, "/api/expenses/"+id, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("repeat delete status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/expenses/"+id, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPut, "/api/expenses/"+id, update); rr.Code != http.StatusNotFound {
		t.Fatalf("update after delete status=%d", rr.Code)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, newLedger(t, memory.New("expenses")), Options{})

	cases := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"malformed", `{"amount":`, http.StatusBadRequest, ""},
		{"unknown field", `{"amount":1,"bogus":true}`, http.StatusBadRequest, ""},
		{"empty", ``, http.StatusBadRequest, ""},
		{"missing amount", `{"category":"food","date":"2025-03-01","paymentMode":"cash","payeeName":"x"}`, http.StatusUnprocessableEntity, "amount"},
		{"negative amount", `{"amount":-1,"category":"food","date":"2025-03-01","paymentMode":"cash","payeeName":"x"}`, http.StatusUnprocessableEntity, "amount"},
		{"bad category", `{"amount":1,"category":"pets","date":"2025-03-01","paymentMode":"cash","payeeName":"x"}`, http.StatusUnprocessableEntity, "category"},
		{"bad payment", `{"amount":1,"category":"food","date":"2025-03-01","paymentMode":"barter","payeeName":"x"}`, http.StatusUnprocessableEntity, "paymentMode"},
		{"bad date", `{"amount":1,"category":"food","date":"yesterday","paymentMode":"cash","payeeName":"x"}`, http.StatusUnprocessableEntity, "date"},
		{"future date", `{"amount":1,"category":"food","date":"2030-01-01","paymentMode":"cash","payeeName":"x"}`, http.StatusUnprocessableEntity, "date"},
		{"blank payee", `{"amount":1,"category":"food","date":"2025-03-01","paymentMode":"cash","payeeName":"   "}`, http.StatusUnprocessableEntity, "payeeName"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tc.status, rr.Body)
			}
			if tc.field == "" {
				return
			}
			resp := decode[errorBody](t, rr)
			if _, ok := resp.Fields[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, resp.Fields)
			}
		})
	}

	list := decode[map[string]any](t, do(t, srv, http.MethodGet, "/api/expenses", ""))
	if list["count"] != float64(0) {
		t.Fatalf("rejected requests must not change the ledger: %v", list)
	}
}

func TestPersistenceFailureIsReportedAsWarning(t *testing.T) {
	srv := newTestServer(t, newLedger(t, &brokenSlot{Slot: memory.New("expenses")}), Options{})

	rr := do(t, srv, http.MethodPost, "/api/expenses", groceries)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d", rr.Code)
	}
	if rr.Header().Get(HeaderPersistenceWarning) == "" {
		t.Fatalf("missing persistence warning header")
	}
	created := decode[map[string]any](t, rr)
	if created["warning"] == nil {
		t.Fatalf("missing warning in body: %v", created)
	}
	id := created["id"].(string)

	rr = do(t, srv, http.MethodDelete, "/api/expenses/"+id, "")
	if rr.Code != http.StatusOK || rr.Header().Get(HeaderPersistenceWarning) == "" {
		t.Fatalf("delete status=%d header=%q", rr.Code, rr.Header().Get(HeaderPersistenceWarning))
	}
	if rr := do(t, srv, http.MethodGet, "/api/expenses/"+id, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("delete must apply in memory, got %d", rr.Code)
	}
}

func TestSummary(t *testing.T) {
	srv := newTestServer(t, newLedger(t, memory.New("expenses")), Options{})

	bodies := []string{
		`{"amount":10,"category":"food","date":"2025-03-01","paymentMode":"cash","payeeName":"A"}`,
		`{"amount":30,"category":"bills","date":"2025-03-02","paymentMode":"credit card","payeeName":"B"}`,
		`{"amount":60,"category":"food","date":"2025-03-03","paymentMode":"cash","payeeName":"C"}`,
	}
	for _, b := range bodies {
		if rr := do(t, srv, http.MethodPost, "/api/expenses", b); rr.Code != http.StatusCreated {
			t.Fatalf("seed status=%d body=%s", rr.Code, rr.Body)
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/summary?top=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d", rr.Code)
	}
	if rr.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first summary should miss the cache")
	}
	sum := decode[struct {
		Count          int                `json:"count"`
		Total          float64            `json:"total"`
		TotalFormatted string             `json:"totalFormatted"`
		ByCategory     map[string]float64 `json:"byCategory"`
		ByPaymentMode  map[string]float64 `json:"byPaymentMode"`
		Categories     []struct {
			Category string `json:"category"`
			Percent  int    `json:"percent"`
		} `json:"categories"`
		TopExpenses []struct {
			PayeeName string `json:"payeeName"`
		} `json:"topExpenses"`
	}](t, rr)

	if sum.Count != 3 || sum.Total != 100 || sum.TotalFormatted != "$100.00" {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if sum.ByCategory["food"] != 70 || sum.ByCategory["bills"] != 30 || sum.ByCategory["health"] != 0 {
		t.Fatalf("unexpected category totals: %v", sum.ByCategory)
	}
	if len(sum.ByCategory) != 7 || len(sum.ByPaymentMode) != 6 {
		t.Fatalf("every enumeration value must be present: %v %v", sum.ByCategory, sum.ByPaymentMode)
	}
	if len(sum.Categories) != 2 || sum.Categories[0].Category != "food" || sum.Categories[0].Percent != 70 {
		t.Fatalf("unexpected breakdown: %+v", sum.Categories)
	}
	if len(sum.TopExpenses) != 2 || sum.TopExpenses[0].PayeeName != "C" || sum.TopExpenses[1].PayeeName != "B" {
		t.Fatalf("unexpected top expenses: %+v", sum.TopExpenses)
	}

	if rr := do(t, srv, http.MethodGet, "/api/summary?top=2", ""); rr.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("repeat summary should hit the cache")
	}
	do(t, srv, http.MethodPost, "/api/expenses", bodies[0])
	rr = do(t, srv, http.MethodGet, "/api/summary?top=2", "")
	if rr.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("a mutation must invalidate the cached summary")
	}
	if got := decode[map[string]any](t, rr)["count"]; got != float64(4) {
		t.Fatalf("stale summary count %v", got)
	}

	if rr := do(t, srv, http.MethodGet, "/api/summary?top=abc", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad top status=%d", rr.Code)
	}
}

func TestMeta(t *testing.T) {
	srv := newTestServer(t, newLedger(t, memory.New("expenses")), Options{})
	meta := decode[metaResponse](t, do(t, srv, http.MethodGet, "/api/meta", ""))
	if len(meta.Categories) != 7 || len(meta.PaymentModes) != 6 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if meta.Categories[0].Name != "Food & Dining" || meta.Categories[0].Color == "" {
		t.Fatalf("unexpected first category: %+v", meta.Categories[0])
	}
}

func TestAuthProtectsAPIOnly(t *testing.T) {
	authn := auth.New("test-secret")
	srv := newTestServer(t, newLedger(t, memory.New("expenses")), Options{Auth: authn})

	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", rr.Code)
	}
	rr := do(t, srv, http.MethodGet, "/api/expenses", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status=%d", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("missing WWW-Authenticate header")
	}

	token, err := authn.Sign("alice", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(groceries))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("authenticated create status=%d body=%s", rr.Code, rr.Body)
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	srv := newTestServer(t, newLedger(t, memory.New("expenses")), Options{RateLimitPerMinute: 1})

	if rr := do(t, srv, http.MethodPost, "/api/expenses", groceries); rr.Code != http.StatusCreated {
		t.Fatalf("first create status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/expenses", groceries)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second create status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	// Reads are not limited.
	for i := 0; i < 3; i++ {
		if rr := do(t, srv, http.MethodGet, "/api/expenses", ""); rr.Code != http.StatusOK {
			t.Fatalf("read %d status=%d", i, rr.Code)
		}
	}
}

func TestShutdownStopsBackgroundWork(t *testing.T) {
	srv := NewServer(":0", newLedger(t, memory.New("expenses")), Options{Logger: quietLogger()})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

type failingListLedger struct{ *ledger.Ledger }

func (failingListLedger) List() ([]core.Expense, error) { return nil, errors.New("index corrupted") }

func TestUnexpectedErrorIsLoggedWithOperation(t *testing.T) {
	var buf bytes.Buffer
	cfg := applog.DefaultConfig()
	cfg.Output = &buf
	srv := newTestServer(t, failingListLedger{newLedger(t, memory.New("expenses"))}, Options{Logger: applog.New(cfg)})

	rr := do(t, srv, http.MethodGet, "/api/expenses", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "index corrupted") {
		t.Fatalf("internal error leaked to client: %s", rr.Body.String())
	}
	out := buf.String()
	for _, want := range []string{"Request failed", "error=\"index corrupted\"", "error_type=internal_error", "/api/expenses", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}
