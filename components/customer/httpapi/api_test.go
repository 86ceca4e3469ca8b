package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	customer "github.com/goliatone/go-customer-dashboard/components/customer"
	"github.com/goliatone/go-customer-dashboard/components/customer/commands"
	"github.com/goliatone/go-customer-dashboard/components/customer/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubQuerier[T any, R any] struct {
	last   T
	calls  int
	result R
	err    error
}

func (s *stubQuerier[T, R]) Query(ctx context.Context, msg T) (R, error) {
	s.last = msg
	s.calls++
	return s.result, s.err
}

func decodeMethod(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHandleMethodReturnsMessage(t *testing.T) {
	dashboard := &stubQuerier[queries.DashboardInput, string]{result: "<div>cards</div>"}
	api := &Handlers{Dashboard: dashboard}
	req := httptest.NewRequest(http.MethodPost, MethodPath, strings.NewReader(`{"customer":"CUST-001"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "es-MX,es;q=0.8")
	rec := httptest.NewRecorder()
	api.HandleMethod(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeMethod(t, rec)
	if body["message"] != "<div>cards</div>" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if dashboard.last.Customer != "CUST-001" || dashboard.last.Locale != "es-mx" {
		t.Fatalf("unexpected query input %+v", dashboard.last)
	}
}

func TestHandleMethodEmptyResultIsNullMessage(t *testing.T) {
	dashboard := &stubQuerier[queries.DashboardInput, string]{}
	api := &Handlers{Dashboard: dashboard}
	form := url.Values{"customer": {"CUST-404"}}
	req := httptest.NewRequest(http.MethodPost, MethodPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	api.HandleMethod(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeMethod(t, rec)
	if msg, ok := body["message"]; !ok || msg != nil {
		t.Fatalf("expected null message, got %v", body)
	}
	if dashboard.last.Customer != "CUST-404" {
		t.Fatalf("expected form customer, got %q", dashboard.last.Customer)
	}
}

func TestHandleMethodMissingCustomer(t *testing.T) {
	dashboard := &stubQuerier[queries.DashboardInput, string]{}
	api := &Handlers{Dashboard: dashboard}
	req := httptest.NewRequest(http.MethodGet, MethodPath, nil)
	rec := httptest.NewRecorder()
	api.HandleMethod(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeMethod(t, rec); body["exc"] == nil {
		t.Fatalf("expected exc field, got %v", body)
	}
	if dashboard.calls != 0 {
		t.Fatalf("expected no query")
	}
}

func TestHandleMethodBackendFailure(t *testing.T) {
	dashboard := &stubQuerier[queries.DashboardInput, string]{err: errors.New("db down")}
	api := &Handlers{Dashboard: dashboard}
	req := httptest.NewRequest(http.MethodGet, MethodPath+"?customer=CUST-001", nil)
	rec := httptest.NewRecorder()
	api.HandleMethod(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeMethod(t, rec); body["exc"] != "db down" {
		t.Fatalf("unexpected exc %v", body["exc"])
	}
}

func TestHandleFragment(t *testing.T) {
	dashboard := &stubQuerier[queries.DashboardInput, string]{result: "<b>X</b>"}
	api := &Handlers{Dashboard: dashboard}
	rec := httptest.NewRecorder()
	api.HandleFragment(rec, httptest.NewRequest(http.MethodGet, "/customers/CUST-001/dashboard", nil), "CUST-001")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected html content type, got %s", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "<b>X</b>" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	dashboard.result = ""
	rec = httptest.NewRecorder()
	api.HandleFragment(rec, httptest.NewRequest(http.MethodGet, "/customers/CUST-404/dashboard", nil), "CUST-404")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestHandleSummaryMapsErrors(t *testing.T) {
	summary := &stubQuerier[queries.SummaryInput, customer.Summary]{
		err: fmt.Errorf("lookup: %w", customer.ErrCustomerNotFound),
	}
	api := &Handlers{Summary: summary}
	rec := httptest.NewRecorder()
	api.HandleSummary(rec, httptest.NewRequest(http.MethodGet, "/customers/nope/summary", nil), "nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMountRoutesRequests(t *testing.T) {
	summary := &stubQuerier[queries.SummaryInput, customer.Summary]{
		result: customer.Summary{Customer: "CUST-001", Open: 3, Unbilled: 1},
	}
	invalidate := &stubCommander[commands.InvalidateDashboardInput]{}
	api := &Handlers{
		Dashboard:  &stubQuerier[queries.DashboardInput, string]{},
		Summary:    summary,
		Invalidate: invalidate,
	}
	mux := http.NewServeMux()
	api.Mount(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/CUST-001/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got customer.Summary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if got.Open != 3 || summary.last.Customer != "CUST-001" {
		t.Fatalf("unexpected summary %+v", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/CUST-001/dashboard/invalidate?reason=invoice", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if invalidate.last.Customer != "CUST-001" || invalidate.last.Reason != "invoice" {
		t.Fatalf("unexpected invalidate input %+v", invalidate.last)
	}
}
