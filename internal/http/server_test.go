package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fundreq/internal/core"
	"fundreq/internal/services"
	"fundreq/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := services.NewFundingService(storage.NewMemoryStore(), nil)
	s := NewServer(":0", svc, Options{RequestsPerMinute: 1000})
	t.Cleanup(func() {
		if err := s.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})
	return s
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func completeRequest() core.EventRequest {
	inv := core.Invoice{
		ID:       "inv-1",
		Vendor:   "Pizza Place",
		TaxCents: 550,
		TipCents: 1000,
		Files:    []core.FileRef{{Location: "https://files.example.org/invoice.pdf"}},
		Items: []core.InvoiceItem{
			{Description: "Large pizza", Quantity: 2, UnitPriceCents: 1599, TotalCents: 3198},
		},
	}
	var c core.InvoiceCollection
	c.Add(inv)

	return core.EventRequest{
		Name:        "Welcome Night",
		Location:    "Student Center",
		Date:        core.NewDate(2026, 10, 2),
		StartTime:   "18:00",
		EndTime:     "21:00",
		Description: "Kickoff social for new members",
		RoomBooked:  boolPtr(true),
		BookingConfirmation: []core.FileRef{
			{Location: "https://files.example.org/booking.pdf"},
		},
		Attendance: intPtr(120),
		FoodDrinks: boolPtr(true),
		ASFunding:  boolPtr(true),
		Invoices:   c,
	}
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.50:40000"
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d", path, rec.Code)
		}
	}
}

func TestBudgetEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/budget?attendance=600", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}

	var resp budgetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CalculatedCents != 600000 {
		t.Errorf("calculated = %d, want 600000", resp.CalculatedCents)
	}
	if resp.ActualCents != 500000 || !resp.AtMax {
		t.Errorf("expected capped estimate, got %+v", resp)
	}
	if resp.ActualBudget != "$5000.00" {
		t.Errorf("formatted actual = %q", resp.ActualBudget)
	}
}

func TestBudgetEndpointPerPersonOverride(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/budget?attendance=10&perPerson=12.50", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var resp budgetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CalculatedCents != 12500 {
		t.Errorf("calculated = %d, want 12500", resp.CalculatedCents)
	}
}

func TestBudgetEndpointRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/api/budget",
		"/api/budget?attendance=abc",
		"/api/budget?attendance=10&perPerson=-3",
	} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", path, rec.Code)
		}
	}
}

func TestImportInvoiceEndpoint(t *testing.T) {
	s := newTestServer(t)

	payload := `{"vendor":"Pizza Place","tax":5.50,"tip":10,"items":[{"description":"Large pizza","quantity":2,"unitPrice":15.99}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/invoices/import", strings.NewReader(payload))
	req.RemoteAddr = "203.0.113.50:40000"
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var inv core.Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inv.Vendor != "Pizza Place" || inv.TaxCents != 550 || inv.TipCents != 1000 {
		t.Errorf("unexpected invoice: %+v", inv)
	}
	if len(inv.Items) != 1 || inv.Items[0].TotalCents != 3198 {
		t.Errorf("unexpected items: %+v", inv.Items)
	}
}

func TestImportInvoiceEndpointRejectsBadPayload(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/invoices/import", strings.NewReader(`{"vendor":"X","items":[]}`))
	req.RemoteAddr = "203.0.113.50:40000"
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/requests/validate", completeRequest())
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var result core.ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected valid request, got %+v", result)
	}

	incomplete := completeRequest()
	incomplete.Name = ""
	rec = doJSON(t, s, http.MethodPost, "/api/requests/validate", incomplete)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Valid {
		t.Error("expected invalid result for missing name")
	}
	if _, ok := result.Fields["name"]; !ok {
		t.Errorf("expected a field error for name, got %v", result.Fields)
	}
}

func TestSubmitAndFetchRequest(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/requests", completeRequest())
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: got %d: %s", rec.Code, rec.Body.String())
	}
	var created submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.GrandTotalCents != 4748 {
		t.Errorf("grand total = %d, want 4748", created.GrandTotalCents)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/requests/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got %d: %s", rec.Code, rec.Body.String())
	}
	var fetched storedRequestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fetched.Request.Name != "Welcome Night" {
		t.Errorf("unexpected request: %+v", fetched.Request)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/requests", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d", rec.Code)
	}
	var summaries []storage.RequestSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "Welcome Night" {
		t.Errorf("unexpected summaries: %+v", summaries)
	}
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	s := newTestServer(t)

	incomplete := completeRequest()
	incomplete.Invoices = core.InvoiceCollection{}
	rec := doJSON(t, s, http.MethodPost, "/api/requests", incomplete)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want 422: %s", rec.Code, rec.Body.String())
	}
	var result core.ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Message != "Please add at least one invoice when requesting AS funding" {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestGetRequestNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/requests/99", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rec.Code)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	s := newTestServer(t)

	if rec := doJSON(t, s, http.MethodPost, "/api/requests", completeRequest()); rec.Code != http.StatusCreated {
		t.Fatalf("seed submit: got %d", rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/overview?year=2026&month=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var ov core.FundingOverview
	if err := json.Unmarshal(rec.Body.Bytes(), &ov); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ov.RequestCount != 1 || ov.Total.Cents != 4748 {
		t.Errorf("unexpected overview: %+v", ov)
	}

	// A submission for the same month invalidates the cached overview.
	if rec := doJSON(t, s, http.MethodPost, "/api/requests", completeRequest()); rec.Code != http.StatusCreated {
		t.Fatalf("second submit: got %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/overview?year=2026&month=10", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &ov); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ov.RequestCount != 2 {
		t.Errorf("expected refreshed overview with 2 requests, got %+v", ov)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/overview?year=2026&month=13", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("month 13: got %d, want 400", rec.Code)
	}
}
