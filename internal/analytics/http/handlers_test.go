package analytichttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/romaneio-erp/romaneio/internal/analytics"
	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

type stubService struct {
	snap  analytics.Snapshot
	err   error
	calls []analytics.SnapshotFilter
}

func (s *stubService) Snapshot(ctx context.Context, f analytics.SnapshotFilter) (analytics.Snapshot, error) {
	s.calls = append(s.calls, f)
	if s.err != nil {
		return analytics.Snapshot{}, s.err
	}
	return s.snap, nil
}

func newTestRouter(service DashboardService) http.Handler {
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), service).MountRoutes(r)
	return r
}

func sampleSnapshot() analytics.Snapshot {
	return analytics.Snapshot{
		Date:         "2024-03-10",
		RevenueToday: decimal.NewFromInt(500),
		Trailing:     []analytics.SeriesPoint{{Date: "2024-03-10", Total: decimal.NewFromInt(500)}},
		Distribution: []analytics.StatusCount{{Status: romaneio.StatusDone, Count: 1, Loaded: true}},
	}
}

func TestDashboardJSON(t *testing.T) {
	svc := &stubService{snap: sampleSnapshot()}
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard?date=2024-03-10&company_id=c1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["revenue_today"] != "500" {
		t.Fatalf("unexpected revenue %v", body["revenue_today"])
	}
	if body["delta_percent"] != nil {
		t.Fatalf("expected null delta, got %v", body["delta_percent"])
	}
	if got := svc.calls[0]; got.Date != "2024-03-10" || got.CompanyID != "c1" {
		t.Fatalf("unexpected filter %+v", got)
	}
}

func TestDashboardErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(&stubService{err: shared.ErrValidation}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard?date=bad", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	newTestRouter(&stubService{err: errors.New("boom")}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestCSVExport(t *testing.T) {
	snap := sampleSnapshot()
	snap.Warnings = []shared.LoadWarning{{Source: "canceled", Message: "denied"}}
	rr := httptest.NewRecorder()
	newTestRouter(&stubService{snap: snap}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard/export.csv", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "romaneio-dashboard-2024-03-10.csv") {
		t.Fatalf("unexpected disposition %s", cd)
	}
	if got := rr.Header().Get("X-Partial-Load"); got != "canceled" {
		t.Fatalf("expected partial load header, got %q", got)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Metric,Value") {
		t.Fatalf("expected summary section in CSV")
	}
	if !strings.Contains(body, "Date,Revenue") {
		t.Fatalf("expected series section in CSV")
	}
}

func TestCSVExportRateLimited(t *testing.T) {
	router := newTestRouter(&stubService{snap: sampleSnapshot()})
	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/export.csv", nil)
		req.RemoteAddr = "10.0.0.9:5000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", last)
	}
}
