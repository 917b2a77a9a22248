package aging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

var brt = time.FixedZone("BRT", -3*60*60)

func at(day string, hour int) time.Time {
	d, err := time.ParseInLocation(shared.ISODate, day, brt)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour) * time.Hour)
}

func TestDaysUntilDue(t *testing.T) {
	now := at("2024-02-27", 15)
	cases := []struct {
		due  string
		want int
		ok   bool
	}{
		{"2024-03-01", 3, true},
		{"01/03/2024", 3, true},
		{"2024-02-27", 0, true},
		{"2024-02-20", -7, true},
		{"2024-03-01T23:59:00Z", 3, true},
		{"9999-12-31", 2913116, true},
		{"0024-03-01", -730482, true},
		{"", 0, false},
		{"sem data", 0, false},
	}
	for _, tc := range cases {
		got, ok := DaysUntilDue(tc.due, now)
		assert.Equal(t, tc.ok, ok, tc.due)
		assert.Equal(t, tc.want, got, tc.due)
	}
}

func TestDaysUntilDueUsesLocalMidnight(t *testing.T) {
	// 01:00 UTC on the 28th is still the 27th in Brazil.
	now := time.Date(2024, 2, 28, 1, 0, 0, 0, time.UTC).In(brt)
	days, ok := DaysUntilDue("2024-03-01", now)
	require.True(t, ok)
	require.Equal(t, 3, days)
}

func TestDueSoon(t *testing.T) {
	now := at("2024-02-27", 9)
	invoices := []romaneio.Invoice{
		{ID: "a", Number: "R-10", Status: romaneio.StatusPending, DueDate: "2024-03-01"},
		{ID: "b", Number: "R-9", Status: romaneio.StatusPending, DueDate: "2024-03-01"},
		{ID: "c", Number: "R-1", Status: romaneio.StatusPending, DueDate: "2024-03-02"},
		{ID: "d", Number: "R-2", Status: romaneio.StatusDone, DueDate: "2024-02-20"},
		{ID: "e", Number: "R-3", Status: romaneio.StatusPending, DueDate: "2024-02-25"},
		{ID: "f", Number: "R-4", Status: romaneio.StatusPending},
		{ID: "g", Number: "R-5", Status: romaneio.StatusPending, DueDate: "2024-02-27"},
	}
	items := DueSoon(invoices, now, 0)
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	require.Equal(t, []string{"e", "g", "b", "a"}, ids)
	require.True(t, items[0].Overdue)
	require.Equal(t, -2, items[0].DaysUntilDue)
	require.False(t, items[1].Overdue)
	require.Equal(t, 3, items[3].DaysUntilDue)

	wider := DueSoon(invoices, now, 4)
	require.Len(t, wider, 5)
}

func TestPendingAgeIsCountedForward(t *testing.T) {
	now := at("2024-03-10", 12)
	age, ok := PendingAgeDays("2024-03-01", now)
	require.True(t, ok)
	require.Equal(t, 9, age)

	days, ok := DaysUntilDue("2024-03-01", now)
	require.True(t, ok)
	require.Equal(t, -9, days)
}

func TestSummarizePending(t *testing.T) {
	now := at("2024-03-10", 12)
	invoices := []romaneio.Invoice{
		{ID: "old", Status: romaneio.StatusPending, SaleDate: "2024-03-01", EmissionDate: "2024-02-01"},
		{ID: "edge", Status: romaneio.StatusPending, EmissionDate: "2024-03-07"},
		{ID: "fresh", Status: romaneio.StatusPending, CreatedDate: "2024-03-09"},
		{ID: "undated", Status: romaneio.StatusPending},
		{ID: "done", Status: romaneio.StatusDone, SaleDate: "2023-01-01"},
	}
	summary := SummarizePending(invoices, now, 0)
	require.Equal(t, 4, summary.Pending)
	require.Equal(t, 1, summary.Stale)
	require.Equal(t, 1, summary.UndatedPending)
	require.NotNil(t, summary.OldestAgeDays)
	require.Equal(t, 9, *summary.OldestAgeDays)
	require.Equal(t, "old", summary.OldestID)
	require.Equal(t, DefaultPendingAgeThreshold, summary.ThresholdDays)

	empty := SummarizePending(nil, now, 3)
	require.Nil(t, empty.OldestAgeDays)
	require.Zero(t, empty.Pending)
}

type staticSource struct {
	invoices []romaneio.Invoice
	filter   romaneio.ListFilter
}

func (s *staticSource) Invoices(_ context.Context, f romaneio.ListFilter) ([]romaneio.Invoice, error) {
	s.filter = f
	return s.invoices, nil
}

func (s *staticSource) Location() *time.Location { return brt }

func TestDueSoonHandler(t *testing.T) {
	source := &staticSource{invoices: []romaneio.Invoice{
		{ID: "a", Number: "R-1", Status: romaneio.StatusPending, DueDate: "2024-03-01"},
		{ID: "b", Number: "R-2", Status: romaneio.StatusPending, DueDate: "2024-03-09"},
	}}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), source, DefaultDueSoonWindow).
		WithNow(shared.FixedClock(time.Date(2024, 2, 27, 12, 0, 0, 0, time.UTC)))
	r := chi.NewRouter()
	h.MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/romaneios/due-soon?company_id=c1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "c1", source.filter.CompanyID)
	require.Equal(t, []romaneio.Status{romaneio.StatusPending}, source.filter.Statuses)

	var body struct {
		Today string `json:"today"`
		Items []struct {
			ID   string `json:"id"`
			Days int    `json:"days_until_due"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2024-02-27", body.Today)
	require.Len(t, body.Items, 1)
	require.Equal(t, "a", body.Items[0].ID)
	require.Equal(t, 3, body.Items[0].Days)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/romaneios/due-soon?window=x", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
