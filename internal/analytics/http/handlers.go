package analytichttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/romaneio-erp/romaneio/internal/analytics"
	"github.com/romaneio-erp/romaneio/internal/analytics/export"
	"github.com/romaneio-erp/romaneio/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// DashboardService defines the dashboard data contract used by the handler.
type DashboardService interface {
	Snapshot(ctx context.Context, f analytics.SnapshotFilter) (analytics.Snapshot, error)
}

// Handler coordinates HTTP requests for the romaneio dashboard.
type Handler struct {
	logger  *slog.Logger
	service DashboardService
	csvPool sync.Pool
	timeout time.Duration
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService) *Handler {
	h := &Handler{logger: logger, service: service, timeout: requestTimeout}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithTimeout overrides the per-request load deadline.
func (h *Handler) WithTimeout(d time.Duration) {
	if d > 0 {
		h.timeout = d
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteSnapshotCSV(buf, snap); err != nil {
		h.logError("write snapshot csv", err)
		httpx.RespondError(w, err)
		return
	}

	filename := fmt.Sprintf("romaneio-dashboard-%s.csv", snap.Date)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if len(snap.Warnings) > 0 {
		w.Header().Set("X-Partial-Load", joinSources(snap))
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (analytics.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter := analytics.SnapshotFilter{
		Date:      strings.TrimSpace(r.URL.Query().Get("date")),
		CompanyID: strings.TrimSpace(r.URL.Query().Get("company_id")),
	}
	snap, err := h.service.Snapshot(ctx, filter)
	if err != nil {
		if !httpx.IsCanceled(err) {
			h.logError("load dashboard", err)
		}
		httpx.RespondError(w, err)
		return analytics.Snapshot{}, false
	}
	return snap, true
}

func joinSources(snap analytics.Snapshot) string {
	sources := make([]string, 0, len(snap.Warnings))
	for _, w := range snap.Warnings {
		sources = append(sources, w.Source)
	}
	return strings.Join(sources, ",")
}

func (h *Handler) logError(msg string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Error("analytics handler", slog.String("op", msg), slog.Any("error", err))
}
