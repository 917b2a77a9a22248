package aging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/romaneio-erp/romaneio/internal/platform/httpx"
	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

// InvoiceSource loads normalized romaneios.
type InvoiceSource interface {
	Invoices(ctx context.Context, f romaneio.ListFilter) ([]romaneio.Invoice, error)
	Location() *time.Location
}

// Handler serves due-soon listings.
type Handler struct {
	logger *slog.Logger
	source InvoiceSource
	window int
	now    shared.Clock
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, source InvoiceSource, window int) *Handler {
	return &Handler{logger: logger, source: source, window: window, now: shared.SystemClock}
}

// WithNow overrides the clock.
func (h *Handler) WithNow(now shared.Clock) *Handler {
	h.now = now
	return h
}

// MountRoutes registers aging routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/romaneios/due-soon", h.dueSoon)
}

type dueSoonResponse struct {
	Today  string    `json:"today"`
	Window int       `json:"window_days"`
	Items  []DueItem `json:"items"`
}

func (h *Handler) dueSoon(w http.ResponseWriter, r *http.Request) {
	window := h.window
	if raw := r.URL.Query().Get("window"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			httpx.RespondError(w, fmt.Errorf("%w: invalid window %q", shared.ErrValidation, raw))
			return
		}
		window = v
	}
	if window <= 0 {
		window = DefaultDueSoonWindow
	}
	invoices, err := h.source.Invoices(r.Context(), romaneio.ListFilter{
		Statuses:   []romaneio.Status{romaneio.StatusPending},
		CompanyID:  r.URL.Query().Get("company_id"),
		CustomerID: r.URL.Query().Get("customer_id"),
	})
	if err != nil {
		if !httpx.IsCanceled(err) {
			h.logger.Error("due-soon load failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	now := h.now().In(h.source.Location())
	httpx.JSON(w, http.StatusOK, dueSoonResponse{
		Today:  Today(now).Format(shared.ISODate),
		Window: window,
		Items:  DueSoon(invoices, now, window),
	})
}
