package romaneio

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/romaneio-erp/romaneio/internal/platform/httpx"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

// Handler exposes romaneio endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers romaneio routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/romaneios", h.list)
	r.Get("/api/romaneios/{id}", h.get)
	r.Delete("/api/romaneios/{id}", h.delete)
}

type listResponse struct {
	Items []InvoiceView `json:"items"`
	Count int           `json:"count"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseListFilter(r.URL.Query(), h.service.Location())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Count: len(items)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if httpx.IsCanceled(err) {
		return
	}
	h.logger.Error("romaneio request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.RespondError(w, err)
}

// ParseListFilter reads list filters from query parameters. Statuses are
// comma separated; dates accept any supported format.
func ParseListFilter(q url.Values, loc *time.Location) (ListFilter, error) {
	var f ListFilter
	for _, raw := range strings.Split(q.Get("status"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		status := Status(strings.ToUpper(raw))
		if !containsStatus(Statuses, status) {
			return ListFilter{}, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, raw)
		}
		f.Statuses = append(f.Statuses, status)
	}
	if kind := strings.ToUpper(strings.TrimSpace(q.Get("kind"))); kind != "" {
		if Kind(kind) != KindSale && Kind(kind) != KindPurchase {
			return ListFilter{}, fmt.Errorf("%w: unknown kind %q", shared.ErrValidation, kind)
		}
		f.Kind = Kind(kind)
	}
	f.CompanyID = strings.TrimSpace(q.Get("company_id"))
	f.CustomerID = strings.TrimSpace(q.Get("customer_id"))
	f.ProducerID = strings.TrimSpace(q.Get("producer_id"))
	for _, p := range []struct {
		name string
		dst  *string
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		iso := shared.ToISODate(raw, loc)
		if iso == "" {
			return ListFilter{}, fmt.Errorf("%w: invalid %s date %q", shared.ErrValidation, p.name, raw)
		}
		*p.dst = iso
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return ListFilter{}, fmt.Errorf("%w: invalid limit %q", shared.ErrValidation, raw)
		}
		f.Limit = limit
	}
	return f, nil
}
