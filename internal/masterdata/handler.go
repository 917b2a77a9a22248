package masterdata

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/romaneio-erp/romaneio/internal/platform/httpx"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

// Handler manages master data endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api/masterdata/{kind}", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (Kind, bool) {
	kind, ok := ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("registry %q: %w", chi.URLParam(r, "kind"), shared.ErrNotFound))
	}
	return kind, ok
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	filters := ListFilters{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpx.RespondError(w, fmt.Errorf("%w: limit must be a non-negative integer", shared.ErrValidation))
			return
		}
		filters.Limit = limit
	}
	records, err := h.service.List(r.Context(), kind, filters)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	var (
		rec Record
		err error
	)
	if kind == KindProducts {
		var in ProductInput
		if err = httpx.DecodeJSON(r, &in); err == nil {
			rec, err = h.service.CreateProduct(r.Context(), in)
		}
	} else {
		var in PartyInput
		if err = httpx.DecodeJSON(r, &in); err == nil {
			rec, err = h.service.CreateParty(r.Context(), kind, in)
		}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("masterdata record created", slog.String("kind", string(kind)), slog.String("id", rec.ID))
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if httpx.IsCanceled(err) {
		return
	}
	h.logger.Warn("masterdata request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.RespondError(w, err)
}
