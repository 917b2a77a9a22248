package financeiro

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/romaneio-erp/romaneio/internal/platform/httpx"
)

// Handler manages producer payment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers financeiro routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api/financeiro", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/payments", h.createPayment)
		r.Put("/payments/{id}", h.updatePayment)
		r.Delete("/payments/{id}", h.deletePayment)
	})
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Load(r.Context(), ViewFilter{
		ProducerID: r.URL.Query().Get("producer_id"),
		RomaneioID: r.URL.Query().Get("romaneio_id"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var in PaymentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.CreatePayment(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	var in PaymentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.UpdatePayment(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePayment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var confirm *ConfirmationRequiredError
	switch {
	case httpx.IsCanceled(err):
		return
	case errors.As(err, &confirm):
		h.logger.Info("payment needs confirmation", slog.String("outcome", string(confirm.Check.Outcome)))
	default:
		h.logger.Error("financeiro request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
