package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/romaneio-erp/romaneio/internal/aging"
	analytichttp "github.com/romaneio-erp/romaneio/internal/analytics/http"
	"github.com/romaneio-erp/romaneio/internal/financeiro"
	"github.com/romaneio-erp/romaneio/internal/masterdata"
	"github.com/romaneio-erp/romaneio/internal/observability"
	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	RomaneioHandler   *romaneio.Handler
	AgingHandler      *aging.Handler
	FinanceiroHandler *financeiro.Handler
	MasterDataHandler *masterdata.Handler
	AnalyticsHandler  *analytichttp.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults. Nil handlers are
// left unmounted.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.RomaneioHandler != nil {
		params.RomaneioHandler.MountRoutes(r)
	}
	if params.AgingHandler != nil {
		params.AgingHandler.MountRoutes(r)
	}
	if params.FinanceiroHandler != nil {
		params.FinanceiroHandler.MountRoutes(r)
	}
	if params.MasterDataHandler != nil {
		params.MasterDataHandler.MountRoutes(r)
	}
	if params.AnalyticsHandler != nil {
		params.AnalyticsHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
