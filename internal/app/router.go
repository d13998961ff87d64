package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/tallyprep/tallyprep/internal/bulkimport"
	"github.com/tallyprep/tallyprep/internal/catalog"
	"github.com/tallyprep/tallyprep/internal/export"
	"github.com/tallyprep/tallyprep/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	CatalogHandler *catalog.Handler
	BulkHandler    *bulkimport.Handler
	ExportHandler  *export.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/catalog", params.CatalogHandler.Routes)
	r.Route("/bulk", params.BulkHandler.Routes)
	r.Route("/export", func(r chi.Router) {
		if params.Config != nil && params.Config.ExportRateLimit > 0 {
			r.Use(httprate.LimitByIP(params.Config.ExportRateLimit, params.Config.ExportRateEvery))
		}
		params.ExportHandler.Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such route")
	})
	return r
}
