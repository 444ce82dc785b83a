package media

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/majiix/wtingest/internal/platform/logger"
	"github.com/majiix/wtingest/internal/platform/metrics"
)

// NewRouter mounts the media, status and metrics endpoints.
func NewRouter(h *Handler, log *slog.Logger, m *metrics.Metrics) *chi.Mux {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	if m != nil {
		r.Use(metrics.RequestMiddleware(m))
		r.Method("GET", "/metrics", m.Handler())
	}

	r.Get("/healthz", h.Healthz)
	r.Get("/media/*", h.ServeMedia)
	r.Route("/ingest", func(r chi.Router) {
		r.Get("/sessions", h.ListSessions)
		r.Post("/{asset_id}/transcode", h.Transcode)
	})
	return r
}
