package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tutomart/pricescout/internal/metrics"
)

// NewRouter assembles the HTTP surface: scrape endpoints, health and the
// metrics exposition. The request timeout is long because a full
// multi-site run legitimately takes minutes.
func NewRouter(h *Handlers, m *metrics.Metrics, requestTimeout time.Duration) chi.Router {
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Minute
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/scrape", h.Scrape)
		r.Post("/scrape/bulk", h.ScrapeBulk)
		r.Get("/sites", h.Sites)
		r.Get("/history", h.History)
	})

	return r
}
