package grpcweb

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"doctor-booking-api/internal/handler"
)

type RouterConfig struct {
	Bridge         *Bridge
	MetricsHandler http.Handler
}

// NewRouter serves the bridge next to the health and metrics endpoints on
// the web port.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Bridge != nil {
		r.Handle("/"+handler.ServiceName+"/*", cfg.Bridge.Handler())
	}
	return r
}
