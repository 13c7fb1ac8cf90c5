// Package httptransport assembles the HTTP surface: public evaluation,
// parameter administration, audit queries, health and metrics.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registrar is anything that mounts routes on the router. Each feature
// handler implements it.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires middleware and mounts every feature handler under
// /v1. Operational endpoints stay at the root.
func NewRouter(handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestTime)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		for _, h := range handlers {
			h.Register(v1)
		}
	})
	return r
}
