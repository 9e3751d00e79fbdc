package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mongopad/mongopad/core/domain"
	"github.com/mongopad/mongopad/core/logger"
	"github.com/mongopad/mongopad/core/runtime/runner"
	"github.com/mongopad/mongopad/core/storage"
)

// ScriptRunner executes code and records one history row per attempt
type ScriptRunner interface {
	Run(ctx context.Context, code string, kind domain.ScriptType, scriptID *int) (*runner.Outcome, error)
}

// Handlers bundles the route dependencies: the repository and the runner
type Handlers struct {
	store  storage.Store
	runner ScriptRunner
	log    *logger.Logger
}

// RegisterRoutes registers all HTTP routes
func RegisterRoutes(r *chi.Mux, store storage.Store, run ScriptRunner) {
	log := logger.New("routes")
	log.Infof("Registering HTTP routes")

	h := &Handlers{store: store, runner: run, log: logger.New("handler")}

	r.Route("/api", func(r chi.Router) {
		r.Route("/scripts", func(r chi.Router) {
			r.Get("/", h.listScripts)
			r.Post("/", h.createScript)
			r.Get("/{id}", h.getScript)
			r.Put("/{id}", h.updateScript)
			r.Delete("/{id}", h.deleteScript)
		})

		r.Post("/execute", h.execute)

		r.Route("/executions", func(r chi.Router) {
			r.Get("/", h.listExecutions)
			r.Get("/{id}", h.getExecution)
			r.Get("/{id}/export", h.exportExecution)
		})
	})

	// Health and metrics
	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	log.Debugf("Routes registered")
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
