package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		RequestID(),
		Logging(h.logger),
	)

	// Service
	mux.Handle("GET /healthz", chain(http.HandlerFunc(h.Health)))
	mux.Handle("GET /metrics", h.metrics())

	// Scenarios
	mux.Handle("GET /api/v1/scenarios", chain(http.HandlerFunc(h.ListScenarios)))
	mux.Handle("GET /api/v1/scenarios/{name}", chain(http.HandlerFunc(h.GetScenario)))
	mux.Handle("GET /api/v1/scenarios/{name}/program", chain(http.HandlerFunc(h.GetProgram)))
	mux.Handle("GET /api/v1/scenarios/{name}/graph", chain(http.HandlerFunc(h.GetGraph)))
	mux.Handle("POST /api/v1/scenarios/{name}/runs", chain(http.HandlerFunc(h.CreateRun)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	if h.samples != nil {
		mux.Handle("GET /api/v1/runs/{id}/samples", chain(http.HandlerFunc(h.ListRunSamples)))
	}

	// Scope
	if h.scope != nil {
		mux.Handle("GET /scope", Recovery(h.logger)(h.scope))
	}
}
