package api

import (
	"net/http"
	"time"

	"github.com/shaiso/Actors/internal/graph"
)

// ListScenarios возвращает загруженные сценарии.
// GET /api/v1/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := h.runner.Scenarios()

	result := make([]ScenarioResponse, len(scenarios))
	for i, sc := range scenarios {
		result[i] = ScenarioFromConfig(sc, h.nextRun(sc.Name), false)
	}

	List(w, result, len(result))
}

// GetScenario возвращает сценарий с текстом сети.
// GET /api/v1/scenarios/{name}
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := h.runner.Scenario(r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, ScenarioFromConfig(sc, h.nextRun(sc.Name), true))
}

// GetProgram возвращает скомпилированную программу сценария:
// акторы с выведенными частотами и провода.
// GET /api/v1/scenarios/{name}/program
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	res, err := h.runner.Check(r.Context(), r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, res.Program)
}

// GetGraph возвращает граф модели сценария.
// С ?format=dot отдаётся текст Graphviz.
// GET /api/v1/scenarios/{name}/graph
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := h.runner.Graph(r.Context(), r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		Success(w, g)
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(g.DOT(graph.ThemeFromEnv())))
	default:
		BadRequest(w, "format must be json or dot")
	}
}

// CreateRun запускает сценарий в фоне.
// POST /api/v1/scenarios/{name}/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runner.Trigger(r.Context(), r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}

	h.logger.Info("run triggered", "run_id", run.ID, "scenario", run.Scenario)
	JSON(w, http.StatusAccepted, DataResponse{Data: RunFromDomain(*run)})
}

func (h *Handler) nextRun(name string) *time.Time {
	next, ok := h.runner.NextRun(name)
	if !ok {
		return nil
	}
	return &next
}
