package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?scenario=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.RunFilter{
		Scenario: q.Get("scenario"),
		Limit:    parseInt(q.Get("limit"), 50),
		Offset:   parseInt(q.Get("offset"), 0),
	}

	if status := q.Get("status"); status != "" {
		filter.Status = domain.RunStatus(status)
		switch filter.Status {
		case domain.RunStatusPending, domain.RunStatusRunning, domain.RunStatusSucceeded,
			domain.RunStatusFailed, domain.RunStatusCancelled:
		default:
			BadRequest(w, "invalid status")
			return
		}
	}

	runs, err := h.runner.List(r.Context(), filter)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runner.Get(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, RunFromDomain(*run))
}

// ListRunSamples возвращает отсчёты прогона.
// GET /api/v1/runs/{id}/samples?sink=...&limit=...
func (h *Handler) ListRunSamples(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	// Проверяем, что run существует
	if _, err := h.runner.Get(r.Context(), id); HandleError(w, h.logger, err) {
		return
	}

	q := r.URL.Query()
	samples, err := h.samples.ListByRun(r.Context(), id, q.Get("sink"), parseInt(q.Get("limit"), 1000))
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]SampleResponse, len(samples))
	for i, s := range samples {
		result[i] = SampleFromDomain(s)
	}

	List(w, result, len(result))
}

// parseInt парсит неотрицательное число с дефолтным значением.
func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
