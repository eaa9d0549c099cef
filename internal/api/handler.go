package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/runner"
)

// SampleReader читает сохранённые отсчёты прогона.
// Реализация: repo.SampleRepo.
type SampleReader interface {
	ListByRun(ctx context.Context, runID uuid.UUID, sink string, limit int) ([]domain.Sample, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	runner   *runner.Runner
	samples  SampleReader
	scope    http.Handler
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Runner *runner.Runner

	// Samples — источник отсчётов для /runs/{id}/samples. Опционально.
	Samples SampleReader

	// Scope — websocket сервер осциллографов (scope.Hub). Опционально.
	Scope http.Handler

	// Gatherer — реестр метрик для /metrics (default: prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		runner:   cfg.Runner,
		samples:  cfg.Samples,
		scope:    cfg.Scope,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Health отвечает на проверку живости.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	Success(w, HealthResponse{
		Status:     "ok",
		Scenarios:  len(h.runner.Scenarios()),
		ActiveRuns: h.runner.ActiveRunsCount(),
	})
}

func (h *Handler) metrics() http.Handler {
	return promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})
}
