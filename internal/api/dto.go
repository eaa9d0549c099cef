package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Actors/internal/config"
	"github.com/shaiso/Actors/internal/domain"
)

// HealthResponse — ответ /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Scenarios  int    `json:"scenarios"`
	ActiveRuns int    `json:"active_runs"`
}

// Scenario DTOs

// ScenarioResponse — ответ со сценарием.
type ScenarioResponse struct {
	Name      string              `json:"name"`
	Schedule  string              `json:"schedule,omitempty"`
	NextRunAt *time.Time          `json:"next_run_at,omitempty"`
	Script    string              `json:"script,omitempty"`
	Clients   []config.ClientSpec `json:"clients,omitempty"`
}

// ScenarioFromConfig конвертирует config.Scenario в ScenarioResponse.
// Текст сети и клиенты включаются только при full.
func ScenarioFromConfig(s *config.Scenario, next *time.Time, full bool) ScenarioResponse {
	resp := ScenarioResponse{
		Name:      s.Name,
		Schedule:  s.Schedule,
		NextRunAt: next,
	}
	if full {
		resp.Script = s.Script
		resp.Clients = s.Clients
	}
	return resp
}

// Run DTOs

// RunResponse — ответ с run.
type RunResponse struct {
	ID         uuid.UUID            `json:"id"`
	Scenario   string               `json:"scenario"`
	Model      string               `json:"model,omitempty"`
	Status     string               `json:"status"`
	State      string               `json:"state"`
	Actors     int                  `json:"actors"`
	Reports    []domain.ActorReport `json:"reports,omitempty"`
	StartedAt  *time.Time           `json:"started_at,omitempty"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
	Duration   float64              `json:"duration_seconds,omitempty"`
	Error      string               `json:"error,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:         r.ID,
		Scenario:   r.Scenario,
		Model:      r.Model,
		Status:     string(r.Status),
		State:      string(r.State),
		Actors:     r.Actors,
		Reports:    r.Reports,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Duration:   r.Duration().Seconds(),
		Error:      r.Error,
		CreatedAt:  r.CreatedAt,
	}
}

// Sample DTOs

// SampleResponse — один отсчёт приёмника.
type SampleResponse struct {
	Sink   string    `json:"sink"`
	Port   string    `json:"port"`
	Step   int       `json:"step"`
	Values []float64 `json:"values"`
	At     time.Time `json:"at"`
}

// SampleFromDomain конвертирует domain.Sample в SampleResponse.
func SampleFromDomain(s domain.Sample) SampleResponse {
	return SampleResponse{
		Sink:   s.Sink,
		Port:   s.Port,
		Step:   s.Step,
		Values: s.Values,
		At:     s.At,
	}
}
