package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — один прогон сценария.
//
// Run создаётся когда:
// - Пользователь запускает сценарий вручную (через CLI или API)
// - Раннер запускает сценарий по расписанию
//
// Каждый run собирает модель заново из текста сети.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Scenario — имя сценария.
	Scenario string `json:"scenario"`

	// Model — имя модели из атрибута #[model(name = ...)].
	Model string `json:"model"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// State — фаза модели, достигнутая в этом run.
	State ModelState `json:"state"`

	// Actors — число акторов модели.
	Actors int `json:"actors"`

	// Reports — итог завершения каждого актора.
	Reports []ActorReport `json:"reports,omitempty"`

	// StartedAt — время запуска модели.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// ActorReport — итог задачи одного актора.
type ActorReport struct {
	Actor string          `json:"actor"`
	Kind  TerminationKind `json:"kind"`
	Error string          `json:"error,omitempty"`
}

// NewRun создаёт run в статусе PENDING.
func NewRun(scenario string) *Run {
	return &Run{
		ID:        uuid.New(),
		Scenario:  scenario,
		Status:    RunStatusPending,
		State:     ModelStateUnknown,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.State = ModelStateRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
}

// MarkCancelled переводит run в статус CANCELLED.
func (r *Run) MarkCancelled() {
	now := time.Now()
	r.Status = RunStatusCancelled
	r.FinishedAt = &now
}
