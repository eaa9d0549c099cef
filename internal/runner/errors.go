package runner

import "errors"

// Ошибки раннера.
var (
	// ErrScenarioNotFound — сценарий с таким именем не загружен.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrDuplicateScenario — два сценария с одним именем.
	ErrDuplicateScenario = errors.New("duplicate scenario")

	// ErrInvalidSchedule — cron-выражение сценария не разбирается.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrRunNotFound — run не найден в хранилище.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunnerStopped — раннер остановлен.
	ErrRunnerStopped = errors.New("runner stopped")
)
