package domain

// ModelState — фаза жизненного цикла модели.
//
// Жизненный цикл:
//
//	UNKNOWN → READY → RUNNING → COMPLETED
//
// UNKNOWN — накопление акторов и соединений, READY — топология
// проверена и заморожена, RUNNING — задачи запущены,
// COMPLETED — все задачи завершились.
type ModelState string

const (
	// ModelStateUnknown — модель собирается, проверка не выполнялась.
	ModelStateUnknown ModelState = "UNKNOWN"

	// ModelStateReady — модель проверена, топология заморожена.
	ModelStateReady ModelState = "READY"

	// ModelStateRunning — задачи акторов запущены.
	ModelStateRunning ModelState = "RUNNING"

	// ModelStateCompleted — все задачи завершились.
	ModelStateCompleted ModelState = "COMPLETED"
)

// String возвращает строковое представление ModelState.
func (s ModelState) String() string {
	return string(s)
}

// ParseModelState парсит строку в ModelState.
// Принимает и имена атрибута сети (ready, running, completed).
func ParseModelState(s string) (ModelState, bool) {
	switch s {
	case "UNKNOWN", "unknown":
		return ModelStateUnknown, true
	case "READY", "ready":
		return ModelStateReady, true
	case "RUNNING", "running":
		return ModelStateRunning, true
	case "COMPLETED", "completed":
		return ModelStateCompleted, true
	default:
		return "", false
	}
}

// RunStatus — статус прогона сценария.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//	          (или) → CANCELLED (из PENDING или RUNNING)
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — модель запущена.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все акторы завершились штатно.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — проверка или исполнение завершились ошибкой.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusCancelled — run отменён остановкой раннера.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// TerminationKind — вид завершения задачи актора.
type TerminationKind string

const (
	// TerminationStreamEnd — поток закончился: клиент не выдал данных
	// или соседний актор закрыл канал. Штатное завершение.
	TerminationStreamEnd TerminationKind = "stream_end"

	// TerminationCancelled — модель разобрана через отмену контекста.
	TerminationCancelled TerminationKind = "cancelled"

	// TerminationFailed — ошибка клиента (panic) или иная ошибка.
	TerminationFailed TerminationKind = "failed"
)
