package model

import (
	"errors"
	"fmt"
)

// Ошибки проверки модели.
var (
	// ErrNoActors — модель не содержит акторов.
	ErrNoActors = errors.New("model has no actors")

	// ErrIOCountMismatch — число входов не равно числу выходов.
	ErrIOCountMismatch = errors.New("number of inputs and outputs do not match")

	// ErrHashMismatch — суммы хэшей входов и выходов различаются:
	// есть висящие или перепутанные соединения.
	ErrHashMismatch = errors.New("inputs and outputs hashes do not match")
)

// Ошибки жизненного цикла.
var (
	// ErrInvalidState — переход из текущей фазы невозможен.
	ErrInvalidState = errors.New("invalid model state transition")

	// ErrCancelled — модель разобрана отменой контекста.
	ErrCancelled = errors.New("model cancelled")
)

// CheckError — ошибка проверки с контекстом.
type CheckError struct {
	Model string // имя модели
	Actor string // актор, если ошибка относится к нему
	Err   error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *CheckError) Error() string {
	if e.Actor != "" {
		return fmt.Sprintf("model %s: actor %s: %v", e.Model, e.Actor, e.Err)
	}
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

// Unwrap возвращает базовую ошибку.
func (e *CheckError) Unwrap() error {
	return e.Err
}
