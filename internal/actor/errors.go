package actor

import (
	"errors"
	"fmt"
)

// Ошибки каналов. Для актора это штатный сигнал завершения потока.
var (
	// ErrDropRecv — отправитель ушёл (поток закрыт) или модель разобрана.
	ErrDropRecv = errors.New("input receiver dropped")

	// ErrDropSend — отправка прервана разбором модели.
	ErrDropSend = errors.New("output sender dropped")

	// ErrDisconnected — получатель ушёл во время отправки.
	ErrDisconnected = errors.New("output disconnected")
)

// Ошибки данных.
var (
	// ErrNoData — клиент не выдал значение для выхода (Write вернул none).
	ErrNoData = errors.New("no new data produced")
)

// Ошибки конструирования и проверки.
var (
	// ErrRateRatio — частоты не делятся друг на друга нацело.
	ErrRateRatio = errors.New("input and output rates are not integer multiples")

	// ErrUnnamedSampler — сэмплер создан без имени.
	ErrUnnamedSampler = errors.New("sampler name is required")

	// ErrInvalidRate — отрицательная частота.
	ErrInvalidRate = errors.New("rate must be non-negative")

	// ErrNoIO — актор без входов и без выходов.
	ErrNoIO = errors.New("actor has neither inputs nor outputs")

	// ErrSomeInputsZeroRate — входы есть, а входная частота равна нулю.
	ErrSomeInputsZeroRate = errors.New("actor has inputs but a zero input rate")

	// ErrNoInputsPositiveRate — входов нет, а входная частота положительна.
	ErrNoInputsPositiveRate = errors.New("actor has no inputs but a positive input rate")

	// ErrSomeOutputsZeroRate — выходы есть, а выходная частота равна нулю.
	ErrSomeOutputsZeroRate = errors.New("actor has outputs but a zero output rate")

	// ErrNoOutputsPositiveRate — выходов нет, а выходная частота положительна.
	ErrNoOutputsPositiveRate = errors.New("actor has no outputs but a positive output rate")

	// ErrNotReader — клиент получателя не умеет читать (нет Read).
	ErrNotReader = errors.New("client does not implement Reader")

	// ErrNotWriter — клиент отправителя не умеет писать (нет Write).
	ErrNotWriter = errors.New("client does not implement Writer")

	// ErrSizeMismatch — объявленные размеры порта на концах соединения различаются.
	ErrSizeMismatch = errors.New("port size mismatch")

	// ErrFrozen — соединение актора, который уже запущен.
	ErrFrozen = errors.New("actor wiring is frozen")
)

// Error — ошибка актора с контекстом.
type Error struct {
	Actor string // имя актора
	Port  string // порт, если ошибка связана с каналом
	Err   error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("actor %s: port %s: %v", e.Actor, e.Port, e.Err)
	}
	return fmt.Sprintf("actor %s: %v", e.Actor, e.Err)
}

// Unwrap возвращает базовую ошибку.
func (e *Error) Unwrap() error {
	return e.Err
}

// ClientPanicError — panic внутри вызова клиента, превращённый в ошибку.
type ClientPanicError struct {
	Call  string // Update, Read или Write
	Port  string // порт для Read/Write
	Value any    // значение, переданное в panic
	Stack []byte
}

// Error реализует интерфейс error.
func (e *ClientPanicError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("client panicked in %s(%s): %v", e.Call, e.Port, e.Value)
	}
	return fmt.Sprintf("client panicked in %s: %v", e.Call, e.Value)
}

// IsStreamEnd проверяет, что ошибка означает штатный конец потока:
// ошибку канала или отсутствие данных.
func IsStreamEnd(err error) bool {
	return errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrDropRecv) ||
		errors.Is(err, ErrDropSend) ||
		errors.Is(err, ErrDisconnected)
}
