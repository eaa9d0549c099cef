package network

import (
	"errors"
	"fmt"
)

// Ошибки разбора сети.
var (
	// ErrSyntax — текст сети не соответствует грамматике.
	ErrSyntax = errors.New("syntax error")

	// ErrUnknownOption — неизвестный флаг выхода.
	ErrUnknownOption = errors.New("unknown output option")

	// ErrUnknownAttribute — неизвестный ключ атрибута модели.
	ErrUnknownAttribute = errors.New("unknown model attribute")

	// ErrInvalidState — недопустимое значение state.
	ErrInvalidState = errors.New("invalid model state")

	// ErrInvalidRate — частота потока должна быть положительной.
	ErrInvalidRate = errors.New("invalid flow rate")

	// ErrMissingOutput — клиент в середине цепочки без выхода.
	ErrMissingOutput = errors.New("client in the middle of a flow has no output")
)

// Ошибки сборки модели по программе.
var (
	// ErrUnboundClient — для имени клиента нет объекта в окружении.
	ErrUnboundClient = errors.New("unbound client")

	// ErrInvalidBinding — объект окружения не является клиентом или системой.
	ErrInvalidBinding = errors.New("binding is neither a client nor a system")

	// ErrNoScope — в сети есть осциллограф, а фабрика осциллографов не задана.
	ErrNoScope = errors.New("scope requested but no scope factory configured")
)

// SyntaxError — ошибка разбора с позицией в тексте.
type SyntaxError struct {
	Line int    // строка, начиная с 1
	Col  int    // колонка, начиная с 1
	Msg  string // описание
	Err  error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %v", e.Line, e.Col, e.Msg, e.Err)
}

// Unwrap возвращает базовую ошибку.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func newSyntaxError(pos Pos, err error, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Line: pos.Line,
		Col:  pos.Col,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}
