package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sample — одно значение телеметрии, записанное логирующим клиентом.
//
// Step — номер такта логгера, Values — значение порта,
// развёрнутое в срез чисел.
type Sample struct {
	RunID  uuid.UUID `json:"run_id"`
	Sink   string    `json:"sink"`
	Port   string    `json:"port"`
	Step   int       `json:"step"`
	Values []float64 `json:"values"`
	At     time.Time `json:"at"`
}
