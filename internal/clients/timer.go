package clients

import (
	"fmt"

	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/port"
)

// Tick — порт тактов таймера.
var Tick = port.New[int]("Tick")

// Timer — источник n тактов.
//
// На каждом такте выдаёт его номер в порт id. После n тактов
// поток заканчивается.
type Timer struct {
	id   port.ID
	n    int
	tick int
}

// NewTimer создаёт таймер на n тактов с выходом Tick.
func NewTimer(n int) *Timer {
	return &Timer{id: Tick.ID(), n: n, tick: -1}
}

// On переключает выход таймера на порт id.
func (t *Timer) On(id port.ID) *Timer {
	t.id = id
	return t
}

// Update реализует actor.Client.
func (t *Timer) Update() {
	t.tick++
}

// Write выдаёт номер такта.
func (t *Timer) Write(id port.ID) (*port.Data, bool) {
	if id != t.id || t.tick < 0 || t.tick >= t.n {
		return nil, false
	}
	return port.NewData(id, t.tick), true
}

func newTimerFromParams(_ string, p Params) (actor.Client, error) {
	n := p.Int("ticks", 0)
	if n <= 0 {
		return nil, fmt.Errorf("%w: ticks must be positive", ErrInvalidParams)
	}
	t := NewTimer(n)
	if out := p.String("output", ""); out != "" {
		t.On(port.Named(out))
	}
	return t, nil
}
