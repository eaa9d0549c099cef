package scope

import (
	"time"

	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/port"
)

// Publisher принимает кадры осциллографа.
type Publisher interface {
	Publish(f Frame)
}

// Tap — клиент-осциллограф: пересылает значения входа в Publisher.
type Tap struct {
	name string
	id   port.ID
	pub  Publisher
	step int
	now  func() time.Time
}

// NewTap создаёт осциллограф name для порта id.
func NewTap(name string, id port.ID, pub Publisher) *Tap {
	return &Tap{name: name, id: id, pub: pub, now: time.Now}
}

// Name реализует actor.Namer.
func (t *Tap) Name() string {
	return t.name
}

// Update реализует actor.Client.
func (t *Tap) Update() {}

// Read публикует значение порта. Нечисловые значения пропускаются.
func (t *Tap) Read(d *port.Data) {
	if d.Port() != t.id {
		return
	}
	values, ok := port.Floats(d)
	if !ok {
		return
	}
	t.pub.Publish(Frame{
		Scope:  t.name,
		Port:   t.id.Name(),
		Step:   t.step,
		Values: append([]float64(nil), values...),
		At:     t.now(),
	})
	t.step++
}

// Factory возвращает фабрику осциллографов для сети,
// публикующих в pub.
func Factory(pub Publisher) func(name string, id port.ID) (actor.Client, error) {
	return func(name string, id port.ID) (actor.Client, error) {
		return NewTap(name, id, pub), nil
	}
}

type discard struct{}

func (discard) Publish(Frame) {}

// Discard — Publisher, отбрасывающий кадры. Нужен для сборки
// модели с осциллографами без сервера.
var Discard Publisher = discard{}
