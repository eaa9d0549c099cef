package clients

import (
	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/port"
)

// Integrator — дискретный интегратор y ← y + gain·u.
//
// Начальное состояние — нули размера size, поэтому выход
// интегратора можно отдавать с bootstrap до первого чтения.
type Integrator struct {
	in, out port.ID
	gain    float64
	u       []float64
	y       []float64
}

// NewIntegrator создаёт интегратор in → out размера size.
func NewIntegrator(in, out port.ID, size int) *Integrator {
	if size < 1 {
		size = 1
	}
	return &Integrator{in: in, out: out, gain: 1, y: make([]float64, size)}
}

// Gain задаёт коэффициент интегрирования.
func (i *Integrator) Gain(g float64) *Integrator {
	i.gain = g
	return i
}

// Read запоминает вход.
func (i *Integrator) Read(d *port.Data) {
	if d.Port() != i.in {
		return
	}
	if v, ok := port.Floats(d); ok {
		i.u = v
	}
}

// Update интегрирует последний вход.
func (i *Integrator) Update() {
	for k := range min(len(i.u), len(i.y)) {
		i.y[k] += i.gain * i.u[k]
	}
	i.u = nil
}

// Write выдаёт состояние интегратора.
func (i *Integrator) Write(id port.ID) (*port.Data, bool) {
	if id != i.out {
		return nil, false
	}
	return port.NewData(id, append([]float64(nil), i.y...)), true
}

// Size реализует actor.Sizer.
func (i *Integrator) Size(id port.ID) int {
	if id == i.in || id == i.out {
		return len(i.y)
	}
	return 0
}

func newIntegratorFromParams(_ string, p Params) (actor.Client, error) {
	if err := p.Require("input", "output"); err != nil {
		return nil, err
	}
	return NewIntegrator(
		port.Named(p.String("input", "")),
		port.Named(p.String("output", "")),
		p.Int("size", 1),
	).Gain(p.Float("gain", 1)), nil
}
