package clients

import (
	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/port"
)

// Gain умножает вход на коэффициент.
type Gain struct {
	in, out port.ID
	k       float64
	value   []float64
}

// NewGain создаёт усилитель in → out с коэффициентом k.
func NewGain(in, out port.ID, k float64) *Gain {
	return &Gain{in: in, out: out, k: k}
}

// Update реализует actor.Client.
func (g *Gain) Update() {}

// Read запоминает значение входа.
func (g *Gain) Read(d *port.Data) {
	if d.Port() != g.in {
		return
	}
	if v, ok := port.Floats(d); ok {
		g.value = v
	}
}

// Write выдаёт усиленное значение.
func (g *Gain) Write(id port.ID) (*port.Data, bool) {
	if id != g.out || g.value == nil {
		return nil, false
	}
	out := make([]float64, len(g.value))
	for i, v := range g.value {
		out[i] = g.k * v
	}
	return port.NewData(id, out), true
}

// Sum складывает значения нескольких входов поэлементно.
type Sum struct {
	ins    []port.ID
	out    port.ID
	values map[port.ID][]float64
}

// NewSum создаёт сумматор входов ins с выходом out.
func NewSum(out port.ID, ins ...port.ID) *Sum {
	return &Sum{ins: ins, out: out, values: make(map[port.ID][]float64)}
}

// Update реализует actor.Client.
func (s *Sum) Update() {}

// Read запоминает значение одного из входов.
func (s *Sum) Read(d *port.Data) {
	if v, ok := port.Floats(d); ok {
		s.values[d.Port()] = v
	}
}

// Write выдаёт сумму последних значений входов.
func (s *Sum) Write(id port.ID) (*port.Data, bool) {
	if id != s.out || len(s.values) == 0 {
		return nil, false
	}
	var out []float64
	for _, in := range s.ins {
		v := s.values[in]
		for len(out) < len(v) {
			out = append(out, 0)
		}
		for i, x := range v {
			out[i] += x
		}
	}
	return port.NewData(id, out), true
}

func newGainFromParams(_ string, p Params) (actor.Client, error) {
	if err := p.Require("input", "output"); err != nil {
		return nil, err
	}
	return NewGain(
		port.Named(p.String("input", "")),
		port.Named(p.String("output", "")),
		p.Float("gain", 1),
	), nil
}

func newSumFromParams(_ string, p Params) (actor.Client, error) {
	if err := p.Require("inputs", "output"); err != nil {
		return nil, err
	}
	var ins []port.ID
	for _, name := range p.Strings("inputs") {
		ins = append(ins, port.Named(name))
	}
	return NewSum(port.Named(p.String("output", "")), ins...), nil
}
