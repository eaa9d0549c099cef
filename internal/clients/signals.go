package clients

import (
	"fmt"
	"math"

	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/port"
)

// Signal — функция номера шага.
type Signal interface {
	At(step int) float64
}

// Constant — постоянный сигнал.
type Constant float64

// At реализует Signal.
func (c Constant) At(int) float64 { return float64(c) }

// Sinusoid — синусоида. Frequency задаётся в циклах на шаг.
type Sinusoid struct {
	Amplitude float64
	Frequency float64
	Phase     float64
}

// At реализует Signal.
func (s Sinusoid) At(step int) float64 {
	return s.Amplitude * math.Sin(2*math.Pi*s.Frequency*float64(step)+s.Phase)
}

// Ramp — линейный сигнал Offset + Slope*step.
type Ramp struct {
	Slope  float64
	Offset float64
}

// At реализует Signal.
func (r Ramp) At(step int) float64 {
	return r.Offset + r.Slope*float64(step)
}

// Composite — сумма сигналов.
type Composite []Signal

// At реализует Signal.
func (c Composite) At(step int) float64 {
	var sum float64
	for _, s := range c {
		sum += s.At(step)
	}
	return sum
}

// Signals — источник сигналов на n шагов.
//
// Каждый выход порождает свой сигнал. После n шагов Write
// возвращает false и поток заканчивается.
type Signals struct {
	n       int
	step    int
	signals map[port.ID]Signal
	done    bool
}

// NewSignals создаёт источник на n шагов.
func NewSignals(n int) *Signals {
	return &Signals{n: n, step: -1, signals: make(map[port.ID]Signal)}
}

// Channel задаёт сигнал выхода id.
func (s *Signals) Channel(id port.ID, sig Signal) *Signals {
	s.signals[id] = sig
	return s
}

// Update продвигает шаг.
func (s *Signals) Update() {
	s.step++
	if s.step >= s.n {
		s.done = true
	}
}

// Write выдаёт значение сигнала на текущем шаге.
func (s *Signals) Write(id port.ID) (*port.Data, bool) {
	sig, ok := s.signals[id]
	if !ok || s.done || s.step < 0 {
		return nil, false
	}
	return port.NewData(id, []float64{sig.At(s.step)}), true
}

// Step возвращает номер текущего шага.
func (s *Signals) Step() int {
	return s.step
}

func newSignalsFromParams(name string, p Params) (actor.Client, error) {
	if err := p.Require("output", "steps"); err != nil {
		return nil, err
	}
	steps := p.Int("steps", 0)
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive", ErrInvalidParams)
	}

	var parts Composite
	for _, sp := range p.List("signals") {
		sig, err := signalFromParams(sp)
		if err != nil {
			return nil, err
		}
		parts = append(parts, sig)
	}

	var sig Signal = Constant(p.Float("value", 0))
	switch len(parts) {
	case 0:
	case 1:
		sig = parts[0]
	default:
		sig = parts
	}
	return NewSignals(steps).Channel(port.Named(p.String("output", "")), sig), nil
}

func signalFromParams(p Params) (Signal, error) {
	switch kind := p.String("type", "constant"); kind {
	case "constant":
		return Constant(p.Float("value", 0)), nil
	case "sinusoid":
		return Sinusoid{
			Amplitude: p.Float("amplitude", 1),
			Frequency: p.Float("frequency", 0),
			Phase:     p.Float("phase", 0),
		}, nil
	case "ramp":
		return Ramp{Slope: p.Float("slope", 1), Offset: p.Float("offset", 0)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown signal type %q", ErrInvalidParams, kind)
	}
}
