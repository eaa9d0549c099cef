package actor

import (
	"context"

	"github.com/shaiso/Actors/internal/graph"
)

// Task — то, что модель умеет проверить и запустить.
//
// Реализуется *Actor. Модель хранит разнородные акторы
// (инициаторы, фильтры, сэмплеры, шлюзы) через этот интерфейс.
type Task interface {
	Name() string

	// CheckInputs проверяет согласованность входов и входной частоты.
	CheckInputs() error

	// CheckOutputs проверяет согласованность выходов и выходной частоты.
	CheckOutputs() error

	NInputs() int
	NOutputs() int
	InputsHashes() []uint64
	OutputsHashes() []uint64

	// Run исполняет цикл актора до завершения потока или ошибки.
	Run(ctx context.Context) error

	// Node возвращает статическое описание актора для графа.
	Node() graph.Node
}

var _ Task = (*Actor)(nil)

// CheckInputs реализует Task.
func (a *Actor) CheckInputs() error {
	switch {
	case len(a.inputs) == 0 && len(a.outputs) == 0:
		return &Error{Actor: a.name, Err: ErrNoIO}
	case len(a.inputs) > 0 && a.inRate == 0:
		return &Error{Actor: a.name, Err: ErrSomeInputsZeroRate}
	case len(a.inputs) == 0 && a.inRate > 0:
		return &Error{Actor: a.name, Err: ErrNoInputsPositiveRate}
	}
	return nil
}

// CheckOutputs реализует Task.
func (a *Actor) CheckOutputs() error {
	switch {
	case len(a.outputs) > 0 && a.outRate == 0:
		return &Error{Actor: a.name, Err: ErrSomeOutputsZeroRate}
	case len(a.outputs) == 0 && a.outRate > 0:
		return &Error{Actor: a.name, Err: ErrNoOutputsPositiveRate}
	}
	return nil
}

// NInputs возвращает число входов.
func (a *Actor) NInputs() int {
	return len(a.inputs)
}

// NOutputs возвращает число получателей по всем выходам.
func (a *Actor) NOutputs() int {
	n := 0
	for _, o := range a.outputs {
		n += len(o.links)
	}
	return n
}

// InputsHashes возвращает хэши всех входов.
func (a *Actor) InputsHashes() []uint64 {
	hashes := make([]uint64, 0, len(a.inputs))
	for _, in := range a.inputs {
		hashes = append(hashes, in.hash)
	}
	return hashes
}

// OutputsHashes возвращает хэш каждого выхода по разу на получателя.
func (a *Actor) OutputsHashes() []uint64 {
	hashes := make([]uint64, 0, len(a.outputs))
	for _, o := range a.outputs {
		for range o.links {
			hashes = append(hashes, o.hash)
		}
	}
	return hashes
}

// Tasks возвращает сам актор. Позволяет добавлять актор в модель.
func (a *Actor) Tasks() []Task {
	return []Task{a}
}

// Node реализует Task.
func (a *Actor) Node() graph.Node {
	n := graph.Node{
		Name:    a.name,
		Label:   a.label,
		Kind:    a.kind,
		Group:   a.group,
		InRate:  a.inRate,
		OutRate: a.outRate,
	}
	for _, in := range a.inputs {
		n.Inputs = append(n.Inputs, in.ioNode())
	}
	for _, o := range a.outputs {
		n.Outputs = append(n.Outputs, o.ioNode())
	}

	if n.Kind == "" {
		switch {
		case len(a.inputs) == 0 && len(a.outputs) > 0:
			n.Kind = graph.KindInitiator
		case len(a.inputs) > 0 && len(a.outputs) == 0:
			n.Kind = graph.KindTerminator
		case len(a.inputs) > 0:
			n.Kind = graph.KindFilter
		default:
			n.Kind = graph.KindUnknown
		}
	}
	return n
}
