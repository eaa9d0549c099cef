package model

import (
	"github.com/shaiso/Actors/internal/actor"
)

// Part — всё, что можно добавить в модель: актор, System или другая модель.
type Part interface {
	Tasks() []actor.Task
}

// Builder — часть, которую нужно собрать перед добавлением (System).
type Builder interface {
	Built() bool
	Build() error
}

// Join объединяет части в новую модель.
//
// Объединение ассоциативно и коммутативно по составу акторов:
// Join(a, Join(b, c)) и Join(c, b, a) содержат одни и те же акторы.
// Проверка выполняется только в Check.
func Join(parts ...Part) *Model {
	return New(parts...)
}

// Add добавляет части в модель и возвращает её же.
//
// Акторы, уже входящие в модель, повторно не добавляются.
// Добавление возможно только до Check.
func (m *Model) Add(parts ...Part) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateUnknown {
		m.addErr = errInvalidTransition("add", m.state)
		return m
	}

	for _, p := range parts {
		if p == nil {
			continue
		}
		if pm, ok := p.(*Model); ok && pm == m {
			continue
		}
		if b, ok := p.(Builder); ok && !b.Built() {
			if err := b.Build(); err != nil && m.addErr == nil {
				m.addErr = err
			}
		}
		for _, t := range p.Tasks() {
			if _, ok := m.seen[t]; ok {
				continue
			}
			m.seen[t] = struct{}{}
			m.tasks = append(m.tasks, t)
		}
	}
	return m
}

// Tasks реализует Part: модель можно вложить в другую модель.
func (m *Model) Tasks() []actor.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]actor.Task(nil), m.tasks...)
}
