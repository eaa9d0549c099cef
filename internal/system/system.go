package system

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/graph"
	"github.com/shaiso/Actors/internal/port"
)

var (
	// ErrAlreadyBuilt — Build вызван повторно.
	ErrAlreadyBuilt = errors.New("system already built")

	// ErrNotBuilt — обращение к шлюзам до Build.
	ErrNotBuilt = errors.New("system not built")

	// ErrUnknownGateway — у системы нет шлюза для порта.
	ErrUnknownGateway = errors.New("unknown gateway port")

	// ErrDuplicateGateway — шлюз для порта объявлен дважды.
	ErrDuplicateGateway = errors.New("duplicate gateway port")
)

// BuildFunc собирает внутренний граф системы.
type BuildFunc func(w *Wiring) error

// System — именованный подграф акторов со шлюзами.
//
// Каждый внешний порт системы обслуживает ровно один актор-шлюз.
// Внутри модели System разворачивается в список своих акторов
// и шлюзов, поэтому снаружи ведёт себя как один актор.
type System struct {
	name  string
	build BuildFunc

	mu     sync.Mutex
	built  bool
	actors []*actor.Actor
	ins    map[port.ID]*actor.Actor
	outs   map[port.ID]*actor.Actor
	order  []*actor.Actor
}

// New создаёт систему. Внутренние соединения выполняются в Build.
func New(name string, build BuildFunc) *System {
	return &System{
		name:  name,
		build: build,
		ins:   make(map[port.ID]*actor.Actor),
		outs:  make(map[port.ID]*actor.Actor),
	}
}

// Name возвращает имя системы.
func (s *System) Name() string {
	return s.name
}

// Built проверяет, что система собрана.
func (s *System) Built() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.built
}

// Build выполняет BuildFunc ровно один раз.
func (s *System) Build() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built {
		return fmt.Errorf("%w: %s", ErrAlreadyBuilt, s.name)
	}
	s.built = true

	if s.build != nil {
		if err := s.build(&Wiring{sys: s}); err != nil {
			return fmt.Errorf("build system %s: %w", s.name, err)
		}
	}

	for _, a := range s.actors {
		a.SetGroup(s.name)
	}
	return nil
}

// Tasks реализует model.Part: внутренние акторы и шлюзы.
// До Build список пуст.
func (s *System) Tasks() []actor.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]actor.Task, 0, len(s.actors))
	for _, a := range s.actors {
		tasks = append(tasks, a)
	}
	return tasks
}

// Input возвращает входной шлюз порта id: к нему подключается
// внешний отправитель.
func (s *System) Input(id port.ID) (*actor.Actor, error) {
	return s.gateway(s.ins, id)
}

// Output возвращает выходной шлюз порта id: он подключается
// к внешнему получателю.
func (s *System) Output(id port.ID) (*actor.Actor, error) {
	return s.gateway(s.outs, id)
}

// Gateway возвращает шлюз порта id, входной или выходной.
func (s *System) Gateway(id port.ID) (*actor.Actor, error) {
	if a, err := s.Output(id); err == nil {
		return a, nil
	}
	return s.Input(id)
}

// Gateways возвращает все шлюзы в порядке объявления.
func (s *System) Gateways() []*actor.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*actor.Actor(nil), s.order...)
}

func (s *System) gateway(m map[port.ID]*actor.Actor, id port.ID) (*actor.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.built {
		return nil, fmt.Errorf("%w: %s", ErrNotBuilt, s.name)
	}
	a, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s[%s]", ErrUnknownGateway, s.name, id.Name())
	}
	return a, nil
}

// Wiring — контекст сборки системы.
type Wiring struct {
	sys *System
}

// Add добавляет внутренние акторы.
func (w *Wiring) Add(actors ...*actor.Actor) {
	w.sys.actors = append(w.sys.actors, actors...)
}

// Input объявляет внешний вход системы с частотой rate.
//
// Возвращает шлюз: внутри системы его выход id соединяется
// с внутренними акторами.
func (w *Wiring) Input(id port.ID, rate int) (*actor.Actor, error) {
	return w.gateway(w.sys.ins, id, rate, "in")
}

// Output объявляет внешний выход системы с частотой rate.
//
// Возвращает шлюз: внутренние акторы соединяют свой выход id с ним.
func (w *Wiring) Output(id port.ID, rate int) (*actor.Actor, error) {
	return w.gateway(w.sys.outs, id, rate, "out")
}

func (w *Wiring) gateway(m map[port.ID]*actor.Actor, id port.ID, rate int, dir string) (*actor.Actor, error) {
	if _, ok := m[id]; ok {
		return nil, fmt.Errorf("%w: %s[%s]", ErrDuplicateGateway, w.sys.name, id.Name())
	}

	a, err := actor.New(&Gateway{id: id}, rate, rate,
		actor.WithName(fmt.Sprintf("%s_%s_%s", w.sys.name, dir, id.Name())),
		actor.WithKind(graph.KindGateway),
		actor.WithLabel(fmt.Sprintf("%s %s", w.sys.name, id.Name())),
	)
	if err != nil {
		return nil, err
	}

	m[id] = a
	w.sys.order = append(w.sys.order, a)
	w.sys.actors = append(w.sys.actors, a)
	return a, nil
}

// Gateway — клиент шлюза: пересылает значение порта без изменений.
// До первого Read выдаёт port.Zero, так что затравленный выход
// системы запускает контур обратной связи.
type Gateway struct {
	id    port.ID
	value *port.Data
}

// Update реализует actor.Client.
func (g *Gateway) Update() {}

// Read запоминает значение порта.
func (g *Gateway) Read(d *port.Data) {
	if d.Port() == g.id {
		g.value = d
	}
}

// Write выдаёт последнее значение.
func (g *Gateway) Write(id port.ID) (*port.Data, bool) {
	if id != g.id {
		return nil, false
	}
	if g.value == nil {
		return port.Zero(id), true
	}
	return g.value, true
}
