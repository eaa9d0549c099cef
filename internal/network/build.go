package network

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/clients"
	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/graph"
	"github.com/shaiso/Actors/internal/model"
	"github.com/shaiso/Actors/internal/port"
	"github.com/shaiso/Actors/internal/system"
	"github.com/shaiso/Actors/internal/telemetry"
)

// LoggingFactory создаёт клиента-логгер для актора name.
type LoggingFactory func(name string, rate int) actor.Client

// ScopeFactory создаёт клиента-осциллограф для выхода id.
type ScopeFactory func(name string, id port.ID) (actor.Client, error)

// Env — окружение сборки: привязки имён клиентов и фабрики
// служебных акторов.
type Env struct {
	// Clients сопоставляет имени из текста сети actor.Client
	// или *system.System.
	Clients map[string]any

	// Logging создаёт логгеры для флага $. По умолчанию clients.NewLogging.
	Logging LoggingFactory

	// Scope создаёт осциллографы для флага ~.
	Scope ScopeFactory

	Logger   *slog.Logger
	Metrics  *telemetry.Metrics
	Exporter graph.Exporter
}

// Result — собранная модель и её акторы.
type Result struct {
	Program *Program
	Model   *model.Model

	// Actors — акторы по имени объявления. Системы сюда не входят.
	Actors map[string]*actor.Actor

	// Generated — клиенты логгеров и осциллографов по имени актора.
	Generated map[string]actor.Client
}

// Loggers возвращает клиентов-логгеров, созданных по умолчанию.
func (r *Result) Loggers() []*clients.Logging {
	var out []*clients.Logging
	for _, d := range r.Program.Actors {
		if d.Kind != KindLogger {
			continue
		}
		if l, ok := r.Generated[d.Name].(*clients.Logging); ok {
			out = append(out, l)
		}
	}
	return out
}

// Systems возвращает имена привязок, являющихся системами.
func (e Env) Systems() []string {
	var names []string
	for name, b := range e.Clients {
		if _, ok := b.(*system.System); ok {
			names = append(names, name)
		}
	}
	return names
}

// Run компилирует текст сети и собирает модель.
func Run(ctx context.Context, src string, env Env) (*Result, error) {
	prog, err := Compile(src, WithSystems(env.Systems()...))
	if err != nil {
		return nil, err
	}
	return Build(ctx, prog, env)
}

// Build создаёт акторы программы, соединяет их и доводит модель
// до состояния prog.Model.State: READY (Check), RUNNING (Run)
// или COMPLETED (Wait).
//
// При ошибке Wait результат возвращается вместе с ошибкой.
func Build(ctx context.Context, prog *Program, env Env) (*Result, error) {
	b := &builder{
		env:     env,
		systems: make(map[string]*system.System),
		res: &Result{
			Program:   prog,
			Actors:    make(map[string]*actor.Actor),
			Generated: make(map[string]actor.Client),
		},
	}
	if b.env.Logging == nil {
		b.env.Logging = func(name string, rate int) actor.Client {
			return clients.NewLogging(name, rate)
		}
	}

	var parts []model.Part
	for _, d := range prog.Actors {
		part, err := b.declare(d)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", prog.Model.Name, err)
		}
		parts = append(parts, part)
	}

	for _, w := range prog.Wires {
		if err := b.connect(w); err != nil {
			return nil, fmt.Errorf("model %s: %w", prog.Model.Name, err)
		}
	}

	m := model.New(parts...).
		Named(prog.Model.Name).
		WithFlowchart(prog.Model.Flowchart).
		WithLogger(env.Logger).
		WithMetrics(env.Metrics).
		WithExporter(env.Exporter)
	b.res.Model = m

	return b.res, drive(ctx, m, prog.Model.State)
}

func drive(ctx context.Context, m *model.Model, state domain.ModelState) error {
	if err := m.Check(); err != nil {
		return err
	}
	if state == domain.ModelStateReady || state == "" {
		return nil
	}
	if err := m.Run(ctx); err != nil {
		return err
	}
	if state == domain.ModelStateRunning {
		return nil
	}
	return m.Wait()
}

type builder struct {
	env     Env
	systems map[string]*system.System
	res     *Result
}

func (b *builder) declare(d ActorDecl) (model.Part, error) {
	opts := []actor.Option{actor.WithName(d.Name)}
	if d.Label != "" {
		opts = append(opts, actor.WithLabel(d.Label))
	}

	switch d.Kind {
	case KindSampler:
		a, err := actor.NewSampler(d.Name, port.Named(d.Port), d.InRate, d.OutRate, opts...)
		return b.keep(d.Name, a, err)

	case KindLogger:
		c := b.env.Logging(d.Name, d.InRate)
		b.res.Generated[d.Name] = c
		a, err := actor.New(c, d.InRate, 0, opts...)
		return b.keep(d.Name, a, err)

	case KindScope:
		if b.env.Scope == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoScope, d.Name)
		}
		c, err := b.env.Scope(d.Name, port.Named(d.Port))
		if err != nil {
			return nil, fmt.Errorf("scope %s: %w", d.Name, err)
		}
		b.res.Generated[d.Name] = c
		a, err := actor.New(c, d.InRate, 0, opts...)
		return b.keep(d.Name, a, err)
	}

	binding, ok := b.env.Clients[d.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnboundClient, d.Name)
	}

	switch v := binding.(type) {
	case *system.System:
		if !v.Built() {
			if err := v.Build(); err != nil {
				return nil, err
			}
		}
		b.systems[d.Name] = v
		return v, nil
	case actor.Client:
		a, err := actor.New(v, d.InRate, d.OutRate, opts...)
		return b.keep(d.Name, a, err)
	default:
		return nil, fmt.Errorf("%w: %s is %T", ErrInvalidBinding, d.Name, binding)
	}
}

func (b *builder) keep(name string, a *actor.Actor, err error) (model.Part, error) {
	if err != nil {
		return nil, err
	}
	b.res.Actors[name] = a
	return a, nil
}

// connect соединяет провод. Системы подключаются через шлюзы
// порта провода.
func (b *builder) connect(w Wire) error {
	id := port.Named(w.Output)

	from, err := b.endpoint(w.From, id, (*system.System).Output)
	if err != nil {
		return err
	}
	to, err := b.endpoint(w.To, id, (*system.System).Input)
	if err != nil {
		return err
	}

	var opts []actor.LinkOption
	if w.Bootstrap {
		opts = append(opts, actor.Bootstrap())
	}
	if w.Unbounded {
		opts = append(opts, actor.Unbounded())
	}
	return from.Connect(id, to, opts...)
}

func (b *builder) endpoint(name string, id port.ID, gateway func(*system.System, port.ID) (*actor.Actor, error)) (*actor.Actor, error) {
	if sys, ok := b.systems[name]; ok {
		return gateway(sys, id)
	}
	a, ok := b.res.Actors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnboundClient, name)
	}
	return a, nil
}
