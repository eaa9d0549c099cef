package actor

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Actors/internal/port"
	"github.com/shaiso/Actors/internal/telemetry"
)

// Actor — планируемая единица: клиент, его входы и выходы и две частоты.
//
// Форма цикла определяется наличием входов и выходов:
//
//	инициатор (только выходы):  loop { update; distribute }
//	терминатор (только входы):  loop { collect; update }
//	фильтр, OutRate ≥ InRate:   loop { k × {collect; update}; distribute }, k = OutRate/InRate
//	фильтр, InRate > OutRate:   loop { collect; update; k × distribute },   k = InRate/OutRate
//
// Цикл завершается при первой ошибке канала или когда клиент
// не выдаёт данных. Перезапусков нет.
type Actor struct {
	name    string
	label   string
	kind    string
	group   string
	client  *Shared
	inRate  int
	outRate int

	inputs  []*Input
	outputs []*Output

	frozen atomic.Bool
}

// Option настраивает актор.
type Option func(*Actor)

// WithName задаёт имя актора. По умолчанию — имя клиента.
func WithName(name string) Option {
	return func(a *Actor) { a.name = name }
}

// WithLabel задаёт подпись узла на диаграмме.
func WithLabel(label string) Option {
	return func(a *Actor) { a.label = label }
}

// WithKind задаёт вид узла на диаграмме (sampler, gateway).
func WithKind(kind string) Option {
	return func(a *Actor) { a.kind = kind }
}

// WithGroup относит актор к System с именем group.
func WithGroup(group string) Option {
	return func(a *Actor) { a.group = group }
}

// New создаёт актор.
//
// Частоты неотрицательны. Если обе положительны, одна должна делиться
// на другую нацело, иначе возвращается ErrRateRatio.
// Если client уже *Shared, актор разделяет его с другими владельцами.
func New(client Client, inRate, outRate int, opts ...Option) (*Actor, error) {
	if client == nil {
		return nil, fmt.Errorf("actor: nil client")
	}
	a := &Actor{
		client:  Share(client),
		inRate:  inRate,
		outRate: outRate,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.name == "" {
		a.name = a.client.name()
	}

	if inRate < 0 || outRate < 0 {
		return nil, &Error{Actor: a.name, Err: fmt.Errorf("%w: in=%d out=%d", ErrInvalidRate, inRate, outRate)}
	}
	if inRate > 0 && outRate > 0 && inRate%outRate != 0 && outRate%inRate != 0 {
		return nil, &Error{Actor: a.name, Err: fmt.Errorf("%w: in=%d out=%d", ErrRateRatio, inRate, outRate)}
	}

	return a, nil
}

// NewInitiator создаёт актор только с выходами.
func NewInitiator(client Client, rate int, opts ...Option) (*Actor, error) {
	return New(client, 0, rate, opts...)
}

// NewTerminator создаёт актор только со входами.
func NewTerminator(client Client, rate int, opts ...Option) (*Actor, error) {
	return New(client, rate, 0, opts...)
}

// Name возвращает имя актора.
func (a *Actor) Name() string { return a.name }

// Label возвращает подпись актора.
func (a *Actor) Label() string { return a.label }

// Client возвращает разделяемый дескриптор клиента.
func (a *Actor) Client() *Shared { return a.client }

// Rates возвращает входную и выходную частоты.
func (a *Actor) Rates() (in, out int) { return a.inRate, a.outRate }

// Inputs возвращает входы актора.
func (a *Actor) Inputs() []*Input { return a.inputs }

// Outputs возвращает выходы актора.
func (a *Actor) Outputs() []*Output { return a.outputs }

// SetGroup относит актор к System.
func (a *Actor) SetGroup(group string) { a.group = group }

// Connect соединяет выход id этого актора со входом актора to.
//
// Повторное соединение того же порта добавляет получателя к тому же
// выходу (мультиплекс). Хэш соединения записывается на выходе один раз
// на каждого получателя и один раз на входе.
func (a *Actor) Connect(id port.ID, to *Actor, opts ...LinkOption) error {
	if to == nil {
		return &Error{Actor: a.name, Port: id.Name(), Err: fmt.Errorf("actor: nil receiver")}
	}
	if a.frozen.Load() || to.frozen.Load() {
		return &Error{Actor: a.name, Port: id.Name(), Err: ErrFrozen}
	}
	if !a.client.CanWrite() {
		return &Error{Actor: a.name, Port: id.Name(), Err: ErrNotWriter}
	}
	if !to.client.CanRead() {
		return &Error{Actor: to.name, Port: id.Name(), Err: ErrNotReader}
	}
	if from, into := a.client.size(id), to.client.size(id); from > 0 && into > 0 && from != into {
		return &Error{
			Actor: a.name,
			Port:  id.Name(),
			Err:   fmt.Errorf("%w: %s declares %d, %s declares %d", ErrSizeMismatch, a.name, from, to.name, into),
		}
	}

	cfg := linkConfig{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	l := newLink(cfg)

	out := a.output(id)
	out.bootstrap = out.bootstrap || cfg.bootstrap
	out.links = append(out.links, l)

	to.inputs = append(to.inputs, &Input{
		id:     id,
		client: to.client,
		link:   l,
		hash:   out.hash,
	})

	return nil
}

// output находит выход порта id или создаёт новый.
func (a *Actor) output(id port.ID) *Output {
	for _, o := range a.outputs {
		if o.id == id {
			return o
		}
	}
	o := &Output{
		id:     id,
		client: a.client,
		hash:   port.WireHash(a.name, id),
	}
	a.outputs = append(a.outputs, o)
	return o
}

// Run исполняет цикл актора до первой ошибки.
//
// При выходе актор закрывает все свои выходы и освобождает все входы,
// чтобы завершение каскадом дошло до соседей.
func (a *Actor) Run(ctx context.Context) error {
	a.frozen.Store(true)
	defer a.release()

	logger := telemetry.WithActor(telemetry.FromContext(ctx), a.name)
	logger.Debug("actor started",
		"inputs", len(a.inputs),
		"outputs", len(a.outputs),
		"in_rate", a.inRate,
		"out_rate", a.outRate,
	)

	s := &scheduler{
		actor:   a,
		metrics: telemetry.MetricsFromContext(ctx),
		model:   telemetry.ModelNameFromContext(ctx),
	}
	return s.loop(ctx)
}

// release закрывает выходы и освобождает входы.
func (a *Actor) release() {
	for _, o := range a.outputs {
		o.close()
	}
	for _, in := range a.inputs {
		in.link.release()
	}
}

// ratio возвращает число повторов внутреннего шага цикла.
func (a *Actor) ratio() int {
	if a.inRate == 0 || a.outRate == 0 {
		return 1
	}
	if a.outRate >= a.inRate {
		return a.outRate / a.inRate
	}
	return a.inRate / a.outRate
}

// bootstrapCount возвращает число затравочных отправок.
func (a *Actor) bootstrapCount() int {
	if a.outRate > 0 && a.inRate > a.outRate {
		return a.inRate / a.outRate
	}
	return 1
}

// scheduler исполняет шаги collect, update и distribute одного актора.
type scheduler struct {
	actor   *Actor
	metrics *telemetry.Metrics
	model   string
}

func (s *scheduler) loop(ctx context.Context) error {
	a := s.actor
	hasIn, hasOut := len(a.inputs) > 0, len(a.outputs) > 0

	if !hasIn && !hasOut {
		return &Error{Actor: a.name, Err: ErrNoIO}
	}

	if err := s.bootstrap(ctx); err != nil {
		return err
	}

	k := a.ratio()
	switch {
	case !hasIn:
		for {
			if err := s.update(); err != nil {
				return err
			}
			if err := s.distribute(ctx); err != nil {
				return err
			}
		}
	case !hasOut:
		for {
			if err := s.collect(ctx); err != nil {
				return err
			}
			if err := s.update(); err != nil {
				return err
			}
		}
	case a.outRate >= a.inRate:
		for {
			for range k {
				if err := s.collect(ctx); err != nil {
					return err
				}
				if err := s.update(); err != nil {
					return err
				}
			}
			if err := s.distribute(ctx); err != nil {
				return err
			}
		}
	default:
		for {
			if err := s.collect(ctx); err != nil {
				return err
			}
			if err := s.update(); err != nil {
				return err
			}
			for range k {
				if err := s.distribute(ctx); err != nil {
					return err
				}
			}
		}
	}
}

// bootstrap отправляет затравку по помеченным выходам.
func (s *scheduler) bootstrap(ctx context.Context) error {
	outputs := make([]*Output, 0)
	for _, o := range s.actor.outputs {
		if o.bootstrap {
			outputs = append(outputs, o)
		}
	}
	if len(outputs) == 0 {
		return nil
	}

	for range s.actor.bootstrapCount() {
		if err := s.send(ctx, outputs); err != nil {
			return err
		}
	}
	return nil
}

func (s *scheduler) update() error {
	if err := s.actor.client.update(); err != nil {
		return &Error{Actor: s.actor.name, Err: err}
	}
	s.metrics.Update(s.model, s.actor.name)
	return nil
}

// collect получает по одному конверту с каждого входа.
func (s *scheduler) collect(ctx context.Context) error {
	inputs := s.actor.inputs
	if len(inputs) == 1 {
		return s.receive(ctx, inputs[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, in := range inputs {
		g.Go(func() error {
			return s.receive(gctx, in)
		})
	}
	return g.Wait()
}

func (s *scheduler) receive(ctx context.Context, in *Input) error {
	if err := in.recv(ctx); err != nil {
		return &Error{Actor: s.actor.name, Port: in.id.Name(), Err: err}
	}
	s.metrics.Receive(s.model, s.actor.name, in.id.Name())
	return nil
}

// distribute отправляет значения всех выходов.
func (s *scheduler) distribute(ctx context.Context) error {
	return s.send(ctx, s.actor.outputs)
}

func (s *scheduler) send(ctx context.Context, outputs []*Output) error {
	if len(outputs) == 1 {
		return s.sendOne(ctx, outputs[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, o := range outputs {
		g.Go(func() error {
			return s.sendOne(gctx, o)
		})
	}
	return g.Wait()
}

func (s *scheduler) sendOne(ctx context.Context, o *Output) error {
	if err := o.send(ctx); err != nil {
		return &Error{Actor: s.actor.name, Port: o.id.Name(), Err: err}
	}
	s.metrics.Send(s.model, s.actor.name, o.id.Name())
	return nil
}
