package network

import (
	"fmt"
	"slices"

	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/domain"
)

// Значения атрибутов модели по умолчанию.
const (
	DefaultModelName = "model"
	DefaultState     = domain.ModelStateReady
)

// CompileOption настраивает компиляцию.
type CompileOption func(*compiler)

// WithSystems помечает имена клиентов как системы: их входная
// частота всегда равна частоте потока.
func WithSystems(names ...string) CompileOption {
	return func(c *compiler) {
		for _, n := range names {
			c.systems[n] = true
		}
	}
}

// Compile разбирает текст сети и разрешает частоты.
func Compile(src string, opts ...CompileOption) (*Program, error) {
	script, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return CompileScript(script, opts...)
}

// CompileScript строит Program по разобранному тексту.
func CompileScript(s *Script, opts ...CompileOption) (*Program, error) {
	c := &compiler{
		systems: make(map[string]bool),
		clients: make(map[string]*ActorDecl),
		extra:   make(map[string]*ActorDecl),
		wires:   make(map[wireKey]int),
	}
	for _, opt := range opts {
		opt(c)
	}

	decl, err := c.model(s.Attrs)
	if err != nil {
		return nil, err
	}

	for _, f := range s.Flows {
		if err := c.flow(f); err != nil {
			return nil, err
		}
	}

	prog := &Program{Model: decl, Wires: c.wireList}
	for _, name := range c.clientOrder {
		prog.Actors = append(prog.Actors, *c.clients[name])
	}
	for _, name := range c.extraOrder {
		prog.Actors = append(prog.Actors, *c.extra[name])
	}
	for _, a := range prog.Actors {
		prog.Model.Actors = append(prog.Model.Actors, a.Name)
	}
	return prog, nil
}

type wireKey struct {
	from, output, to string
}

type compiler struct {
	systems map[string]bool

	clients     map[string]*ActorDecl
	clientOrder []string

	// сэмплеры, логгеры и осциллографы в порядке создания
	extra      map[string]*ActorDecl
	extraOrder []string

	wires    map[wireKey]int
	wireList []Wire
}

func (c *compiler) model(attrs []Attr) (ModelDecl, error) {
	decl := ModelDecl{Name: DefaultModelName, State: DefaultState}
	for _, a := range attrs {
		switch a.Key {
		case "name":
			decl.Name = a.Value
		case "state":
			st, ok := domain.ParseModelState(a.Value)
			if !ok || st == domain.ModelStateUnknown {
				return ModelDecl{}, newSyntaxError(a.Pos, ErrInvalidState, "state %q", a.Value)
			}
			decl.State = st
		case "flowchart":
			decl.Flowchart = a.Value
		default:
			return ModelDecl{}, newSyntaxError(a.Pos, ErrUnknownAttribute, "key %q", a.Key)
		}
	}
	if decl.Flowchart == "" {
		decl.Flowchart = decl.Name
	}
	return decl, nil
}

// client возвращает объявление клиента, создавая его при первом появлении.
func (c *compiler) client(p Pair) *ActorDecl {
	d, ok := c.clients[p.Client]
	if !ok {
		kind := KindClient
		if c.systems[p.Client] {
			kind = KindSystem
		}
		d = &ActorDecl{Name: p.Client, Kind: kind, Label: p.Label, Shared: p.Shared}
		c.clients[p.Client] = d
		c.clientOrder = append(c.clientOrder, p.Client)
		return d
	}
	if d.Label == "" {
		d.Label = p.Label
	}
	d.Shared = d.Shared || p.Shared
	return d
}

func (c *compiler) addExtra(d ActorDecl) *ActorDecl {
	if have, ok := c.extra[d.Name]; ok {
		return have
	}
	c.extra[d.Name] = &d
	c.extraOrder = append(c.extraOrder, d.Name)
	return &d
}

func (c *compiler) wire(w Wire) {
	key := wireKey{w.From, w.Output, w.To}
	if i, ok := c.wires[key]; ok {
		c.wireList[i].Bootstrap = c.wireList[i].Bootstrap || w.Bootstrap
		c.wireList[i].Unbounded = c.wireList[i].Unbounded || w.Unbounded
		return
	}
	c.wires[key] = len(c.wireList)
	c.wireList = append(c.wireList, w)
}

func (c *compiler) flow(f Flow) error {
	decls := make([]*ActorDecl, len(f.Pairs))
	for i, p := range f.Pairs {
		decls[i] = c.client(p)
	}

	for i, p := range f.Pairs {
		producer := decls[i]
		last := i == len(f.Pairs)-1

		if producer.Kind == KindSystem && producer.InRate == 0 {
			producer.InRate = f.Rate
		}

		if p.Output == nil {
			if !last {
				return newSyntaxError(p.Pos, ErrMissingOutput, "client %q", p.Client)
			}
			if producer.InRate == 0 {
				producer.InRate = f.Rate
			}
			continue
		}

		if last {
			if producer.OutRate == 0 {
				producer.OutRate = f.Rate
			}
		} else {
			consumer := decls[i+1]
			if consumer.Kind == KindSystem && consumer.InRate == 0 {
				consumer.InRate = f.Rate
			}
			if err := c.connect(p, producer, consumer, f.Rate); err != nil {
				return err
			}
		}

		c.taps(p, producer)
	}
	return nil
}

// connect согласует частоты пары и соединяет её, вставляя сэмплер
// при несовпадении.
func (c *compiler) connect(p Pair, producer, consumer *ActorDecl, rate int) error {
	out := p.Output
	switch {
	case producer.OutRate == 0 && consumer.InRate == 0:
		producer.OutRate = rate
		consumer.InRate = rate
	case producer.OutRate == 0:
		producer.OutRate = consumer.InRate
	case consumer.InRate == 0:
		consumer.InRate = producer.OutRate
	}

	if producer.OutRate == consumer.InRate {
		c.wire(Wire{From: producer.Name, Output: out.Name, To: consumer.Name,
			Bootstrap: out.Bootstrap, Unbounded: out.Unbounded})
		return nil
	}

	in, o := producer.OutRate, consumer.InRate
	if max(in, o)%min(in, o) != 0 {
		return newSyntaxError(p.Pos, actor.ErrRateRatio,
			"%s[%s] at rate %d feeds %s at rate %d", producer.Name, out.Name, in, consumer.Name, o)
	}

	sampler := c.addExtra(ActorDecl{
		Name:    actor.SamplerName(producer.Name, out.Name, in, o),
		Kind:    KindSampler,
		Label:   actor.SamplerLabel(in, o),
		InRate:  in,
		OutRate: o,
		Port:    out.Name,
	})
	c.wire(Wire{From: producer.Name, Output: out.Name, To: sampler.Name,
		Bootstrap: out.Bootstrap, Unbounded: out.Unbounded})
	c.wire(Wire{From: sampler.Name, Output: out.Name, To: consumer.Name})
	return nil
}

// taps добавляет логгер и осциллограф для флагов $ и ~.
func (c *compiler) taps(p Pair, producer *ActorDecl) {
	out := p.Output
	rate := producer.OutRate

	if out.Logging {
		logger := c.addExtra(ActorDecl{
			Name:   fmt.Sprintf("logging_%d", rate),
			Kind:   KindLogger,
			InRate: rate,
		})
		c.wire(Wire{From: producer.Name, Output: out.Name, To: logger.Name, Unbounded: true})
	}

	if out.Scope {
		scope := c.addExtra(ActorDecl{
			Name:   fmt.Sprintf("scope_%s_%s", producer.Name, out.Name),
			Kind:   KindScope,
			InRate: rate,
			Port:   out.Name,
		})
		c.wire(Wire{From: producer.Name, Output: out.Name, To: scope.Name, Unbounded: true})
	}
}

// Systems возвращает имена клиентов-систем программы.
func (p *Program) Systems() []string {
	var names []string
	for _, a := range p.Actors {
		if a.Kind == KindSystem {
			names = append(names, a.Name)
		}
	}
	slices.Sort(names)
	return names
}
