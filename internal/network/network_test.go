package network_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/clients"
	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/network"
	"github.com/shaiso/Actors/internal/port"
	"github.com/shaiso/Actors/internal/system"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func compile(t *testing.T, src string, opts ...network.CompileOption) *network.Program {
	t.Helper()
	prog, err := network.Compile(src, opts...)
	require.NoError(t, err)
	return prog
}

func rates(t *testing.T, prog *network.Program, name string) [2]int {
	t.Helper()
	d, ok := prog.Actor(name)
	require.True(t, ok, "actor %s not declared", name)
	return [2]int{d.InRate, d.OutRate}
}

func TestParse(t *testing.T) {
	src := `
// телескоп
#[model(name = mount, flowchart = "mount chart")]
1: &src("Source")[U]!$ -> ctrl[Y]..~ ->
   sink
`
	s, err := network.Parse(src)
	require.NoError(t, err)

	require.Len(t, s.Attrs, 2)
	assert.Equal(t, network.Attr{Key: "flowchart", Value: "mount chart", Pos: network.Pos{Line: 3, Col: 23}}, s.Attrs[1])

	require.Len(t, s.Flows, 1)
	f := s.Flows[0]
	assert.Equal(t, 1, f.Rate)
	require.Len(t, f.Pairs, 3)

	first := f.Pairs[0]
	assert.True(t, first.Shared)
	assert.Equal(t, "Source", first.Label)
	assert.Equal(t, &network.OutputRef{Name: "U", Bootstrap: true, Logging: true}, first.Output)

	assert.Equal(t, &network.OutputRef{Name: "Y", Unbounded: true, Scope: true}, f.Pairs[1].Output)
	assert.Nil(t, f.Pairs[2].Output)
	assert.Equal(t, 5, f.Pairs[2].Pos.Line)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
		line int
		col  int
	}{
		{"missing colon", "1 a[X] -> b", network.ErrSyntax, 1, 3},
		{"zero rate", "0: a[X] -> b", network.ErrInvalidRate, 1, 1},
		{"unknown option", "1: a[X]? -> b", network.ErrUnknownOption, 1, 8},
		{"unknown attribute", "#[model(color = red)]\n1: a[X] -> b", network.ErrUnknownAttribute, 1, 9},
		{"bad state", "#[model(state = paused)]", network.ErrInvalidState, 1, 9},
		{"missing output", "1: a -> b", network.ErrMissingOutput, 1, 4},
		{"unterminated label", `1: a("x[X] -> b`, network.ErrSyntax, 1, 6},
		{"dangling arrow", "1: a[X] ->", network.ErrSyntax, 1, 11},
		{"two flows on a line", "1: a[X] -> b 2: c", network.ErrSyntax, 1, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := network.Compile(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			var se *network.SyntaxError
			require.True(t, errors.As(err, &se), "expected *SyntaxError, got %T", err)
			assert.Equal(t, tt.line, se.Line)
			assert.Equal(t, tt.col, se.Col)
		})
	}
}

func TestCompile_RateInference(t *testing.T) {
	prog := compile(t, `
1: a[A2B] -> b[B2C] -> c
10: c[C2D] -> d
5: d[D2E] -> e
`)

	want := map[string][2]int{
		"a": {0, 1},
		"b": {1, 1},
		"c": {1, 10},
		"d": {10, 5},
		"e": {5, 0},
	}
	for name, r := range want {
		assert.Equal(t, r, rates(t, prog, name), name)
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, prog.Model.Actors)
	assert.Equal(t, []network.Wire{
		{From: "a", Output: "A2B", To: "b"},
		{From: "b", Output: "B2C", To: "c"},
		{From: "c", Output: "C2D", To: "d"},
		{From: "d", Output: "D2E", To: "e"},
	}, prog.Wires)
}

func TestCompile_Propagation(t *testing.T) {
	prog := compile(t, `
4: sink
1: src[U] -> sink
`)
	assert.Equal(t, [2]int{0, 4}, rates(t, prog, "src"), "consumer rate propagates to producer")
	assert.Len(t, prog.Wires, 1)
}

func TestCompile_Sampler(t *testing.T) {
	prog := compile(t, `
1: src[U]
4: sink
1: src[U] -> sink
`)

	d, ok := prog.Actor("sampler_src_U_1r4")
	require.True(t, ok)
	assert.Equal(t, network.ActorDecl{
		Name: "sampler_src_U_1r4", Kind: network.KindSampler, Label: "downsampling",
		InRate: 1, OutRate: 4, Port: "U",
	}, d)
	assert.Equal(t, []network.Wire{
		{From: "src", Output: "U", To: "sampler_src_U_1r4"},
		{From: "sampler_src_U_1r4", Output: "U", To: "sink"},
	}, prog.Wires)

	up := compile(t, "3: src[U]\n1: sink\n1: src[U] -> sink")
	d, ok = up.Actor("sampler_src_U_3r1")
	require.True(t, ok)
	assert.Equal(t, "upsampling", d.Label)

	_, err := network.Compile("2: src[U]\n3: sink\n1: src[U] -> sink")
	assert.ErrorIs(t, err, actor.ErrRateRatio)
}

func TestCompile_LoggingAndScope(t *testing.T) {
	prog := compile(t, `
1: a[X]$ -> b[Y]$~
`)

	assert.Equal(t, []string{"a", "b", "logging_1", "scope_b_Y"}, prog.Model.Actors)

	logger, ok := prog.Actor("logging_1")
	require.True(t, ok)
	assert.Equal(t, network.KindLogger, logger.Kind)
	assert.Equal(t, 1, logger.InRate)

	scope, ok := prog.Actor("scope_b_Y")
	require.True(t, ok)
	assert.Equal(t, network.ActorDecl{Name: "scope_b_Y", Kind: network.KindScope, InRate: 1, Port: "Y"}, scope)

	assert.Equal(t, []network.Wire{
		{From: "a", Output: "X", To: "b"},
		{From: "a", Output: "X", To: "logging_1", Unbounded: true},
		{From: "b", Output: "Y", To: "logging_1", Unbounded: true},
		{From: "b", Output: "Y", To: "scope_b_Y", Unbounded: true},
	}, prog.Wires)
}

func TestCompile_SharedClientDedup(t *testing.T) {
	prog := compile(t, `
1: &a("Mount")[X]! -> b
1: a[Y] -> c
1: a[X] -> b
`)

	a, ok := prog.Actor("a")
	require.True(t, ok)
	assert.True(t, a.Shared)
	assert.Equal(t, "Mount", a.Label)

	assert.Len(t, prog.Actors, 3)
	assert.Equal(t, []network.Wire{
		{From: "a", Output: "X", To: "b", Bootstrap: true},
		{From: "a", Output: "Y", To: "c"},
	}, prog.Wires)
}

func TestCompile_SingletonChain(t *testing.T) {
	prog := compile(t, "7: lonely")
	assert.Empty(t, prog.Wires)
	assert.Equal(t, [2]int{7, 0}, rates(t, prog, "lonely"))
}

func TestCompile_ModelAttributes(t *testing.T) {
	prog := compile(t, "1: a[X] -> b")
	assert.Equal(t, network.DefaultModelName, prog.Model.Name)
	assert.Equal(t, network.DefaultModelName, prog.Model.Flowchart)
	assert.Equal(t, domain.ModelStateReady, prog.Model.State)

	prog = compile(t, `#[model(name = m1, state = completed)]
1: a[X] -> b`)
	assert.Equal(t, "m1", prog.Model.Name)
	assert.Equal(t, "m1", prog.Model.Flowchart)
	assert.Equal(t, domain.ModelStateCompleted, prog.Model.State)
}

func TestCompile_Systems(t *testing.T) {
	prog := compile(t, "5: src[U] -> ctrl[Y] -> sink", network.WithSystems("ctrl"))
	ctrl, ok := prog.Actor("ctrl")
	require.True(t, ok)
	assert.Equal(t, network.KindSystem, ctrl.Kind)
	assert.Equal(t, 5, ctrl.InRate)
	assert.Equal(t, []string{"ctrl"}, prog.Systems())
}

func TestCompile_Deterministic(t *testing.T) {
	src := `
#[model(name = det)]
1: a[X]$ -> b[Y] -> c
10: c[Z]~ -> d
1: e[W] -> d
`
	first := compile(t, src)
	for range 10 {
		next := compile(t, src)
		if diff := cmp.Diff(first, next); diff != "" {
			t.Fatalf("program differs (-first +next):\n%s", diff)
		}
	}
	assert.Contains(t, first.String(), "wire     a[X] -> b")
}

// Build Tests

func start(t *testing.T, src string, env network.Env) *network.Result {
	t.Helper()
	if env.Logger == nil {
		env.Logger = quiet
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	res, err := network.Run(ctx, src, env)
	require.NoError(t, err)
	return res
}

func ramp(n int) *clients.Signals {
	return clients.NewSignals(n).Channel(port.Named("U"), clients.Ramp{Slope: 1})
}

func TestBuild_Completed(t *testing.T) {
	res := start(t, `
#[model(name = chain, state = completed)]
1: src[U] -> amp[Y]$
`, network.Env{Clients: map[string]any{
		"src": ramp(5),
		"amp": clients.NewGain(port.Named("U"), port.Named("Y"), 10),
	}})

	assert.Equal(t, domain.ModelStateCompleted, res.Model.State())
	loggers := res.Loggers()
	require.Len(t, loggers, 1)
	assert.Equal(t, [][]float64{{0}, {10}, {20}, {30}, {40}}, loggers[0].Series("Y"))
}

func TestBuild_SamplerDecimates(t *testing.T) {
	sink := clients.NewLogging("sink", 4)
	start(t, `
#[model(state = completed)]
1: src[U]
4: sink
1: src[U] -> sink
`, network.Env{Clients: map[string]any{"src": ramp(8), "sink": sink}})

	assert.Equal(t, [][]float64{{3}, {7}}, sink.Series("U"))
}

func TestBuild_Running(t *testing.T) {
	sink := clients.NewLogging("sink", 1)
	res := start(t, `
#[model(state = running)]
1: src[U] -> sink
`, network.Env{Clients: map[string]any{"src": ramp(3), "sink": sink}})

	assert.Equal(t, domain.ModelStateRunning, res.Model.State())
	require.NoError(t, res.Model.Wait())
	assert.Equal(t, 3, sink.Len())
}

func TestBuild_ReadyDoesNotRun(t *testing.T) {
	sink := clients.NewLogging("sink", 1)
	res := start(t, "1: src[U] -> sink", network.Env{Clients: map[string]any{"src": ramp(3), "sink": sink}})

	assert.Equal(t, domain.ModelStateReady, res.Model.State())
	assert.Zero(t, sink.Len())
}

func TestBuild_System(t *testing.T) {
	u, y := port.Named("U"), port.Named("Y")
	ctrl := system.New("ctrl", func(w *system.Wiring) error {
		in, err := w.Input(u, 1)
		if err != nil {
			return err
		}
		out, err := w.Output(y, 1)
		if err != nil {
			return err
		}
		amp, err := actor.New(clients.NewGain(u, y, -1), 1, 1, actor.WithName("amp"))
		if err != nil {
			return err
		}
		w.Add(amp)
		if err := in.Connect(u, amp); err != nil {
			return err
		}
		return amp.Connect(y, out)
	})
	sink := clients.NewLogging("sink", 1)

	res := start(t, `
#[model(state = completed)]
1: src[U] -> ctrl[Y] -> sink
`, network.Env{Clients: map[string]any{"src": ramp(3), "ctrl": ctrl, "sink": sink}})

	assert.Equal(t, [][]float64{{0}, {-1}, {-2}}, sink.Series("Y"))
	assert.Equal(t, 5, res.Model.Len(), "src, sink, two gateways and the inner actor")
	_, ok := res.Actors["ctrl"]
	assert.False(t, ok)
}

// negator строит систему name: Y = -U через внутренний актор.
func negator(t *testing.T, name string) *system.System {
	t.Helper()
	u, y := port.Named("U"), port.Named("Y")
	return system.New(name, func(w *system.Wiring) error {
		in, err := w.Input(u, 1)
		if err != nil {
			return err
		}
		out, err := w.Output(y, 1)
		if err != nil {
			return err
		}
		amp, err := actor.New(clients.NewGain(u, y, -1), 1, 1, actor.WithName(name+"_amp"))
		if err != nil {
			return err
		}
		w.Add(amp)
		if err := in.Connect(u, amp); err != nil {
			return err
		}
		return amp.Connect(y, out)
	})
}

// plant читает Y, выдаёт U = Y + 1 и останавливается на limit-м такте.
type plant struct {
	limit int
	ticks int
	reads []float64
	y     float64
}

func (p *plant) Update() { p.ticks++ }

func (p *plant) Read(d *port.Data) {
	p.y, _ = port.Float(d)
	p.reads = append(p.reads, p.y)
}

func (p *plant) Write(id port.ID) (*port.Data, bool) {
	if id != port.Named("U") || p.ticks >= p.limit {
		return nil, false
	}
	return port.NewData(id, p.y+1), true
}

func TestBuild_SystemBootstrap(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"client output", "#[model(state = completed)]\n1: plant[U]! -> ctrl[Y] -> plant\n"},
		{"system output", "#[model(state = completed)]\n1: plant[U] -> ctrl[Y]! -> plant\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &plant{limit: 10}
			res := start(t, tt.src, network.Env{Clients: map[string]any{
				"plant": p,
				"ctrl":  negator(t, "ctrl"),
			}})

			assert.Equal(t, domain.ModelStateCompleted, res.Model.State())
			assert.Equal(t, 10, p.ticks)
			require.Len(t, p.reads, 10)
			for _, r := range res.Model.Reports() {
				assert.NotEqual(t, domain.TerminationFailed, r.Kind, r.Actor)
			}
		})
	}
}

type tap struct {
	n int
}

func (t *tap) Update() {}

func (t *tap) Read(*port.Data) { t.n++ }

func TestBuild_Scope(t *testing.T) {
	taps := map[string]*tap{}
	env := network.Env{
		Clients: map[string]any{"src": ramp(4)},
		Scope: func(name string, id port.ID) (actor.Client, error) {
			tp := &tap{}
			taps[name] = tp
			return tp, nil
		},
	}
	res := start(t, "#[model(state = completed)]\n2: src[U]~", env)

	require.Contains(t, taps, "scope_src_U")
	assert.Equal(t, 4, taps["scope_src_U"].n)
	assert.Same(t, taps["scope_src_U"], res.Generated["scope_src_U"])
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := network.Run(ctx, "1: src[U] -> sink", network.Env{Clients: map[string]any{"src": ramp(1)}})
	assert.ErrorIs(t, err, network.ErrUnboundClient)

	_, err = network.Run(ctx, "1: src[U]~", network.Env{Clients: map[string]any{"src": ramp(1)}})
	assert.ErrorIs(t, err, network.ErrNoScope)

	_, err = network.Run(ctx, "1: src[U] -> sink", network.Env{Clients: map[string]any{"src": ramp(1), "sink": 42}})
	assert.ErrorIs(t, err, network.ErrInvalidBinding)

	_, err = network.Run(ctx, "1: src[U] -> sink", network.Env{Clients: map[string]any{
		"src":  ramp(1),
		"sink": clients.NewTimer(1),
	}})
	assert.ErrorIs(t, err, actor.ErrNotReader)
}
