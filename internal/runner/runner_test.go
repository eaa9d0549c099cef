package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Actors/internal/config"
	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/repo"
	"github.com/shaiso/Actors/internal/scope"
)

func mountScenario() *config.Scenario {
	return &config.Scenario{
		Name:   "mount",
		Script: "#[model(name = mount, state = completed)]\n1: src[U] -> amp[Y]$\n",
		Clients: []config.ClientSpec{
			{Name: "src", Kind: "signals", Params: map[string]any{"output": "U", "steps": 3, "value": 1.0}},
			{Name: "amp", Kind: "gain", Params: map[string]any{"input": "U", "output": "Y", "gain": 2.0}},
		},
	}
}

type memorySink struct {
	mu      sync.Mutex
	samples []domain.Sample
}

func (s *memorySink) WriteSamples(_ context.Context, _ uuid.UUID, samples []domain.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
	return nil
}

type failingSink struct{}

func (failingSink) WriteSamples(context.Context, uuid.UUID, []domain.Sample) error {
	return errors.New("sink down")
}

type recorder struct {
	mu     sync.Mutex
	events []domain.RunStatus
}

func (r *recorder) PublishRunEvent(_ context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, run.Status)
	return nil
}

type frames struct {
	mu sync.Mutex
	n  int
}

func (f *frames) Publish(scope.Frame) {
	f.mu.Lock()
	f.n++
	f.mu.Unlock()
}

func newRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	r, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(r.Stop)
	return r
}

func TestRunOnce_Succeeded(t *testing.T) {
	sink := &memorySink{}
	events := &recorder{}
	r := newRunner(t, Config{
		Scenarios: []*config.Scenario{mountScenario()},
		Sinks:     []SampleSink{sink, failingSink{}},
		Events:    events,
	})

	run, err := r.RunOnce(context.Background(), "mount")
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusSucceeded, run.Status)
	assert.Equal(t, domain.ModelStateCompleted, run.State)
	assert.Equal(t, "mount", run.Model)
	assert.Equal(t, 3, run.Actors)
	assert.Len(t, run.Reports, 3)
	assert.Empty(t, run.Error)
	assert.NotNil(t, run.StartedAt)
	assert.NotNil(t, run.FinishedAt)

	require.Len(t, sink.samples, 3)
	for i, s := range sink.samples {
		assert.Equal(t, run.ID, s.RunID)
		assert.Equal(t, "Y", s.Port)
		assert.Equal(t, i, s.Step)
		assert.Equal(t, []float64{2}, s.Values)
	}

	assert.Equal(t, []domain.RunStatus{domain.RunStatusRunning, domain.RunStatusSucceeded}, events.events)

	stored, err := r.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSucceeded, stored.Status)
}

func TestRunOnce_Failed(t *testing.T) {
	sc := mountScenario()
	sc.Name = "broken"
	sc.Clients = sc.Clients[:1]
	r := newRunner(t, Config{Scenarios: []*config.Scenario{sc}})

	run, err := r.RunOnce(context.Background(), "broken")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Equal(t, domain.ModelStateUnknown, run.State)
	assert.Contains(t, run.Error, "amp")
}

func TestRunOnce_BadParams(t *testing.T) {
	sc := mountScenario()
	sc.Clients[0].Kind = "oscillator"
	r := newRunner(t, Config{Scenarios: []*config.Scenario{sc}})

	run, err := r.RunOnce(context.Background(), "mount")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "oscillator")
}

func TestRunOnce_Scope(t *testing.T) {
	sc := mountScenario()
	sc.Script = "#[model(state = completed)]\n1: src[U] -> amp[Y]~\n"
	pub := &frames{}
	r := newRunner(t, Config{Scenarios: []*config.Scenario{sc}, Scope: pub})

	run, err := r.RunOnce(context.Background(), "mount")
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusSucceeded, run.Status, run.Error)
	assert.Equal(t, 3, pub.n)
}

func TestRunOnce_UnknownScenario(t *testing.T) {
	r := newRunner(t, Config{})
	_, err := r.RunOnce(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestTrigger(t *testing.T) {
	r := newRunner(t, Config{Scenarios: []*config.Scenario{mountScenario()}})

	run, err := r.Trigger(context.Background(), "mount")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPending, run.Status)

	require.Eventually(t, func() bool {
		stored, err := r.Get(context.Background(), run.ID)
		return err == nil && stored.IsFinished()
	}, 5*time.Second, 10*time.Millisecond)

	runs, err := r.List(context.Background(), repo.RunFilter{Scenario: "mount"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusSucceeded, runs[0].Status)
	assert.Zero(t, r.ActiveRunsCount())
}

func TestStop(t *testing.T) {
	r, err := New(Config{Scenarios: []*config.Scenario{mountScenario()}})
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	r.Stop()

	assert.True(t, r.IsStopped())
	_, err = r.RunOnce(context.Background(), "mount")
	assert.ErrorIs(t, err, ErrRunnerStopped)
	assert.ErrorIs(t, r.Start(context.Background()), ErrRunnerStopped)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Config{Scenarios: []*config.Scenario{mountScenario(), mountScenario()}})
	assert.ErrorIs(t, err, ErrDuplicateScenario)

	sc := mountScenario()
	sc.Schedule = "every day"
	_, err = New(Config{Scenarios: []*config.Scenario{sc}})
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = New(Config{Scenarios: []*config.Scenario{{Name: "empty"}}})
	assert.ErrorIs(t, err, config.ErrInvalidScenario)
}

func TestSchedule(t *testing.T) {
	sc := mountScenario()
	sc.Schedule = "@every 1h"
	idle := mountScenario()
	idle.Name = "idle"

	r := newRunner(t, Config{Scenarios: []*config.Scenario{sc, idle}})

	_, ok := r.NextRun("mount")
	assert.False(t, ok, "not scheduled before Start")

	require.NoError(t, r.Start(context.Background()))

	next, ok := r.NextRun("mount")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, time.Minute)

	_, ok = r.NextRun("idle")
	assert.False(t, ok)
}

func TestNextDue(t *testing.T) {
	from := time.Date(2024, 1, 1, 10, 2, 0, 0, time.UTC)
	next, err := NextDue("*/5 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC), next)

	_, err = NextDue("* * *", from)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now()
	var ids []uuid.UUID
	for i, name := range []string{"a", "b", "a"} {
		run := domain.NewRun(name)
		run.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, s.Create(ctx, run))
		ids = append(ids, run.ID)
	}

	dup := &domain.Run{ID: ids[0]}
	assert.ErrorIs(t, s.Create(ctx, dup), repo.ErrAlreadyExists)
	assert.ErrorIs(t, s.Update(ctx, &domain.Run{ID: uuid.New()}), repo.ErrNotFound)

	runs, err := s.List(ctx, repo.RunFilter{Scenario: "a"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")

	runs, err = s.List(ctx, repo.RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ids[1], runs[0].ID)

	got, err := s.GetByID(ctx, ids[1])
	require.NoError(t, err)
	got.Status = domain.RunStatusFailed
	again, _ := s.GetByID(ctx, ids[1])
	assert.Equal(t, domain.RunStatusPending, again.Status, "store returns copies")
}

func TestCheck(t *testing.T) {
	sc := mountScenario()
	sc.Script = "#[model(state = completed)]\n1: src[U] -> amp[Y]~\n"
	r := newRunner(t, Config{Scenarios: []*config.Scenario{sc}})

	res, err := r.Check(context.Background(), "mount")
	require.NoError(t, err)
	assert.Equal(t, domain.ModelStateReady, res.Model.State())

	g, err := r.Graph(context.Background(), "mount")
	require.NoError(t, err)
	_, ok := g.Node("scope_amp_Y")
	assert.True(t, ok)

	runs, err := r.List(context.Background(), repo.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs, "check does not create runs")
}
