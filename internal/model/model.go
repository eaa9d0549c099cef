package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/graph"
	"github.com/shaiso/Actors/internal/telemetry"
)

const (
	stateUnknown   = domain.ModelStateUnknown
	stateReady     = domain.ModelStateReady
	stateRunning   = domain.ModelStateRunning
	stateCompleted = domain.ModelStateCompleted
)

// Report — итог задачи одного актора.
type Report struct {
	Actor string
	Kind  domain.TerminationKind
	Err   error
}

// Model — проверяемый и запускаемый набор акторов.
//
// Жизненный цикл: UNKNOWN → READY (Check) → RUNNING (Run) → COMPLETED (Wait).
// Переход не по порядку возвращает ErrInvalidState.
type Model struct {
	id        uuid.UUID
	name      string
	flowchart string
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	exporter  graph.Exporter

	mu     sync.Mutex
	state  domain.ModelState
	tasks  []actor.Task
	seen   map[actor.Task]struct{}
	addErr error

	parent  context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
	start   time.Time
	elapsed time.Duration
	reports []Report
}

// New создаёт модель из частей.
func New(parts ...Part) *Model {
	m := &Model{
		id:     uuid.New(),
		name:   "model",
		logger: slog.Default(),
		state:  stateUnknown,
		seen:   make(map[actor.Task]struct{}),
	}
	return m.Add(parts...)
}

// Named задаёт имя модели.
func (m *Model) Named(name string) *Model {
	if name != "" {
		m.name = name
	}
	return m
}

// WithFlowchart задаёт имя экспортируемой диаграммы.
// По умолчанию диаграмма называется по имени модели.
func (m *Model) WithFlowchart(name string) *Model {
	m.flowchart = name
	return m
}

// WithLogger задаёт логгер модели.
func (m *Model) WithLogger(logger *slog.Logger) *Model {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithMetrics задаёт Prometheus метрики.
func (m *Model) WithMetrics(metrics *telemetry.Metrics) *Model {
	m.metrics = metrics
	return m
}

// WithExporter задаёт экспортёр диаграммы, вызываемый после Check.
func (m *Model) WithExporter(e graph.Exporter) *Model {
	m.exporter = e
	return m
}

// ID возвращает идентификатор модели.
func (m *Model) ID() uuid.UUID { return m.id }

// Name возвращает имя модели.
func (m *Model) Name() string { return m.name }

// State возвращает текущую фазу.
func (m *Model) State() domain.ModelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Len возвращает число акторов.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Graph возвращает граф модели.
func (m *Model) Graph() *graph.Graph {
	tasks := m.Tasks()
	nodes := make([]graph.Node, 0, len(tasks))
	for _, t := range tasks {
		nodes = append(nodes, t.Node())
	}
	name := m.flowchart
	if name == "" {
		name = m.name
	}
	return graph.New(name, nodes)
}

// Check проверяет топологию и переводит модель в READY.
//
// Проверяется: модель не пуста, число входов равно числу выходов,
// каждый актор согласован со своими частотами, суммы хэшей входов
// и выходов равны. При ошибке модель остаётся в UNKNOWN.
func (m *Model) Check() error {
	m.mu.Lock()
	if m.state != stateUnknown {
		defer m.mu.Unlock()
		return errInvalidTransition("check", m.state)
	}
	if m.addErr != nil {
		defer m.mu.Unlock()
		return &CheckError{Model: m.name, Err: m.addErr}
	}
	if err := m.check(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.state = stateReady
	m.mu.Unlock()

	logger := telemetry.WithModel(m.logger, m.name)
	logger.Info("model checked", "actors", m.Len())

	g := m.Graph()
	if cycle := g.UnbootstrappedCycle(); len(cycle) > 0 {
		logger.Warn("feedback loop without bootstrap will deadlock", "actors", cycle)
	}

	if m.exporter != nil {
		if err := m.exporter.Export(context.Background(), g); err != nil {
			logger.Warn("flowchart export failed", "error", err)
		}
	}

	return nil
}

// check выполняет проверки под мьютексом.
func (m *Model) check() error {
	if len(m.tasks) == 0 {
		return &CheckError{Model: m.name, Err: ErrNoActors}
	}

	var nIn, nOut int
	for _, t := range m.tasks {
		nIn += t.NInputs()
		nOut += t.NOutputs()
	}
	if nIn != nOut {
		return &CheckError{
			Model: m.name,
			Err:   fmt.Errorf("%w: %d inputs, %d outputs", ErrIOCountMismatch, nIn, nOut),
		}
	}

	for _, t := range m.tasks {
		if err := t.CheckInputs(); err != nil {
			return &CheckError{Model: m.name, Actor: t.Name(), Err: err}
		}
		if err := t.CheckOutputs(); err != nil {
			return &CheckError{Model: m.name, Actor: t.Name(), Err: err}
		}
	}

	// Суммы с переполнением: сравниваются по модулю 2^64
	var hIn, hOut uint64
	for _, t := range m.tasks {
		for _, h := range t.InputsHashes() {
			hIn += h
		}
		for _, h := range t.OutputsHashes() {
			hOut += h
		}
	}
	if hIn != hOut {
		return &CheckError{
			Model: m.name,
			Err:   fmt.Errorf("%w: inputs %#x, outputs %#x", ErrHashMismatch, hIn, hOut),
		}
	}

	return nil
}

// SkipCheck переводит модель в READY без проверки.
func (m *Model) SkipCheck() *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateUnknown {
		m.state = stateReady
	}
	return m
}

// Run запускает по одной горутине на актор.
//
// Логгер, метрики и имя модели передаются акторам через контекст.
// Отмена ctx разбирает модель: все ожидающие отправки и получения
// прерываются, и завершение каскадом проходит по графу.
func (m *Model) Run(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateReady {
		return errInvalidTransition("run", m.state)
	}

	logger := telemetry.WithModel(m.logger, m.name).With("model_id", m.id.String())

	m.parent = ctx
	ctx, m.cancel = context.WithCancel(ctx)
	ctx = telemetry.WithLogger(ctx, logger)
	ctx = telemetry.WithMetrics(ctx, m.metrics)
	ctx = telemetry.WithModelName(ctx, m.name)

	m.reports = make([]Report, 0, len(m.tasks))

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range m.tasks {
		g.Go(func() error {
			m.metrics.ActorStarted(m.name)
			err := t.Run(gctx)

			r := Report{Actor: t.Name(), Kind: classify(gctx, err), Err: err}
			m.addReport(r)
			m.metrics.ActorStopped(m.name, string(r.Kind))

			switch r.Kind {
			case domain.TerminationFailed:
				logger.Error("actor failed", "actor", r.Actor, "error", err)
				return err
			default:
				logger.Debug("actor terminated", "actor", r.Actor, "kind", r.Kind, "reason", err)
				return nil
			}
		})
	}

	m.group = g
	m.start = time.Now()
	m.state = stateRunning
	logger.Info("model launched", "actors", len(m.tasks))

	return nil
}

// Wait ждёт завершения всех акторов и переводит модель в COMPLETED.
//
// Конец потока (ErrNoData, ошибки каналов) считается штатным
// завершением. Возвращается первая иная ошибка (например, panic клиента)
// или ErrCancelled, если модель разобрана отменой внешнего контекста.
func (m *Model) Wait() error {
	m.mu.Lock()
	if m.state != stateRunning {
		defer m.mu.Unlock()
		return errInvalidTransition("wait", m.state)
	}
	g := m.group
	m.mu.Unlock()

	err := g.Wait()

	m.mu.Lock()
	m.cancel()
	m.elapsed = time.Since(m.start)
	m.state = stateCompleted
	parentErr := m.parent.Err()
	m.mu.Unlock()

	outcome := "completed"
	switch {
	case err != nil:
		outcome = "failed"
		err = fmt.Errorf("model %s: %w", m.name, err)
	case parentErr != nil:
		outcome = "cancelled"
		err = fmt.Errorf("model %s: %w: %w", m.name, ErrCancelled, parentErr)
	}
	m.metrics.ModelFinished(m.name, outcome, m.elapsed)

	telemetry.WithModel(m.logger, m.name).Info("model completed",
		"outcome", outcome,
		"elapsed", m.elapsed.String(),
	)

	return err
}

// Start запускает проверенную модель и ждёт её завершения.
func (m *Model) Start(ctx context.Context) error {
	if err := m.Run(ctx); err != nil {
		return err
	}
	return m.Wait()
}

// Reports возвращает итоги завершившихся акторов.
func (m *Model) Reports() []Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Report(nil), m.reports...)
}

// Elapsed возвращает длительность прогона.
func (m *Model) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

func (m *Model) addReport(r Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
}

// classify определяет вид завершения актора.
func classify(ctx context.Context, err error) domain.TerminationKind {
	switch {
	case err == nil:
		return domain.TerminationStreamEnd
	case actor.IsStreamEnd(err) && ctx.Err() != nil:
		return domain.TerminationCancelled
	case actor.IsStreamEnd(err):
		return domain.TerminationStreamEnd
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.TerminationCancelled
	default:
		return domain.TerminationFailed
	}
}

func errInvalidTransition(op string, state domain.ModelState) error {
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidState, op, state)
}
