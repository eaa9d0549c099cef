package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shaiso/Actors/internal/clients"
	"github.com/shaiso/Actors/internal/config"
	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/graph"
	"github.com/shaiso/Actors/internal/mq"
	"github.com/shaiso/Actors/internal/network"
	"github.com/shaiso/Actors/internal/repo"
	"github.com/shaiso/Actors/internal/scope"
	"github.com/shaiso/Actors/internal/telemetry"
)

// Runner выполняет сценарии.
//
// Каждый прогон заново привязывает клиентов сценария, компилирует
// текст сети и доводит модель до конца. Итог прогона сохраняется
// в RunStore, отсчёты приёмников Logging сбрасываются в SampleSink.
//
// Источники прогонов:
//   - RunOnce и Trigger (CLI, HTTP API)
//   - расписание сценария (cron)
//   - очередь runs.requests (RabbitMQ)
type Runner struct {
	scenarios map[string]*config.Scenario
	names     []string

	registry *clients.Registry
	store    RunStore
	sinks    []SampleSink
	events   EventPublisher
	scope    scope.Publisher
	metrics  *telemetry.Metrics
	exporter graph.Exporter
	conn     *mq.Connection
	logger   *slog.Logger

	cron     *cron.Cron
	entries  map[string]cron.EntryID
	consumer *mq.Consumer

	// Active runs — прогоны в процессе выполнения (runID → run)
	mu      sync.RWMutex
	active  map[uuid.UUID]*domain.Run
	started bool
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config — конфигурация Runner.
type Config struct {
	// Scenarios — загруженные сценарии.
	Scenarios []*config.Scenario

	// Registry — фабрики клиентов (default: clients.DefaultRegistry()).
	Registry *clients.Registry

	// Store — хранилище прогонов (default: NewMemoryStore()).
	Store RunStore

	// Sinks — получатели отсчётов. Может быть пустым.
	Sinks []SampleSink

	// Events — публикация статусов прогонов. Опционально.
	Events EventPublisher

	// Scope — получатель кадров осциллографов (флаг ~). Опционально.
	Scope scope.Publisher

	Metrics  *telemetry.Metrics
	Exporter graph.Exporter

	// Conn — соединение для приёма запросов на прогон. Опционально.
	Conn *mq.Connection

	Logger *slog.Logger
}

// New создаёт Runner и проверяет сценарии.
func New(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = clients.DefaultRegistry()
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}

	r := &Runner{
		scenarios: make(map[string]*config.Scenario, len(cfg.Scenarios)),
		registry:  registry,
		store:     store,
		sinks:     cfg.Sinks,
		events:    cfg.Events,
		scope:     cfg.Scope,
		metrics:   cfg.Metrics,
		exporter:  cfg.Exporter,
		conn:      cfg.Conn,
		logger:    logger.With("component", "runner"),
		cron:      newCron(logger),
		entries:   make(map[string]cron.EntryID),
		active:    make(map[uuid.UUID]*domain.Run),
	}

	for _, sc := range cfg.Scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		if _, ok := r.scenarios[sc.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScenario, sc.Name)
		}
		if sc.Schedule != "" {
			if err := ValidateSchedule(sc.Schedule); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
		}
		r.scenarios[sc.Name] = sc
		r.names = append(r.names, sc.Name)
	}
	sort.Strings(r.names)

	r.ctx, r.cancel = context.WithCancel(context.Background())
	return r, nil
}

// Start запускает расписание и потребителя запросов на прогон.
// Отмена ctx останавливает новые прогоны так же, как Stop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrRunnerStopped
	}
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	if err := r.schedule(r.ctx); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	context.AfterFunc(ctx, r.cancel)
	r.cron.Start()

	if r.conn != nil {
		r.consumer = mq.NewConsumer(r.conn, r.logger, mq.ConsumerConfig{
			Queue: mq.QueueRunRequests,
			Handler: mq.RunRequestHandler(func(ctx context.Context, name string) error {
				_, err := r.RunOnce(ctx, name)
				return err
			}),
			Prefetch: 1,
		})

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.consumer.Start(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("run request consumer error", "error", err)
			}
		}()
	}

	r.logger.Info("runner started",
		"scenarios", len(r.names),
		"scheduled", len(r.entries),
		"consume_requests", r.conn != nil,
	)
	return nil
}

// Stop останавливает раннер. Выполняющиеся прогоны отменяются,
// Stop ждёт их записи в хранилище.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	r.logger.Info("stopping runner...")

	cronDone := r.cron.Stop()
	r.cancel()
	if r.consumer != nil {
		r.consumer.Stop()
	}
	<-cronDone.Done()
	r.wg.Wait()

	r.logger.Info("runner stopped")
}

// IsStopped проверяет, остановлен ли раннер.
func (r *Runner) IsStopped() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stopped
}

// Scenario возвращает сценарий по имени.
func (r *Runner) Scenario(name string) (*config.Scenario, error) {
	sc, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
	}
	return sc, nil
}

// Scenarios возвращает сценарии в порядке имён.
func (r *Runner) Scenarios() []*config.Scenario {
	out := make([]*config.Scenario, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.scenarios[name])
	}
	return out
}

// Bind создаёт свежих клиентов сценария по реестру.
func (r *Runner) Bind(sc *config.Scenario) (map[string]any, error) {
	bindings := make(map[string]any, len(sc.Clients))
	for _, c := range sc.Clients {
		client, err := r.registry.New(c.Kind, c.Name, clients.Params(c.Params))
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		bindings[c.Name] = client
	}
	return bindings, nil
}

// RunOnce выполняет сценарий синхронно.
//
// Ошибка возвращается только если прогон не удалось начать
// (неизвестный сценарий, отказ хранилища). Провал модели
// записывается в run.Status и run.Error.
func (r *Runner) RunOnce(ctx context.Context, name string) (*domain.Run, error) {
	sc, run, err := r.prepare(ctx, name)
	if err != nil {
		return nil, err
	}
	r.execute(ctx, sc, run)
	return run, nil
}

// Trigger создаёт run и выполняет его в фоне.
// Возвращает снимок run в статусе PENDING.
func (r *Runner) Trigger(ctx context.Context, name string) (*domain.Run, error) {
	sc, run, err := r.prepare(ctx, name)
	if err != nil {
		return nil, err
	}
	snapshot := clone(run)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(r.ctx, sc, run)
	}()

	return &snapshot, nil
}

func (r *Runner) prepare(ctx context.Context, name string) (*config.Scenario, *domain.Run, error) {
	if r.IsStopped() {
		return nil, nil, ErrRunnerStopped
	}
	sc, err := r.Scenario(name)
	if err != nil {
		return nil, nil, err
	}

	run := domain.NewRun(sc.Name)
	if err := r.store.Create(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("create run: %w", err)
	}
	return sc, run, nil
}

// Check собирает модель сценария до READY без запуска.
// Экспортёр графа вызывается так же, как при прогоне.
func (r *Runner) Check(ctx context.Context, name string) (*network.Result, error) {
	sc, err := r.Scenario(name)
	if err != nil {
		return nil, err
	}
	bindings, err := r.Bind(sc)
	if err != nil {
		return nil, err
	}

	env := network.Env{
		Clients:  bindings,
		Scope:    scope.Factory(scope.Discard),
		Logger:   r.logger,
		Exporter: r.exporter,
	}
	prog, err := network.Compile(sc.Script, network.WithSystems(env.Systems()...))
	if err != nil {
		return nil, err
	}
	ready := *prog
	ready.Model.State = domain.ModelStateReady

	res, err := network.Build(ctx, &ready, env)
	if res != nil {
		res.Program = prog
	}
	return res, err
}

// Graph возвращает граф модели сценария.
func (r *Runner) Graph(ctx context.Context, name string) (*graph.Graph, error) {
	res, err := r.Check(ctx, name)
	if err != nil {
		return nil, err
	}
	return res.Model.Graph(), nil
}

// Get возвращает run по ID.
func (r *Runner) Get(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	run, err := r.store.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// List возвращает runs с фильтрацией.
func (r *Runner) List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	return r.store.List(ctx, filter)
}

// ActiveRunsCount возвращает количество выполняющихся прогонов.
func (r *Runner) ActiveRunsCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// execute проводит run через жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED | FAILED | CANCELLED
func (r *Runner) execute(ctx context.Context, sc *config.Scenario, run *domain.Run) {
	logger := telemetry.WithRunID(r.logger, run.ID.String()).With("scenario", sc.Name)

	r.mu.Lock()
	r.active[run.ID] = run
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.active, run.ID)
		r.mu.Unlock()
	}()

	run.MarkRunning()
	r.save(ctx, run, logger)
	logger.Info("run started")

	res, err := r.build(ctx, sc, logger)

	run.State = domain.ModelStateUnknown
	if res != nil {
		r.collect(ctx, run, res, logger)
	}

	switch {
	case ctx.Err() != nil:
		run.MarkCancelled()
		if err != nil {
			run.Error = err.Error()
		}
	case err != nil:
		run.MarkFailed(err.Error())
	default:
		run.MarkSucceeded()
	}
	r.save(ctx, run, logger)

	attrs := []any{
		"status", run.Status,
		"state", run.State,
		"model", run.Model,
		"actors", run.Actors,
		"duration", run.Duration().String(),
	}
	if run.Status == domain.RunStatusSucceeded {
		logger.Info("run finished", attrs...)
	} else {
		logger.Error("run finished", append(attrs, "error", run.Error)...)
	}
}

// build привязывает клиентов, собирает модель и ждёт её завершения.
// Модель, оставленная текстом сети в RUNNING, тоже доводится до конца.
func (r *Runner) build(ctx context.Context, sc *config.Scenario, logger *slog.Logger) (*network.Result, error) {
	bindings, err := r.Bind(sc)
	if err != nil {
		return nil, err
	}

	env := network.Env{
		Clients:  bindings,
		Logger:   logger,
		Metrics:  r.metrics,
		Exporter: r.exporter,
	}
	if r.scope != nil {
		env.Scope = scope.Factory(r.scope)
	}

	res, err := network.Run(ctx, sc.Script, env)
	if err != nil {
		return res, err
	}
	if res.Model.State() == domain.ModelStateRunning {
		err = res.Model.Wait()
	}
	return res, err
}

// collect переносит итоги модели в run и сбрасывает отсчёты.
func (r *Runner) collect(ctx context.Context, run *domain.Run, res *network.Result, logger *slog.Logger) {
	run.Model = res.Program.Model.Name
	run.Actors = res.Model.Len()
	run.State = res.Model.State()

	for _, rep := range res.Model.Reports() {
		report := domain.ActorReport{Actor: rep.Actor, Kind: rep.Kind}
		if rep.Err != nil {
			report.Error = rep.Err.Error()
		}
		run.Reports = append(run.Reports, report)
	}

	var samples []domain.Sample
	for _, l := range res.Loggers() {
		samples = append(samples, l.Drain()...)
	}
	if len(samples) == 0 {
		return
	}
	for i := range samples {
		samples[i].RunID = run.ID
	}

	ctx = context.WithoutCancel(ctx)
	for _, sink := range r.sinks {
		if err := sink.WriteSamples(ctx, run.ID, samples); err != nil {
			logger.Warn("failed to flush samples",
				"sink", fmt.Sprintf("%T", sink),
				"samples", len(samples),
				"error", err,
			)
		}
	}
	logger.Debug("samples flushed", "samples", len(samples), "sinks", len(r.sinks))
}

// save записывает run и публикует событие. Ошибки не прерывают прогон.
func (r *Runner) save(ctx context.Context, run *domain.Run, logger *slog.Logger) {
	ctx = context.WithoutCancel(ctx)
	if err := r.store.Update(ctx, run); err != nil {
		logger.Error("failed to update run", "status", run.Status, "error", err)
	}
	if r.events != nil {
		if err := r.events.PublishRunEvent(ctx, run); err != nil {
			// Не фатальная ошибка — run уже сохранён
			logger.Warn("failed to publish run event", "status", run.Status, "error", err)
		}
	}
}
