// Actors Runner — сервер сценариев.
//
// Runner:
//   - Загружает сценарии из SCENARIO_DIR
//   - Запускает их по расписанию, по HTTP запросу и из очереди runs.requests
//   - Сохраняет runs и отсчёты логгеров в Postgres
//   - Публикует события runs и отсчёты в RabbitMQ
//   - Транслирует кадры осциллографов через websocket /scope
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/Actors/internal/api"
	"github.com/shaiso/Actors/internal/config"
	"github.com/shaiso/Actors/internal/graph"
	"github.com/shaiso/Actors/internal/mq"
	"github.com/shaiso/Actors/internal/repo"
	"github.com/shaiso/Actors/internal/runner"
	"github.com/shaiso/Actors/internal/scope"
	"github.com/shaiso/Actors/internal/telemetry"
)

func main() {
	env := config.FromEnv()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting actors-runner")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scenarios, err := config.LoadScenarios(env.ScenarioDir)
	if err != nil {
		logger.Error("failed to load scenarios", "dir", env.ScenarioDir, "error", err)
		os.Exit(1)
	}
	logger.Info("scenarios loaded", "dir", env.ScenarioDir, "count", len(scenarios))

	// DB pool
	pool, err := repo.NewPool(ctx, env.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	runRepo := repo.NewRunRepo(pool)
	sampleRepo := repo.NewSampleRepo(pool)
	sinks := []runner.SampleSink{sampleRepo}

	// RabbitMQ
	var (
		events runner.EventPublisher
		mqConn *mq.Connection
	)
	mqConn, err = mq.NewConnection(env.RabbitMQURL, "actors-runner", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, queue triggers disabled", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher := mq.NewPublisher(mqConn, logger)
		events = publisher
		sinks = append(sinks, publisher)
	}

	metrics, err := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	hub := scope.NewHub(logger)
	defer hub.Close()

	r, err := runner.New(runner.Config{
		Scenarios: scenarios,
		Store:     runRepo,
		Sinks:     sinks,
		Events:    events,
		Scope:     hub,
		Metrics:   metrics,
		Exporter:  graph.NewDotExporter(graph.DotConfig{Dir: env.DataRepo, Logger: logger}),
		Conn:      mqConn,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create runner", "error", err)
		os.Exit(1)
	}

	if err := r.Start(ctx); err != nil {
		logger.Error("failed to start runner", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(api.Config{
		Runner:   r,
		Samples:  sampleRepo,
		Scope:    hub,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    env.Addr(),
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	r.Stop()
	logger.Info("actors-runner stopped")
}
