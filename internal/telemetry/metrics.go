package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "actors"

// Metrics — Prometheus метрики исполнения моделей.
//
// Все методы безопасны для nil-получателя: модель без метрик
// просто ничего не записывает.
type Metrics struct {
	updates    *prometheus.CounterVec
	sends      *prometheus.CounterVec
	receives   *prometheus.CounterVec
	terminated *prometheus.CounterVec
	running    *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "actor",
				Name:      "updates_total",
				Help:      "Total client updates per actor.",
			},
			[]string{"model", "actor"},
		),
		sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "actor",
				Name:      "sends_total",
				Help:      "Total envelopes distributed per actor output.",
			},
			[]string{"model", "actor", "port"},
		),
		receives: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "actor",
				Name:      "receives_total",
				Help:      "Total envelopes collected per actor input.",
			},
			[]string{"model", "actor", "port"},
		),
		terminated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "actor",
				Name:      "terminations_total",
				Help:      "Actor terminations by kind.",
			},
			[]string{"model", "kind"},
		),
		running: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "model",
				Name:      "running_actors",
				Help:      "Number of actor tasks currently running.",
			},
			[]string{"model"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "model",
				Name:      "run_duration_seconds",
				Help:      "Model run wall time in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"model", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.updates, m.sends, m.receives, m.terminated, m.running, m.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Update отмечает вызов Update клиента.
func (m *Metrics) Update(model, actor string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(model, actor).Inc()
}

// Send отмечает отправку конверта.
func (m *Metrics) Send(model, actor, port string) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(model, actor, port).Inc()
}

// Receive отмечает получение конверта.
func (m *Metrics) Receive(model, actor, port string) {
	if m == nil {
		return
	}
	m.receives.WithLabelValues(model, actor, port).Inc()
}

// ActorStarted увеличивает число работающих акторов.
func (m *Metrics) ActorStarted(model string) {
	if m == nil {
		return
	}
	m.running.WithLabelValues(model).Inc()
}

// ActorStopped уменьшает число работающих акторов и учитывает вид завершения.
func (m *Metrics) ActorStopped(model, kind string) {
	if m == nil {
		return
	}
	m.running.WithLabelValues(model).Dec()
	m.terminated.WithLabelValues(model, kind).Inc()
}

// ModelFinished записывает длительность прогона модели.
func (m *Metrics) ModelFinished(model, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(model, outcome).Observe(elapsed.Seconds())
}

// WithMetrics добавляет метрики в контекст.
func WithMetrics(ctx context.Context, m *Metrics) context.Context {
	return context.WithValue(ctx, CtxMetrics, m)
}

// MetricsFromContext извлекает метрики из контекста.
// Если метрик нет, возвращает nil (все методы nil-безопасны).
func MetricsFromContext(ctx context.Context) *Metrics {
	m, _ := ctx.Value(CtxMetrics).(*Metrics)
	return m
}

// Имя модели передаётся через контекст вместе с логгером и метриками.
const ctxModelName ctxKey = "model_name"

// WithModelName добавляет имя модели в контекст.
func WithModelName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxModelName, name)
}

// ModelNameFromContext извлекает имя модели из контекста.
func ModelNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(ctxModelName).(string)
	return name
}
