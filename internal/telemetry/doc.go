// Package telemetry обеспечивает наблюдаемость моделей.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики акторов и моделей
//
// Логгер, метрики и имя модели передаются акторам через context.Context,
// поэтому ядро не зависит от глобального состояния.
package telemetry
