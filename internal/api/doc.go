// Package api содержит HTTP API раннера.
//
// Структура:
//   - handler.go          — Handler с DI (runner, samples, scope, metrics)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery, request id)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (response)
//   - scenario_handler.go — обработчики для /scenarios
//   - run_handler.go      — обработчики для /runs
//
// Кроме REST endpoints отдаются /healthz, /metrics (Prometheus)
// и /scope (websocket осциллографов).
package api
