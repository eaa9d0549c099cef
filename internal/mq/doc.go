// Package mq связывает раннер с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с переподключением и graceful shutdown
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — запросы на прогон, события прогонов, телеметрия
//   - consumer.go   — потребление запросов на прогон
//
// Типы сообщений:
//   - run.requested — запрос на прогон сценария
//   - run.started   — прогон запущен
//   - run.finished  — прогон завершён
//   - samples       — отсчёты приёмников Logging
//
// Exchanges:
//   - actors.runs      — запросы и события прогонов
//   - actors.telemetry — отсчёты
//   - actors.dlq       — dead letter queue
package mq
