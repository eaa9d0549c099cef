// Package repo хранит прогоны сценариев и их телеметрию в Postgres.
//
// RunRepo пишет записи domain.Run, SampleRepo загружает отсчёты
// приёмников Logging через COPY.
package repo
