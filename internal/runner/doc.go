// Package runner выполняет сценарии: привязывает клиентов из реестра,
// собирает модель через network.Run и записывает итог прогона.
//
// Структура:
//   - runner.go   — Runner, жизненный цикл прогона
//   - schedule.go — запуск по cron-расписанию сценария
//   - store.go    — RunStore, SampleSink и хранилище в памяти
//
// Использование:
//
//	r, err := runner.New(runner.Config{
//	    Scenarios: scenarios,
//	    Store:     repo.NewRunRepo(pool),
//	    Sinks:     []runner.SampleSink{repo.NewSampleRepo(pool), publisher},
//	    Events:    publisher, // опционально
//	    Scope:     hub,       // опционально
//	    Conn:      conn,      // опционально, очередь runs.requests
//	})
//	if err := r.Start(ctx); err != nil { ... }
//	defer r.Stop()
package runner
