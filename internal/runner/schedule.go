package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (5 полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule проверяет cron-выражение сценария.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, expr, err)
	}
	return nil
}

// NextDue возвращает ближайшее время запуска после from в UTC.
func NextDue(expr string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidSchedule, expr, err)
	}
	return sched.Next(from).UTC(), nil
}

// cronLogger направляет служебные сообщения cron в slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// newCron создаёт планировщик. Повторный запуск сценария пропускается,
// пока предыдущий прогон не завершился.
func newCron(logger *slog.Logger) *cron.Cron {
	l := cronLogger{logger: logger}
	return cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
}

// schedule регистрирует сценарии с расписанием.
func (r *Runner) schedule(ctx context.Context) error {
	for _, name := range r.names {
		sc := r.scenarios[name]
		if sc.Schedule == "" {
			continue
		}

		id, err := r.cron.AddFunc(sc.Schedule, func() {
			if _, err := r.RunOnce(ctx, name); err != nil {
				r.logger.Error("scheduled run failed", "scenario", name, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("scenario %s: %w: %v", name, ErrInvalidSchedule, err)
		}
		r.entries[name] = id

		r.logger.Info("scenario scheduled", "scenario", name, "schedule", sc.Schedule)
	}
	return nil
}

// NextRun возвращает время следующего запуска сценария по расписанию.
// ok=false, если сценарий не запланирован или раннер не запущен.
func (r *Runner) NextRun(name string) (time.Time, bool) {
	r.mu.RLock()
	id, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}

	next := r.cron.Entry(id).Next
	return next, !next.IsZero()
}
