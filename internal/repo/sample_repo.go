package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Actors/internal/domain"
)

// SampleRepo — репозиторий телеметрии прогонов.
type SampleRepo struct {
	pool *pgxpool.Pool
}

// NewSampleRepo создаёт новый SampleRepo.
func NewSampleRepo(pool *pgxpool.Pool) *SampleRepo {
	return &SampleRepo{pool: pool}
}

var sampleColumns = []string{"run_id", "sink", "port", "step", "vals", "at"}

// WriteSamples записывает отсчёты прогона одним COPY.
func (r *SampleRepo) WriteSamples(ctx context.Context, runID uuid.UUID, samples []domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"samples"},
		sampleColumns,
		pgx.CopyFromSlice(len(samples), func(i int) ([]any, error) {
			s := samples[i]
			return []any{runID, s.Sink, s.Port, s.Step, s.Values, s.At}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy samples: %w", err)
	}
	if int(n) != len(samples) {
		return fmt.Errorf("copy samples: wrote %d of %d", n, len(samples))
	}
	return nil
}

// ListByRun возвращает отсчёты прогона, опционально одного приёмника.
func (r *SampleRepo) ListByRun(ctx context.Context, runID uuid.UUID, sink string, limit int) ([]domain.Sample, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := `
		SELECT run_id, sink, port, step, vals, at
		FROM samples
		WHERE run_id = $1 AND ($2::text IS NULL OR sink = $2)
		ORDER BY sink, port, step
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, runID, nullString(sink), limit)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var samples []domain.Sample
	for rows.Next() {
		var s domain.Sample
		if err := rows.Scan(&s.RunID, &s.Sink, &s.Port, &s.Step, &s.Values, &s.At); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
