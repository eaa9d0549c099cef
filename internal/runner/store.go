package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/repo"
)

// RunStore — хранилище записей о прогонах.
// Реализации: repo.RunRepo (Postgres) и MemoryStore.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
}

// SampleSink принимает отсчёты приёмников Logging после прогона.
// Реализации: repo.SampleRepo и mq.Publisher.
type SampleSink interface {
	WriteSamples(ctx context.Context, runID uuid.UUID, samples []domain.Sample) error
}

// EventPublisher публикует смену статуса прогона.
type EventPublisher interface {
	PublishRunEvent(ctx context.Context, run *domain.Run) error
}

var (
	_ RunStore   = (*repo.RunRepo)(nil)
	_ RunStore   = (*MemoryStore)(nil)
	_ SampleSink = (*repo.SampleRepo)(nil)
)

// MemoryStore — RunStore в памяти процесса.
// Используется, когда DB_URL не задан, и в тестах.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]domain.Run
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[uuid.UUID]domain.Run)}
}

// Create сохраняет копию run.
func (s *MemoryStore) Create(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run %s: %w", run.ID, repo.ErrAlreadyExists)
	}
	s.runs[run.ID] = clone(run)
	return nil
}

// Update заменяет сохранённую копию run.
func (s *MemoryStore) Update(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		return repo.ErrNotFound
	}
	s.runs[run.ID] = clone(run)
	return nil
}

// GetByID возвращает копию run.
func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &run, nil
}

// List возвращает runs от новых к старым с фильтрацией
// по сценарию и статусу.
func (s *MemoryStore) List(_ context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	s.mu.RLock()
	var runs []domain.Run
	for _, run := range s.runs {
		if filter.Scenario != "" && run.Scenario != filter.Scenario {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset >= len(runs) {
		return nil, nil
	}
	runs = runs[filter.Offset:]
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func clone(run *domain.Run) domain.Run {
	c := *run
	c.Reports = append([]domain.ActorReport(nil), run.Reports...)
	return c
}
