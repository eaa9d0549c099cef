package actor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Actors/internal/port"
)

var (
	portX = port.New[float64]("X")
	portY = port.New[float64]("Y")
)

// source выдаёт 1..n в порт, затем заканчивает поток.
type source struct {
	id    port.ID
	n     int
	count int
}

func (s *source) Update() { s.count++ }

func (s *source) Write(id port.ID) (*port.Data, bool) {
	if id != s.id || s.count > s.n {
		return nil, false
	}
	return port.NewData(id, float64(s.count)), true
}

// sink запоминает все полученные значения.
type sink struct {
	mu     sync.Mutex
	values []float64
}

func (s *sink) Update() {}

func (s *sink) Read(d *port.Data) {
	v, _ := port.Float(d)
	s.mu.Lock()
	s.values = append(s.values, v)
	s.mu.Unlock()
}

func (s *sink) got() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.values...)
}

// relay пересылает вход X в выход Y и считает обновления на одну отправку.
type relay struct {
	last         float64
	updates      int
	perDistrib   []int
	reads        int
	failOnUpdate bool
}

func (r *relay) Update() {
	if r.failOnUpdate {
		panic("boom")
	}
	r.updates++
}

func (r *relay) Read(d *port.Data) {
	r.reads++
	r.last, _ = port.Float(d)
}

func (r *relay) Write(id port.ID) (*port.Data, bool) {
	r.perDistrib = append(r.perDistrib, r.updates)
	r.updates = 0
	return port.NewData(id, r.last), true
}

// sized объявляет размер порта.
type sized struct {
	relay
	size int
}

func (s *sized) Size(port.ID) int { return s.size }

// updater умеет только Update.
type updater struct{}

func (updater) Update() {}

// runAll запускает акторы и ждёт их завершения с таймаутом.
func runAll(t *testing.T, ctx context.Context, actors ...*Actor) []error {
	t.Helper()

	errs := make([]error, len(actors))
	var wg sync.WaitGroup
	for i, a := range actors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = a.Run(ctx)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("actors did not terminate")
	}
	return errs
}

func mustActor(t *testing.T, c Client, in, out int, opts ...Option) *Actor {
	t.Helper()
	a, err := New(c, in, out, opts...)
	if err != nil {
		t.Fatalf("new actor: %v", err)
	}
	return a
}

func mustConnect(t *testing.T, from *Actor, id port.ID, to *Actor, opts ...LinkOption) {
	t.Helper()
	if err := from.Connect(id, to, opts...); err != nil {
		t.Fatalf("connect %s -> %s: %v", from.Name(), to.Name(), err)
	}
}
