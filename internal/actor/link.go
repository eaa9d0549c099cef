package actor

import (
	"context"
	"sync"

	"github.com/shaiso/Actors/internal/port"
)

// DefaultCapacity — ёмкость ограниченного канала по умолчанию.
const DefaultCapacity = 1

// link — канал между одним выходом и одним входом.
//
// Отправитель закрывает канал (close) в конце потока,
// получатель освобождает его (release), когда уходит.
type link interface {
	send(ctx context.Context, d *port.Data) error
	recv(ctx context.Context) (*port.Data, error)
	close()
	release()
	unbounded() bool
}

// boundedLink — канал с ограниченной ёмкостью.
// Полный канал блокирует отправителя до чтения.
type boundedLink struct {
	ch        chan *port.Data
	closeOnce sync.Once
	done      chan struct{}
	doneOnce  sync.Once
}

func newBoundedLink(capacity int) *boundedLink {
	return &boundedLink{
		ch:   make(chan *port.Data, capacity),
		done: make(chan struct{}),
	}
}

func (l *boundedLink) send(ctx context.Context, d *port.Data) error {
	select {
	case <-l.done:
		return ErrDisconnected
	default:
	}

	select {
	case l.ch <- d:
		return nil
	case <-l.done:
		return ErrDisconnected
	case <-ctx.Done():
		return ErrDropSend
	}
}

func (l *boundedLink) recv(ctx context.Context) (*port.Data, error) {
	select {
	case d, ok := <-l.ch:
		if !ok {
			return nil, ErrDropRecv
		}
		return d, nil
	case <-ctx.Done():
		return nil, ErrDropRecv
	}
}

func (l *boundedLink) close() {
	l.closeOnce.Do(func() { close(l.ch) })
}

func (l *boundedLink) release() {
	l.doneOnce.Do(func() { close(l.done) })
}

func (l *boundedLink) unbounded() bool { return false }

// unboundedLink — канал без ограничения ёмкости.
// Отправка никогда не блокируется: используется для логгеров и осциллографов.
type unboundedLink struct {
	mu     sync.Mutex
	queue  []*port.Data
	closed bool
	notify chan struct{}

	done     chan struct{}
	doneOnce sync.Once
}

func newUnboundedLink() *unboundedLink {
	return &unboundedLink{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (l *unboundedLink) send(ctx context.Context, d *port.Data) error {
	select {
	case <-l.done:
		return ErrDisconnected
	default:
	}
	if ctx.Err() != nil {
		return ErrDropSend
	}

	l.mu.Lock()
	l.queue = append(l.queue, d)
	l.mu.Unlock()
	l.wake()
	return nil
}

func (l *unboundedLink) recv(ctx context.Context) (*port.Data, error) {
	for {
		l.mu.Lock()
		if len(l.queue) > 0 {
			d := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()
			return d, nil
		}
		closed := l.closed
		l.mu.Unlock()

		if closed {
			return nil, ErrDropRecv
		}

		select {
		case <-l.notify:
		case <-ctx.Done():
			return nil, ErrDropRecv
		}
	}
}

func (l *unboundedLink) wake() {
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *unboundedLink) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wake()
}

func (l *unboundedLink) release() {
	l.doneOnce.Do(func() { close(l.done) })
	l.mu.Lock()
	l.queue = nil
	l.mu.Unlock()
}

func (l *unboundedLink) unbounded() bool { return true }

// LinkOption настраивает соединение.
type LinkOption func(*linkConfig)

type linkConfig struct {
	bootstrap bool
	unbounded bool
	capacity  int
}

// Bootstrap помечает выход как затравливаемый: до начала цикла
// он отправляет значение, чтобы разорвать обратную связь.
func Bootstrap() LinkOption {
	return func(c *linkConfig) { c.bootstrap = true }
}

// Unbounded делает канал неограниченным.
func Unbounded() LinkOption {
	return func(c *linkConfig) { c.unbounded = true }
}

// Capacity задаёт ёмкость ограниченного канала.
// Значения меньше 1 заменяются на 1.
func Capacity(n int) LinkOption {
	return func(c *linkConfig) {
		if n < 1 {
			n = 1
		}
		c.capacity = n
	}
}

func newLink(cfg linkConfig) link {
	if cfg.unbounded {
		return newUnboundedLink()
	}
	return newBoundedLink(cfg.capacity)
}
