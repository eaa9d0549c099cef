package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	heartbeat      = 10 * time.Second
	firstRedial    = time.Second
	maxRedialDelay = 30 * time.Second
)

// Connection — AMQP соединение раннера с брокером.
//
// Один канал обслуживает публикацию событий прогонов и отсчётов
// и приём запросов на прогон. При обрыве соединение восстанавливается
// в фоне с растущей паузой, потребитель запросов узнаёт об этом
// через Restored.
type Connection struct {
	url    string
	name   string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool

	done     chan struct{}
	restored chan struct{}
}

// NewConnection подключается к брокеру по url.
// name попадает в свойства соединения и виден в панели брокера.
func NewConnection(url, name string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		url:      url,
		name:     name,
		logger:   logger.With("component", "mq", "connection", name),
		done:     make(chan struct{}),
		restored: make(chan struct{}, 1),
	}

	conn, ch, err := c.dial()
	if err != nil {
		return nil, err
	}
	c.install(conn, ch)
	c.logger.Info("broker connected")

	go c.supervise(conn)
	return c, nil
}

// dial открывает соединение и канал, ничего не меняя в c.
func (c *Connection) dial() (*amqp.Connection, *amqp.Channel, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(c.name)

	conn, err := amqp.DialConfig(c.url, amqp.Config{
		Heartbeat:  heartbeat,
		Properties: props,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return conn, ch, nil
}

func (c *Connection) install(conn *amqp.Connection, ch *amqp.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.channel = ch
}

// supervise ждёт обрыва текущего соединения и восстанавливает его.
func (c *Connection) supervise(conn *amqp.Connection) {
	for {
		lost := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.done:
			return
		case err := <-lost:
			if err != nil {
				c.logger.Warn("broker connection lost, run events and requests paused", "error", err)
			}
		}

		next, ok := c.redial()
		if !ok {
			return
		}
		conn = next
	}
}

// redial повторяет подключение, пока оно не удастся или Close.
func (c *Connection) redial() (*amqp.Connection, bool) {
	for attempt := 0; ; attempt++ {
		delay := redialDelay(attempt)
		select {
		case <-c.done:
			return nil, false
		case <-time.After(delay):
		}

		conn, ch, err := c.dial()
		if err != nil {
			c.logger.Warn("broker redial failed", "attempt", attempt+1, "next_delay", redialDelay(attempt+1), "error", err)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return nil, false
		}
		c.conn, c.channel = conn, ch
		c.mu.Unlock()

		c.logger.Info("broker reconnected", "attempts", attempt+1)

		select {
		case c.restored <- struct{}{}:
		default:
		}
		return conn, true
	}
}

// redialDelay — пауза перед попыткой attempt: 1s, 2s, 4s ... не более 30s.
func redialDelay(attempt int) time.Duration {
	d := firstRedial
	for range attempt {
		d *= 2
		if d >= maxRedialDelay {
			return maxRedialDelay
		}
	}
	return d
}

// Channel возвращает текущий AMQP канал.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Restored сигналит после каждого восстановления соединения.
func (c *Connection) Restored() <-chan struct{} {
	return c.restored
}


// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	var errs []error
	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	c.logger.Info("broker connection closed")
	return nil
}

// IsConnected проверяет, что соединение открыто.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// WithChannel выполняет fn с текущим каналом.
// Без открытого канала возвращает ErrNoChannel.
func (c *Connection) WithChannel(ctx context.Context, fn func(ch *amqp.Channel) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch := c.Channel()
	if ch == nil || ch.IsClosed() {
		return ErrNoChannel
	}
	return fn(ch)
}
