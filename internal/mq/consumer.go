package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler — функция обработки сообщения.
// Ошибка отклоняет сообщение без возврата в очередь.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение с методами ack/nack.
type Delivery struct {
	// Message — распарсенное сообщение.
	Message Message

	// Raw — сырое AMQP сообщение.
	Raw amqp.Delivery
}

// Ack подтверждает успешную обработку сообщения.
func (d *Delivery) Ack() error {
	return d.Raw.Ack(false)
}

// Nack отклоняет сообщение.
// requeue=true возвращает его в очередь, false отправляет в DLQ.
func (d *Delivery) Nack(requeue bool) error {
	return d.Raw.Nack(false, requeue)
}

// Consumer слушает очередь и передаёт сообщения обработчику.
// Раннер слушает через него QueueRunRequests.
//
// Сообщение подтверждается после успешной обработки. Нераспознанное
// сообщение или ошибка обработчика отклоняют его без возврата в очередь,
// и брокер переносит его в DLQ.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int

	mu   sync.Mutex
	stop context.CancelFunc
}

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	Queue   Queue
	Handler Handler

	// Prefetch — число неподтверждённых сообщений на потребителя (по умолчанию 1).
	Prefetch int
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", string(cfg.Queue)),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Start слушает очередь до отмены ctx или Stop.
// После обрыва соединения подписка возобновляется, когда
// Connection сообщит о восстановлении.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.stop = cancel
	c.mu.Unlock()
	defer cancel()

	for {
		deliveries, err := c.subscribe()
		if err == nil {
			c.logger.Info("consumer subscribed", "prefetch", c.prefetch)
			err = c.drain(ctx, deliveries)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("consumer lost subscription, waiting for broker", "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.Restored():
		}
	}
}

// Stop прекращает приём сообщений.
func (c *Consumer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		c.stop()
	}
}

// subscribe выставляет prefetch и начинает приём с ручным подтверждением.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil || ch.IsClosed() {
		return nil, ErrNoChannel
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(string(c.queue), "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.queue, err)
	}
	return deliveries, nil
}

// drain обрабатывает сообщения, пока канал доставки открыт.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			c.handle(ctx, raw)
		}
	}
}

var errDeliveriesClosed = errors.New("deliveries channel closed")

// handle разбирает одно сообщение и подтверждает или отклоняет его.
func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("rejecting malformed request", "error", err, "body", string(raw.Body))
		c.settle(raw, err)
		return
	}

	logger := c.logger.With("message_id", msg.ID, "type", msg.Type)
	logger.Debug("request received")

	err := c.handler(ctx, &Delivery{Message: msg, Raw: raw})
	if err != nil {
		logger.Error("request failed, moving to DLQ", "error", err)
	}
	c.settle(raw, err)
}

// settle подтверждает сообщение при err == nil, иначе отклоняет без возврата.
func (c *Consumer) settle(raw amqp.Delivery, err error) {
	var ackErr error
	if err == nil {
		ackErr = raw.Ack(false)
	} else {
		ackErr = raw.Reject(false)
	}
	if ackErr != nil {
		c.logger.Warn("failed to settle request", "ack", err == nil, "error", ackErr)
	}
}

// ParsePayload парсит payload сообщения в указанный тип.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T
	if len(msg.Payload) == 0 {
		return result, fmt.Errorf("empty payload in %s message", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}

// RunRequestHandler превращает функцию запуска сценария в Handler
// для очереди QueueRunRequests. Сообщения других типов подтверждаются
// и пропускаются.
func RunRequestHandler(run func(ctx context.Context, scenario string) error) Handler {
	return func(ctx context.Context, d *Delivery) error {
		if d.Message.Type != MessageTypeRunRequested {
			return nil
		}
		req, err := ParsePayload[RunRequestPayload](&d.Message)
		if err != nil {
			return err
		}
		if req.Scenario == "" {
			return fmt.Errorf("run request without scenario")
		}
		return run(ctx, req.Scenario)
	}
}
