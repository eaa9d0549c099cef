package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Actors/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunRequested MessageType = "run.requested"
	MessageTypeRunStarted   MessageType = "run.started"
	MessageTypeRunFinished  MessageType = "run.finished"
	MessageTypeSamples      MessageType = "samples"
)

// SampleBatch — максимальное число отсчётов в одном сообщении.
const SampleBatch = 500

// Message — сообщение для публикации.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// RunRequestPayload — запрос на прогон сценария.
type RunRequestPayload struct {
	Scenario string `json:"scenario"`
}

// RunEventPayload — событие жизненного цикла прогона.
type RunEventPayload struct {
	RunID    uuid.UUID         `json:"run_id"`
	Scenario string            `json:"scenario"`
	Model    string            `json:"model"`
	Status   domain.RunStatus  `json:"status"`
	State    domain.ModelState `json:"state"`
	Error    string            `json:"error,omitempty"`
	Duration float64           `json:"duration_seconds,omitempty"`
}

// SamplesPayload — пачка отсчётов одного приёмника.
type SamplesPayload struct {
	RunID   uuid.UUID       `json:"run_id"`
	Sink    string          `json:"sink"`
	Samples []domain.Sample `json:"samples"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// NewMessage упаковывает payload в сообщение.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now(),
	}, nil
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

func (p *Publisher) publish(ctx context.Context, exchange Exchange, key RoutingKey, msgType MessageType, payload any) error {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, exchange, key, msg)
}

// PublishRunRequest просит раннер выполнить сценарий.
// Потребитель: runner.
func (p *Publisher) PublishRunRequest(ctx context.Context, scenario string) error {
	return p.publish(ctx, ExchangeRuns, RoutingKeyRequest, MessageTypeRunRequested,
		RunRequestPayload{Scenario: scenario})
}

// PublishRunEvent публикует смену статуса прогона.
func (p *Publisher) PublishRunEvent(ctx context.Context, run *domain.Run) error {
	msgType := MessageTypeRunStarted
	if run.IsFinished() {
		msgType = MessageTypeRunFinished
	}
	return p.publish(ctx, ExchangeRuns, RoutingKeyEvent, msgType, RunEventPayload{
		RunID:    run.ID,
		Scenario: run.Scenario,
		Model:    run.Model,
		Status:   run.Status,
		State:    run.State,
		Error:    run.Error,
		Duration: run.Duration().Seconds(),
	})
}

// WriteSamples публикует отсчёты прогона пачками по SampleBatch,
// отдельно для каждого приёмника.
func (p *Publisher) WriteSamples(ctx context.Context, runID uuid.UUID, samples []domain.Sample) error {
	for _, batch := range Batches(samples, SampleBatch) {
		payload := SamplesPayload{RunID: runID, Sink: batch[0].Sink, Samples: batch}
		if err := p.publish(ctx, ExchangeTelemetry, RoutingKeySamples, MessageTypeSamples, payload); err != nil {
			return err
		}
	}
	return nil
}

// Batches режет отсчёты на пачки не длиннее size, не смешивая
// приёмники. Порядок отсчётов сохраняется.
func Batches(samples []domain.Sample, size int) [][]domain.Sample {
	if size <= 0 {
		size = SampleBatch
	}

	var out [][]domain.Sample
	start := 0
	for i := 1; i <= len(samples); i++ {
		if i == len(samples) || samples[i].Sink != samples[start].Sink || i-start == size {
			out = append(out, samples[start:i])
			start = i
		}
	}
	return out
}
