package mq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNoChannel — канал AMQP не открыт.
var ErrNoChannel = errors.New("no channel available")

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeRuns      Exchange = "actors.runs"
	ExchangeTelemetry Exchange = "actors.telemetry"
	ExchangeDLQ       Exchange = "actors.dlq"
)

// Queues — имена очередей.
const (
	QueueRunRequests Queue = "runs.requests"
	QueueRunEvents   Queue = "runs.events"
	QueueSamples     Queue = "telemetry.samples"
	QueueDLQRuns     Queue = "dlq.runs"
)

// Routing keys.
const (
	RoutingKeyRequest RoutingKey = "request"
	RoutingKeyEvent   RoutingKey = "event"
	RoutingKeySamples RoutingKey = "samples"
	RoutingKeyDLQRuns RoutingKey = "runs"
)

type binding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
	args       amqp.Table
}

var topology = []binding{
	// Запросы на прогон уходят в DLQ после отказа обработчика
	{QueueRunRequests, RoutingKeyRequest, ExchangeRuns, amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQRuns),
	}},
	{QueueRunEvents, RoutingKeyEvent, ExchangeRuns, nil},
	{QueueSamples, RoutingKeySamples, ExchangeTelemetry, nil},
	{QueueDLQRuns, RoutingKeyDLQRuns, ExchangeDLQ, nil},
}

// SetupTopology объявляет обменники, очереди и привязки.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeRuns, ExchangeTelemetry, ExchangeDLQ} {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, b := range topology {
			if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, b.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}
			if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}
