package messaging

import (
	"context"
	"fmt"
	"time"

	"creative_cure_backend/internal/config"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Publisher sends domain events to the broker.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// Envelope is the message body written to the queue.
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes events on a durable queue behind a circuit breaker.
type RabbitMQPublisher struct {
	conn      *amqp.Connection
	ch        amqpChannel
	queueName string
	cb        *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

// NewPublisher dials RabbitMQ when RABBITMQ_URL is set, otherwise events are dropped
// by a no-op publisher.
func NewPublisher(cfg *config.Config, logger *zap.Logger) (Publisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, appointment events are disabled")
		return NopPublisher{}, func() {}, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.AppointmentEventsQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue %s: %w", cfg.AppointmentEventsQueue, err)
	}

	p := &RabbitMQPublisher{
		conn:      conn,
		ch:        ch,
		queueName: cfg.AppointmentEventsQueue,
		cb:        NewCircuitBreaker("RabbitMQ-Publisher", 30*time.Second, logger),
		logger:    logger.Named("RabbitMQPublisher"),
	}
	logger.Info("RabbitMQ publisher ready", zap.String("queue", p.queueName))
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Error("Failed to close rabbitmq publisher", zap.Error(err))
		}
	}, nil
}

// Publish marshals the event and writes it as a persistent message.
func (p *RabbitMQPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(Envelope{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= 0 {
		return ctx.Err()
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         eventType,
			Body:         body,
		})
	})
	if err != nil {
		p.logger.Warn("Failed to publish event", zap.String("eventType", eventType), zap.Error(err))
		return err
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
