// Package events publishes domain events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is the JSON envelope sent on the queue.
type Message struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// Publisher sends an event of the given type.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher writes persistent JSON messages to a durable queue through the
// default exchange. It is safe for concurrent use.
type AMQPPublisher struct {
	conn    *amqp.Connection
	ch      channel
	queue   string
	timeout time.Duration
	mu      sync.Mutex
}

// Dial connects to dsn and declares queue.
func Dial(dsn, queue string, timeout time.Duration) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	p := newPublisher(ch, queue, timeout)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, queue string, timeout time.Duration) *AMQPPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AMQPPublisher{ch: ch, queue: queue, timeout: timeout}
}

// Publish marshals data into a Message and sends it, bounded by the publish timeout.
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	msg := Message{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         eventType,
		Timestamp:    msg.OccurredAt,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish event %s: %w", eventType, err)
	}
	return nil
}

// Close shuts the channel and connection down.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	if p.ch != nil {
		firstErr = p.ch.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
