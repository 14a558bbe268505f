package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends AuthEvents to a durable RabbitMQ queue. A connection is
// dialed per publish; auth events are rare enough that holding a channel
// open is not worth the reconnect bookkeeping.
type Publisher struct {
	url   string
	queue string
	log   *slog.Logger
}

func NewPublisher(url, queue string, log *slog.Logger) *Publisher {
	return &Publisher{url: url, queue: queue, log: log}
}

// Publish marshals ev and publishes it as a persistent message. Errors are
// logged and returned so the caller can choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev AuthEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", "error", err)
		return err
	}
	return nil
}
