package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type MailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MailPublisher hands outbound mail to a durable RabbitMQ queue consumed by
// the mail sender worker. Delivery to the broker is synchronous; a publish
// failure fails the request that asked for the mail.
type MailPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

func NewMailPublisher(url, queueName string) (*MailPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &MailPublisher{conn: conn, channel: ch, queue: q}, nil
}

func (p *MailPublisher) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(MailMessage{To: to, Subject: subject, Body: body})
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(
		ctx,
		"",
		p.queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

func (p *MailPublisher) Close() {
	_ = p.channel.Close()
	_ = p.conn.Close()
}
