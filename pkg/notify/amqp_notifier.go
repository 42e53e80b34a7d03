package notify

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeKind is the exchange type booking notifications are published to
	ExchangeKind = "topic"

	// RoutingKey is the routing key of booking confirmation messages
	RoutingKey = "booking.confirmed"
)

// publisher is the subset of *amqp.Channel used here
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes notifications to a RabbitMQ topic exchange for a mailer to consume
type AMQPNotifier struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
}

// NewAMQPNotifier dials RabbitMQ and declares the exchange
func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: ch, exchange: exchange}, nil
}

func (n *AMQPNotifier) Name() string { return "amqp" }

// Send publishes the notification as a persistent JSON message
func (n *AMQPNotifier) Send(ctx context.Context, to, subject string, fields map[string]string) error {
	body, err := newMessage(to, subject, fields).encode()
	if err != nil {
		return err
	}

	err = n.channel.PublishWithContext(ctx, n.exchange, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close closes the channel and connection
func (n *AMQPNotifier) Close() error {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
