package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/streadway/amqp"
)

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPClient publishes queue messages to a RabbitMQ topic exchange.
type AMQPClient struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	open       func() (amqpChannel, error)
	exchange   string
	routingKey string
}

// NewAMQPClient dials url and declares a durable topic exchange.
func NewAMQPClient(url, exchange, routingKey string) (*AMQPClient, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("amqp url is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp declare exchange %s: %w", exchange, err)
	}

	c := &AMQPClient{conn: conn, exchange: exchange, routingKey: routingKey}
	c.open = func() (amqpChannel, error) { return conn.Channel() }
	return c, nil
}

// Send publishes msg as a persistent JSON message.
func (c *AMQPClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode amqp message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ch, err := c.open()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	key := c.routingKey
	if key == "" {
		key = msg.Event
	}
	err = ch.Publish(
		c.exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ReportID,
			Type:         msg.Event,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (c *AMQPClient) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

var _ Client = (*AMQPClient)(nil)
