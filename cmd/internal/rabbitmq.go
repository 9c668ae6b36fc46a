package internal

import (
	"fmt"

	"github.com/streadway/amqp"

	"github.com/sanLimbu/todo-app/internal/envvar"
	"github.com/sanLimbu/todo-app/internal/rabbitmq"
)

// RabbitMQ holds the connection and the channel used for publishing and consuming task events.
type RabbitMQ struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
}

// NewRabbitMQ instantiates the RabbitMQ instances using configuration defined in environment variables.
func NewRabbitMQ(conf *envvar.Configuration) (*RabbitMQ, error) {
	url, err := conf.Get("RABBITMQ_URL")
	if err != nil {
		return nil, fmt.Errorf("conf.Get: %w", err)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp.Dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("conn.Channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		rabbitmq.ExchangeName, // name
		"topic",               // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("ch.ExchangeDeclare: %w", err)
	}

	if err := ch.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	); err != nil {
		return nil, fmt.Errorf("ch.Qos: %w", err)
	}

	return &RabbitMQ{
		Connection: conn,
		Channel:    ch,
	}, nil
}

// Close closes the channel and the connection.
func (r *RabbitMQ) Close() {
	_ = r.Channel.Close()
	_ = r.Connection.Close()
}
