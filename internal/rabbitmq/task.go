package rabbitmq

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/sanLimbu/todo-app/internal"
)

const otelName = "github.com/sanLimbu/todo-app/internal/rabbitmq"

// ExchangeName is the topic exchange Task events are published to.
const ExchangeName = "tasks"

// Routing keys used for task changes.
const (
	RoutingKeyCreated = "tasks.event.created"
	RoutingKeyUpdated = "tasks.event.updated"
	RoutingKeyDeleted = "tasks.event.deleted"
)

// Task represents the repository used for publishing Task records.
type Task struct {
	ch *amqp.Channel
}

// NewTask instantiates the Task repository.
func NewTask(channel *amqp.Channel) (*Task, error) {
	return &Task{
		ch: channel,
	}, nil
}

// Created publishes a message indicating a task was created.
func (t *Task) Created(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Created", RoutingKeyCreated, task)
}

// Deleted publishes a message indicating a task was deleted.
func (t *Task) Deleted(ctx context.Context, id int64) error {
	return t.publish(ctx, "Task.Deleted", RoutingKeyDeleted, internal.Task{ID: id, IsDeleted: true})
}

// Updated publishes a message indicating a task was updated.
func (t *Task) Updated(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Updated", RoutingKeyUpdated, task)
}

func (t *Task) publish(ctx context.Context, spanName, routingKey string, task internal.Task) error {
	_, span := otel.Tracer(otelName).Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		semconv.MessagingSystemKey.String("rabbitmq"),
		semconv.MessagingRabbitmqRoutingKeyKey.String(routingKey),
	)

	body, err := EncodeTask(task)
	if err != nil {
		return err
	}

	err = t.ch.Publish(
		ExchangeName, // exchange
		routingKey,   // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			AppId:       "tasks-rest-server",
			MessageId:   uuid.NewString(),
			ContentType: "application/x-encoding-gob",
			Body:        body,
			Timestamp:   time.Now(),
		})
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "ch.Publish")
	}

	return nil
}

// EncodeTask returns the gob encoded message body for task.
func EncodeTask(task internal.Task) ([]byte, error) {
	var b bytes.Buffer

	if err := gob.NewEncoder(&b).Encode(task); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "gob.Encode")
	}

	return b.Bytes(), nil
}

// DecodeTask parses a message body produced by EncodeTask.
func DecodeTask(b []byte) (internal.Task, error) {
	var res internal.Task

	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&res); err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "gob.Decode")
	}

	return res, nil
}
