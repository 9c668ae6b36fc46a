package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/sanLimbu/todo-app/internal"
)

const otelName = "github.com/sanLimbu/todo-app/internal/kafka"

// Task represents the repository used for publishing Task records.
type Task struct {
	producer  *kafka.Producer
	topicName string
}

// Event types published for task changes.
const (
	EventCreated = "tasks.event.created"
	EventUpdated = "tasks.event.updated"
	EventDeleted = "tasks.event.deleted"
)

// Event is the JSON message value published for every task change.
type Event struct {
	ID    string
	Type  string
	Value internal.Task
}

// EncodeEvent returns the message value for a task change of type msgType.
func EncodeEvent(msgType string, task internal.Task) ([]byte, error) {
	var b bytes.Buffer

	evt := Event{
		ID:    uuid.NewString(),
		Type:  msgType,
		Value: task,
	}

	if err := json.NewEncoder(&b).Encode(evt); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.Encode")
	}

	return b.Bytes(), nil
}

// DecodeEvent parses a message value produced by EncodeEvent.
func DecodeEvent(b []byte) (Event, error) {
	var evt Event

	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&evt); err != nil {
		return Event{}, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json.Decode")
	}

	return evt, nil
}

// NewTask instantiates the Task repository.
func NewTask(producer *kafka.Producer, topicName string) *Task {
	return &Task{
		topicName: topicName,
		producer:  producer,
	}
}

// Created publishes a message indicating a task was created.
func (t *Task) Created(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Created", EventCreated, task)
}

// Deleted publishes a message indicating a task was deleted.
func (t *Task) Deleted(ctx context.Context, id int64) error {
	return t.publish(ctx, "Task.Deleted", EventDeleted, internal.Task{ID: id, IsDeleted: true})
}

// Updated publishes a message indicating a task was updated.
func (t *Task) Updated(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Updated", EventUpdated, task)
}

func (t *Task) publish(ctx context.Context, spanName, msgType string, task internal.Task) error {
	_, span := otel.Tracer(otelName).Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		semconv.MessagingSystemKey.String("kafka"),
		attribute.String("messaging.message_type", msgType),
	)

	value, err := EncodeEvent(msgType, task)
	if err != nil {
		return err
	}

	if err := t.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &t.topicName,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(strconv.FormatInt(task.ID, 10)),
		Value: value,
	}, nil); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "producer.Produce")
	}

	return nil
}
