package internal

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/sanLimbu/todo-app/internal/envvar"
)

// KafkaProducer wraps the producer and the topic task events are published to.
type KafkaProducer struct {
	Producer *kafka.Producer
	Topic    string
}

// KafkaConsumer wraps a consumer subscribed to the task events topic.
type KafkaConsumer struct {
	Consumer *kafka.Consumer
}

// NewKafkaProducer instantiates the Kafka producer using configuration defined in environment variables.
func NewKafkaProducer(conf *envvar.Configuration) (*KafkaProducer, error) {
	host, topic, err := kafkaConfig(conf)
	if err != nil {
		return nil, err
	}

	config := kafka.ConfigMap{
		"bootstrap.servers": host,
	}

	client, err := kafka.NewProducer(&config)
	if err != nil {
		return nil, fmt.Errorf("kafka.NewProducer: %w", err)
	}

	return &KafkaProducer{
		Producer: client,
		Topic:    topic,
	}, nil
}

// NewKafkaConsumer instantiates the Kafka consumer using configuration defined in environment variables.
func NewKafkaConsumer(conf *envvar.Configuration, groupID string) (*KafkaConsumer, error) {
	host, topic, err := kafkaConfig(conf)
	if err != nil {
		return nil, err
	}

	config := kafka.ConfigMap{
		"bootstrap.servers":  host,
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	}

	client, err := kafka.NewConsumer(&config)
	if err != nil {
		return nil, fmt.Errorf("kafka.NewConsumer: %w", err)
	}

	if err := client.Subscribe(topic, nil); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("client.Subscribe: %w", err)
	}

	return &KafkaConsumer{
		Consumer: client,
	}, nil
}

func kafkaConfig(conf *envvar.Configuration) (host, topic string, err error) {
	host, err = conf.Get("KAFKA_HOST")
	if err != nil {
		return "", "", fmt.Errorf("conf.Get KAFKA_HOST: %w", err)
	}

	topic, err = conf.GetOrDefault("KAFKA_TOPIC", "tasks")
	if err != nil {
		return "", "", fmt.Errorf("conf.Get KAFKA_TOPIC: %w", err)
	}

	return host, topic, nil
}
