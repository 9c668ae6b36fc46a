package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-app/cmd/internal"
	"github.com/sanLimbu/todo-app/internal/elasticsearch"
	"github.com/sanLimbu/todo-app/internal/envvar"
	ikafka "github.com/sanLimbu/todo-app/internal/kafka"
)

const (
	serviceName   = "todo-app-elasticsearch-indexer-kafka"
	consumerGroup = "elasticsearch-indexer"
)

func main() {
	var env string

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.Parse()

	errC, err := run(env)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env string) (<-chan error, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("zap.NewProduction: %w", err)
	}

	if err := envvar.Load(env); err != nil {
		return nil, fmt.Errorf("envvar.Load: %w", err)
	}

	vault, err := internal.NewVaultProvider()
	if err != nil {
		return nil, fmt.Errorf("internal.NewVaultProvider: %w", err)
	}

	conf := envvar.New(vault)

	//-

	es, err := internal.NewElasticSearch(conf)
	if err != nil {
		return nil, fmt.Errorf("internal.NewElasticSearch: %w", err)
	}

	consumer, err := internal.NewKafkaConsumer(conf, consumerGroup)
	if err != nil {
		return nil, fmt.Errorf("internal.NewKafkaConsumer: %w", err)
	}

	otExporter, err := internal.NewOTExporter(conf, serviceName)
	if err != nil {
		return nil, fmt.Errorf("internal.NewOTExporter: %w", err)
	}

	srv := &Server{
		logger: logger,
		kafka:  consumer,
		task:   elasticsearch.NewTask(es),
		doneC:  make(chan struct{}),
		closeC: make(chan struct{}),
	}

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		<-ctx.Done()

		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)

		defer func() {
			_ = otExporter.Shutdown(ctxTimeout)
			_ = logger.Sync()
			_ = consumer.Consumer.Close()

			stop()
			cancel()
			close(errC)
		}()

		if err := srv.Shutdown(ctxTimeout); err != nil {
			errC <- err
		}

		logger.Info("Shutdown completed")
	}()

	go func() {
		logger.Info("Listening and serving")

		if err := srv.ListenAndServe(); err != nil {
			errC <- err
		}
	}()

	return errC, nil
}

// Server consumes task events from Kafka and indexes them in Elasticsearch.
type Server struct {
	logger *zap.Logger
	kafka  *internal.KafkaConsumer
	task   *elasticsearch.Task
	doneC  chan struct{}
	closeC chan struct{}
}

// ListenAndServe starts consuming messages in the background.
func (s *Server) ListenAndServe() error {
	commit := func(msg *kafka.Message) {
		if _, err := s.kafka.Consumer.CommitMessage(msg); err != nil {
			s.logger.Error("commit failed", zap.Error(err))
		}
	}

	go func() {
		run := true

		for run {
			select {
			case <-s.closeC:
				run = false
			default:
				msg, ok := s.kafka.Consumer.Poll(150).(*kafka.Message)
				if !ok {
					continue
				}

				evt, err := ikafka.DecodeEvent(msg.Value)
				if err != nil {
					s.logger.Info("Ignoring message, invalid", zap.Error(err))
					commit(msg)

					continue
				}

				if err := s.handle(evt); err != nil {
					s.logger.Warn("Couldn't handle event", zap.String("type", evt.Type), zap.Error(err))
					continue
				}

				s.logger.Info("Consumed", zap.String("type", evt.Type), zap.String("id", evt.ID))
				commit(msg)
			}
		}

		s.logger.Info("No more messages to consume. Exiting.")

		s.doneC <- struct{}{}
	}()

	return nil
}

func (s *Server) handle(evt ikafka.Event) error {
	ctx := context.Background()

	switch evt.Type {
	case ikafka.EventUpdated, ikafka.EventCreated:
		return s.task.Index(ctx, evt.Value)
	case ikafka.EventDeleted:
		return s.task.Delete(ctx, evt.Value.ID)
	}

	s.logger.Info("Ignoring message, unknown type", zap.String("type", evt.Type))

	return nil
}

// Shutdown stops consuming messages.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	close(s.closeC)

	select {
	case <-ctx.Done():
		return fmt.Errorf("context.Done: %w", ctx.Err())
	case <-s.doneC:
		return nil
	}
}
