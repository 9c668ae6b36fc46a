package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-app/cmd/internal"
	internaldomain "github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/elasticsearch"
	"github.com/sanLimbu/todo-app/internal/envvar"
	ikafka "github.com/sanLimbu/todo-app/internal/kafka"
	"github.com/sanLimbu/todo-app/internal/memcached"
	"github.com/sanLimbu/todo-app/internal/postgresql"
	"github.com/sanLimbu/todo-app/internal/rabbitmq"
	"github.com/sanLimbu/todo-app/internal/redis"
	"github.com/sanLimbu/todo-app/internal/rest"
	"github.com/sanLimbu/todo-app/internal/service"
	"github.com/sanLimbu/todo-app/internal/sqlite"
)

const serviceName = "todo-app-rest-server"

func main() {
	var env, address string

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.StringVar(&address, "address", ":9234", "HTTP Server Address")
	flag.Parse()

	errC, err := run(env, address)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env, address string) (<-chan error, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "zap.NewProduction")
	}

	if err := envvar.Load(env); err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "envvar.Load")
	}

	vault, err := internal.NewVaultProvider()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewVaultProvider")
	}

	conf := envvar.New(vault)

	//-

	ctx := context.Background()

	var closers []func()

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	repo, closeRepo, err := newTaskRepository(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("newTaskRepository: %w", err)
	}

	closers = append(closers, closeRepo)

	cached, closeCache, err := newTaskCache(ctx, conf, repo, logger)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("newTaskCache: %w", err)
	}

	closers = append(closers, closeCache)

	msgBroker, closeBroker, err := newMessageBroker(conf, logger)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("newMessageBroker: %w", err)
	}

	closers = append(closers, closeBroker)

	search, err := newSearch(conf)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("newSearch: %w", err)
	}

	otExporter, err := internal.NewOTExporter(conf, serviceName)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("internal.NewOTExporter: %w", err)
	}

	logging := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info(r.Method,
				zap.Time("time", time.Now()),
				zap.String("url", r.URL.String()),
			)

			h.ServeHTTP(w, r)
		})
	}

	srv := newServer(serverConfig{
		Address:     address,
		Service:     service.NewTask(logger, cached, search, msgBroker),
		Metrics:     otExporter.Metrics,
		Middlewares: []func(next http.Handler) http.Handler{otelchi.Middleware(serviceName), logging},
	})

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(ctx,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		<-ctx.Done()

		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		defer func() {
			_ = otExporter.Shutdown(ctxTimeout)
			_ = logger.Sync()

			closeAll()
			stop()
			cancel()
			close(errC)
		}()

		srv.SetKeepAlivesEnabled(false)

		if err := srv.Shutdown(ctxTimeout); err != nil {
			errC <- err
		}

		logger.Info("Shutdown completed")
	}()

	go func() {
		logger.Info("Listening and serving", zap.String("address", address))

		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	return errC, nil
}

type serverConfig struct {
	Address     string
	Service     rest.TaskService
	Metrics     http.Handler
	Middlewares []func(next http.Handler) http.Handler
}

func newServer(conf serverConfig) *http.Server {
	router := chi.NewRouter()
	router.Use(render.SetContentType(render.ContentTypeJSON))

	for _, mw := range conf.Middlewares {
		router.Use(mw)
	}

	rest.RegisterOpenAPI(router)
	rest.NewTaskHandler(conf.Service).Register(router)

	router.Handle("/metrics", conf.Metrics)

	lmt := tollbooth.NewLimiter(20, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Second})
	lmtmw := tollbooth.LimitHandler(lmt, router)

	return &http.Server{
		Handler:           lmtmw,
		Addr:              conf.Address,
		ReadTimeout:       1 * time.Second,
		ReadHeaderTimeout: 1 * time.Second,
		WriteTimeout:      1 * time.Second,
		IdleTimeout:       1 * time.Second,
	}
}

// newTaskRepository selects the datastore configured via DATABASE_DRIVER.
func newTaskRepository(ctx context.Context, conf *envvar.Configuration) (service.TaskRepository, func(), error) {
	driver, err := conf.GetOrDefault("DATABASE_DRIVER", "postgres")
	if err != nil {
		return nil, nil, fmt.Errorf("conf.Get DATABASE_DRIVER: %w", err)
	}

	switch driver {
	case "postgres":
		pool, err := internal.NewPostgreSQL(ctx, conf)
		if err != nil {
			return nil, nil, fmt.Errorf("internal.NewPostgreSQL: %w", err)
		}

		return postgresql.NewTask(pool), pool.Close, nil
	case "sqlite":
		db, err := internal.NewSQLite(ctx, conf)
		if err != nil {
			return nil, nil, fmt.Errorf("internal.NewSQLite: %w", err)
		}

		return sqlite.NewTask(db), func() { _ = db.Close() }, nil
	}

	return nil, nil, internaldomain.NewErrorf(internaldomain.ErrorCodeInvalidArgument, "unknown DATABASE_DRIVER %q", driver)
}

// newTaskCache decorates repo with the cache configured via CACHE_BACKEND.
func newTaskCache(ctx context.Context, conf *envvar.Configuration, repo service.TaskRepository, logger *zap.Logger) (service.TaskRepository, func(), error) {
	backend, err := conf.GetOrDefault("CACHE_BACKEND", "none")
	if err != nil {
		return nil, nil, fmt.Errorf("conf.Get CACHE_BACKEND: %w", err)
	}

	switch backend {
	case "none":
		return repo, func() {}, nil
	case "memcached":
		client, err := internal.NewMemcached(conf)
		if err != nil {
			return nil, nil, fmt.Errorf("internal.NewMemcached: %w", err)
		}

		return memcached.NewTask(client, repo, logger), func() {}, nil
	case "redis":
		rdb, err := internal.NewRedis(ctx, conf)
		if err != nil {
			return nil, nil, fmt.Errorf("internal.NewRedis: %w", err)
		}

		return redis.NewTask(rdb, repo, logger), func() { _ = rdb.Close() }, nil
	}

	return nil, nil, internaldomain.NewErrorf(internaldomain.ErrorCodeInvalidArgument, "unknown CACHE_BACKEND %q", backend)
}

// newMessageBroker returns the events publisher configured via MESSAGE_BROKER, nil when disabled.
func newMessageBroker(conf *envvar.Configuration, logger *zap.Logger) (service.TaskMessageBrokerRepository, func(), error) {
	broker, err := conf.GetOrDefault("MESSAGE_BROKER", "none")
	if err != nil {
		return nil, nil, fmt.Errorf("conf.Get MESSAGE_BROKER: %w", err)
	}

	switch broker {
	case "none":
		return nil, func() {}, nil
	case "kafka":
		producer, err := internal.NewKafkaProducer(conf)
		if err != nil {
			return nil, nil, fmt.Errorf("internal.NewKafkaProducer: %w", err)
		}

		go func() {
			for e := range producer.Producer.Events() {
				if msg, ok := e.(*kafka.Message); ok && msg.TopicPartition.Error != nil {
					logger.Warn("delivery failed", zap.Error(msg.TopicPartition.Error))
				}
			}
		}()

		closeFn := func() {
			producer.Producer.Flush(5_000)
			producer.Producer.Close()
		}

		return ikafka.NewTask(producer.Producer, producer.Topic), closeFn, nil
	case "rabbitmq":
		rmq, err := internal.NewRabbitMQ(conf)
		if err != nil {
			return nil, nil, fmt.Errorf("internal.NewRabbitMQ: %w", err)
		}

		msgBroker, err := rabbitmq.NewTask(rmq.Channel)
		if err != nil {
			rmq.Close()
			return nil, nil, fmt.Errorf("rabbitmq.NewTask: %w", err)
		}

		return msgBroker, rmq.Close, nil
	}

	return nil, nil, internaldomain.NewErrorf(internaldomain.ErrorCodeInvalidArgument, "unknown MESSAGE_BROKER %q", broker)
}

// newSearch returns the search repository when ELASTICSEARCH_URL is defined, nil otherwise.
func newSearch(conf *envvar.Configuration) (service.TaskSearchRepository, error) {
	addr, err := conf.Get("ELASTICSEARCH_URL")
	if err != nil {
		return nil, fmt.Errorf("conf.Get ELASTICSEARCH_URL: %w", err)
	}

	if addr == "" {
		return nil, nil
	}

	es, err := internal.NewElasticSearch(conf)
	if err != nil {
		return nil, fmt.Errorf("internal.NewElasticSearch: %w", err)
	}

	return elasticsearch.NewTask(es), nil
}
