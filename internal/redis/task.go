package redis

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-app/internal"
)

const (
	otelName   = "github.com/sanLimbu/todo-app/internal/redis"
	listKey    = "tasks.all"
	versionKey = "tasks.version"
)

var errStale = errors.New("list changed while reading")

// TaskStore defines the datastore being cached.
type TaskStore interface {
	All(ctx context.Context) ([]internal.Task, error)
	Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error)
	UpdateCompleted(ctx context.Context, id int64, completed bool) (internal.Task, error)
	SoftDelete(ctx context.Context, id int64) error
}

// Task is a cache-aside decorator for the list of visible tasks backed by Redis.
//
// Every mutation bumps a version counter and drops the cached list in one
// transaction; All only writes the list back when the version it observed
// before reading the store is still current.
type Task struct {
	client     *redis.Client
	orig       TaskStore
	expiration time.Duration
	logger     *zap.Logger

	// pending counts invalidations that failed; while non-zero All bypasses the cache.
	pending atomic.Uint64
}

// NewTask instantiates the caching Task repository.
func NewTask(client *redis.Client, orig TaskStore, logger *zap.Logger) *Task {
	return &Task{
		client:     client,
		orig:       orig,
		expiration: 15 * time.Minute,
		logger:     logger,
	}
}

// All returns the cached list, falling back to the original store on a miss.
func (t *Task) All(ctx context.Context) ([]internal.Task, error) {
	ctx, span := newOTELSpan(ctx, "Task.All")
	defer span.End()

	if t.pending.Load() > 0 {
		if err := t.invalidate(ctx); err != nil {
			return t.all(ctx)
		}
	}

	b, err := t.client.Get(ctx, listKey).Bytes()
	if err == nil {
		var res []internal.Task
		if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&res); err == nil {
			return res, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		t.logger.Warn("All: cache unavailable", zap.Error(err))
		return t.all(ctx)
	}

	version, err := t.version(ctx)
	if err != nil {
		t.logger.Warn("All: reading version", zap.Error(err))
		return t.all(ctx)
	}

	res, err := t.all(ctx)
	if err != nil {
		return nil, err
	}

	t.store(ctx, version, res)

	return res, nil
}

// Create ...
func (t *Task) Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	ctx, span := newOTELSpan(ctx, "Task.Create")
	defer span.End()

	task, err := t.orig.Create(ctx, params)
	if err != nil {
		return internal.Task{}, fmt.Errorf("orig.Create: %w", err)
	}

	_ = t.invalidate(ctx)

	return task, nil
}

// UpdateCompleted ...
func (t *Task) UpdateCompleted(ctx context.Context, id int64, completed bool) (internal.Task, error) {
	ctx, span := newOTELSpan(ctx, "Task.UpdateCompleted")
	defer span.End()

	task, err := t.orig.UpdateCompleted(ctx, id, completed)
	if err != nil {
		return internal.Task{}, fmt.Errorf("orig.UpdateCompleted: %w", err)
	}

	_ = t.invalidate(ctx)

	return task, nil
}

// SoftDelete ...
func (t *Task) SoftDelete(ctx context.Context, id int64) error {
	ctx, span := newOTELSpan(ctx, "Task.SoftDelete")
	defer span.End()

	if err := t.orig.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("orig.SoftDelete: %w", err)
	}

	_ = t.invalidate(ctx)

	return nil
}

func (t *Task) all(ctx context.Context) ([]internal.Task, error) {
	res, err := t.orig.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("orig.All: %w", err)
	}

	return res, nil
}

func (t *Task) version(ctx context.Context) (int64, error) {
	v, err := t.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return v, err
}

// store writes the list back only if no mutation happened after version was read.
func (t *Task) store(ctx context.Context, version int64, tasks []internal.Task) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(tasks); err != nil {
		t.logger.Warn("All: encoding list", zap.Error(err))
		return
	}

	err := t.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		if current != version {
			return errStale
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, listKey, buf.Bytes(), t.expiration)
			return nil
		})

		return err
	}, versionKey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		t.logger.Debug("All: list changed while reading, not caching")
	default:
		t.logger.Warn("All: caching list", zap.Error(err))
	}
}

func (t *Task) invalidate(ctx context.Context) error {
	seen := t.pending.Load()

	_, err := t.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, versionKey)
		p.Del(ctx, listKey)
		return nil
	})
	if err != nil {
		t.pending.Add(1)
		t.logger.Error("cache invalidation failed, bypassing cache", zap.Error(err))

		return err
	}

	t.pending.CompareAndSwap(seen, 0)

	return nil
}

func newOTELSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemRedis)

	return ctx, span
}
