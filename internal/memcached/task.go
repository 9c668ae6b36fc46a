package memcached

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sanLimbu/todo-app/internal"
)

const (
	listKey       = "tasks.all"
	generationKey = "tasks.generation"
)

// Task is a cache-aside decorator for the list of visible tasks.
//
// Mutations replace the generation token; a cached list is only served when
// it was read under the current generation.
type Task struct {
	client     Client
	orig       TaskStore
	expiration time.Duration
	logger     *zap.Logger

	// pending counts failed generation bumps; while non-zero All bypasses the cache.
	pending atomic.Uint64
}

// TaskStore defines the datastore being cached.
type TaskStore interface {
	All(ctx context.Context) ([]internal.Task, error)
	Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error)
	UpdateCompleted(ctx context.Context, id int64, completed bool) (internal.Task, error)
	SoftDelete(ctx context.Context, id int64) error
}

// NewTask instantiates the caching Task repository.
func NewTask(client Client, orig TaskStore, logger *zap.Logger) *Task {
	return &Task{
		client:     client,
		orig:       orig,
		expiration: 15 * time.Minute,
		logger:     logger,
	}
}

// All returns the cached list, falling back to the original store on a miss.
func (t *Task) All(ctx context.Context) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.All").End()

	if t.pending.Load() > 0 {
		if err := t.invalidate(ctx); err != nil {
			return t.all(ctx)
		}
	}

	gen, err := getGeneration(ctx, t.client, generationKey)
	if err != nil {
		t.logger.Warn("All: cache unavailable", zap.Error(err))
		return t.all(ctx)
	}

	var cached cachedTasks

	if err := getTasks(ctx, t.client, listKey, &cached); err == nil && cached.Generation == gen {
		return cached.Tasks, nil
	}

	t.logger.Info("All: not found, let's cache it")

	res, err := t.all(ctx)
	if err != nil {
		return nil, err
	}

	if err := setTasks(ctx, t.client, listKey, cachedTasks{Generation: gen, Tasks: res}, t.expiration); err != nil {
		t.logger.Warn("All: caching list", zap.Error(err))
	}

	return res, nil
}

// Create ...
func (t *Task) Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	task, err := t.orig.Create(ctx, params)
	if err != nil {
		return internal.Task{}, fmt.Errorf("orig.Create: %w", err)
	}

	_ = t.invalidate(ctx)

	return task, nil
}

// UpdateCompleted ...
func (t *Task) UpdateCompleted(ctx context.Context, id int64, completed bool) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.UpdateCompleted").End()

	task, err := t.orig.UpdateCompleted(ctx, id, completed)
	if err != nil {
		return internal.Task{}, fmt.Errorf("orig.UpdateCompleted: %w", err)
	}

	_ = t.invalidate(ctx)

	return task, nil
}

// SoftDelete ...
func (t *Task) SoftDelete(ctx context.Context, id int64) error {
	defer newOTELSpan(ctx, "Task.SoftDelete").End()

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

func (t *Task) invalidate(ctx context.Context) error {
	seen := t.pending.Load()

	if err := newGeneration(ctx, t.client, generationKey); err != nil {
		t.pending.Add(1)
		t.logger.Error("cache invalidation failed, bypassing cache", zap.Error(err))

		return err
	}

	t.pending.CompareAndSwap(seen, 0)

	return nil
}
