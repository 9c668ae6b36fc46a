package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-app/internal"
)

const otelName = "github.com/sanLimbu/todo-app/internal/service"

// TaskRepository defines the datastore handling persisting Task records.
type TaskRepository interface {
	All(ctx context.Context) ([]internal.Task, error)
	Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error)
	UpdateCompleted(ctx context.Context, id int64, completed bool) (internal.Task, error)
	SoftDelete(ctx context.Context, id int64) error
}

// TaskSearchRepository defines the datastore handling searching Task records.
type TaskSearchRepository interface {
	Search(ctx context.Context, args internal.SearchParams) (internal.SearchResults, error)
}

// TaskMessageBrokerRepository defines the datastore handling publishing Task events.
type TaskMessageBrokerRepository interface {
	Created(ctx context.Context, task internal.Task) error
	Deleted(ctx context.Context, id int64) error
	Updated(ctx context.Context, task internal.Task) error
}

// Task defines the application service in charge of interacting with Tasks.
type Task struct {
	logger    *zap.Logger
	repo      TaskRepository
	search    TaskSearchRepository
	msgBroker TaskMessageBrokerRepository
}

// NewTask instantiates the Task service, search and msgBroker are optional.
func NewTask(logger *zap.Logger, repo TaskRepository, search TaskSearchRepository, msgBroker TaskMessageBrokerRepository) *Task {
	if msgBroker == nil {
		msgBroker = nopMessageBroker{}
	}

	return &Task{
		logger:    logger,
		repo:      repo,
		search:    search,
		msgBroker: msgBroker,
	}
}

// By searches Tasks matching the received values.
func (t *Task) By(ctx context.Context, args internal.SearchParams) (internal.SearchResults, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.By")
	defer span.End()

	if t.search == nil {
		return internal.SearchResults{}, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "search is not enabled")
	}

	res, err := t.search.Search(ctx, args)
	if err != nil {
		return internal.SearchResults{}, fmt.Errorf("search: %w", err)
	}

	return res, nil
}

// Tasks returns all the Tasks that were not deleted, newest first.
func (t *Task) Tasks(ctx context.Context) ([]internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Tasks")
	defer span.End()

	res, err := t.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo all: %w", err)
	}

	return res, nil
}

// Create stores a new record.
func (t *Task) Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Create")
	defer span.End()

	if err := params.Validate(); err != nil {
		return internal.Task{}, fmt.Errorf("params.Validate: %w", err)
	}

	task, err := t.repo.Create(ctx, params)
	if err != nil {
		return internal.Task{}, fmt.Errorf("repo create: %w", err)
	}

	if err := t.msgBroker.Created(ctx, task); err != nil {
		t.logger.Warn("publishing created event failed", zap.Int64("id", task.ID), zap.Error(err))
	}

	return task, nil
}

// Update sets the completed flag of an existing Task.
func (t *Task) Update(ctx context.Context, id int64, completed bool) (internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Update")
	defer span.End()

	task, err := t.repo.UpdateCompleted(ctx, id, completed)
	if err != nil {
		return internal.Task{}, fmt.Errorf("repo update: %w", err)
	}

	if err := t.msgBroker.Updated(ctx, task); err != nil {
		t.logger.Warn("publishing updated event failed", zap.Int64("id", id), zap.Error(err))
	}

	return task, nil
}

// Delete marks an existing Task as deleted.
func (t *Task) Delete(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Delete")
	defer span.End()

	if err := t.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("repo delete: %w", err)
	}

	if err := t.msgBroker.Deleted(ctx, id); err != nil {
		t.logger.Warn("publishing deleted event failed", zap.Int64("id", id), zap.Error(err))
	}

	return nil
}

type nopMessageBroker struct{}

func (nopMessageBroker) Created(context.Context, internal.Task) error { return nil }
func (nopMessageBroker) Deleted(context.Context, int64) error         { return nil }
func (nopMessageBroker) Updated(context.Context, internal.Task) error { return nil }
