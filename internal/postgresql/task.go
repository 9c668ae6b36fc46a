package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/postgresql/db"
)

// Task represents the repository used for interacting with Task records.
type Task struct {
	q *db.Queries
}

// NewTask instantiates the Task repository.
func NewTask(d db.DBTX) *Task {
	return &Task{
		q: db.New(d),
	}
}

// All returns the tasks that were not deleted, newest first.
func (t *Task) All(ctx context.Context) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.All").End()

	rows, err := t.q.SelectTasks(ctx)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "select tasks")
	}

	res := make([]internal.Task, len(rows))
	for i, row := range rows {
		res[i] = convertTask(row)
	}

	return res, nil
}

// Create inserts a new task record.
func (t *Task) Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	row, err := t.q.InsertTask(ctx, params.Title)
	if err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "insert task")
	}

	return convertTask(row), nil
}

// UpdateCompleted sets the completed flag of an existing task.
func (t *Task) UpdateCompleted(ctx context.Context, id int64, completed bool) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.UpdateCompleted").End()

	row, err := t.q.UpdateTaskCompleted(ctx, db.UpdateTaskCompletedParams{
		ID:        id,
		Completed: completed,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "task not found")
		}

		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "update task")
	}

	return convertTask(row), nil
}

// SoftDelete marks an existing task as deleted.
func (t *Task) SoftDelete(ctx context.Context, id int64) error {
	defer newOTELSpan(ctx, "Task.SoftDelete").End()

	if _, err := t.q.SoftDeleteTask(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.WrapErrorf(err, internal.ErrorCodeNotFound, "task not found")
		}

		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "delete task")
	}

	return nil
}
