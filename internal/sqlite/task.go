package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sanLimbu/todo-app/internal"
)

const taskColumns = "id, title, completed, created_at, is_deleted"

// Task represents the repository used for interacting with Task records stored in SQLite.
type Task struct {
	db  *sql.DB
	now func() time.Time
}

// NewTask instantiates the Task repository.
func NewTask(db *sql.DB) *Task {
	return &Task{
		db:  db,
		now: time.Now,
	}
}

// All returns the tasks that were not deleted, newest first.
func (t *Task) All(ctx context.Context) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.All").End()

	rows, err := t.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE is_deleted = 0 ORDER BY id DESC")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "select tasks")
	}
	defer rows.Close()

	res := []internal.Task{}

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "rows.Scan")
		}

		res = append(res, task)
	}

	if err := rows.Err(); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "rows.Err")
	}

	return res, nil
}

// Create inserts a new task record.
func (t *Task) Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	row := t.db.QueryRowContext(ctx,
		"INSERT INTO tasks (title, created_at) VALUES (?, ?) RETURNING "+taskColumns,
		params.Title, t.now().UTC().Format(time.RFC3339Nano))

	task, err := scanTask(row)
	if err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "insert task")
	}

	return task, nil
}

// UpdateCompleted sets the completed flag of an existing task.
func (t *Task) UpdateCompleted(ctx context.Context, id int64, completed bool) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.UpdateCompleted").End()

	row := t.db.QueryRowContext(ctx,
		"UPDATE tasks SET completed = ? WHERE id = ? AND is_deleted = 0 RETURNING "+taskColumns,
		completed, id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "task not found")
		}

		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "update task")
	}

	return task, nil
}

// SoftDelete marks an existing task as deleted.
func (t *Task) SoftDelete(ctx context.Context, id int64) error {
	defer newOTELSpan(ctx, "Task.SoftDelete").End()

	res, err := t.db.ExecContext(ctx, "UPDATE tasks SET is_deleted = 1 WHERE id = ? AND is_deleted = 0", id)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "delete task")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "RowsAffected")
	}

	if n == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}

	return nil
}
