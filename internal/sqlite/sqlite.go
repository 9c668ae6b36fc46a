package sqlite

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/sanLimbu/todo-app/internal"
)

const otelName = "github.com/sanLimbu/todo-app/internal/sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  title      TEXT    NOT NULL CHECK (length(title) BETWEEN 1 AND 191),
  completed  INTEGER NOT NULL DEFAULT 0,
  created_at TEXT    NOT NULL,
  is_deleted INTEGER NOT NULL DEFAULT 0
);`

// Open opens the database located at path, ":memory:" is supported, and creates the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "sql.Open")
	}

	// A single connection serializes writes and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "db.Exec pragma")
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "db.Exec schema")
	}

	return db, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (internal.Task, error) {
	var (
		res       internal.Task
		createdAt string
	)

	if err := s.Scan(&res.ID, &res.Title, &res.Completed, &createdAt, &res.IsDeleted); err != nil {
		return internal.Task{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return internal.Task{}, err
	}

	res.CreatedAt = t

	return res, nil
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemSqlite)

	return span
}
