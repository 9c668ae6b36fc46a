package postgresql

import (
	"context"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/postgresql/db"
)

//go:generate sqlc generate

const otelName = "github.com/sanLimbu/todo-app/internal/postgresql"

func convertTask(t db.Tasks) internal.Task {
	return internal.Task{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.Time.UTC(),
		IsDeleted: t.IsDeleted,
	}
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemPostgreSQL)

	return span
}
