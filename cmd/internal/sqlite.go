package internal

import (
	"context"
	"database/sql"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/envvar"
	"github.com/sanLimbu/todo-app/internal/sqlite"
)

// NewSQLite opens the SQLite database file defined in environment variables, creating the schema if needed.
func NewSQLite(ctx context.Context, conf *envvar.Configuration) (*sql.DB, error) {
	path, err := conf.GetOrDefault("SQLITE_PATH", "todo.db")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get SQLITE_PATH")
	}

	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "sqlite.Open")
	}

	return db, nil
}
