package internal

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/envvar"
)

// NewPostgreSQL instantiates the PostgreSQL database using configuration defined in environment variables.
func NewPostgreSQL(ctx context.Context, conf *envvar.Configuration) (*pgxpool.Pool, error) {
	get := func(v, def string) (string, error) {
		res, err := conf.GetOrDefault(v, def)
		if err != nil {
			return "", fmt.Errorf("conf.Get %s: %w", v, err)
		}

		return res, nil
	}

	values := make(map[string]string)

	for _, kv := range [][2]string{
		{"DATABASE_HOST", "localhost"},
		{"DATABASE_PORT", "5432"},
		{"DATABASE_USERNAME", ""},
		{"DATABASE_PASSWORD", ""},
		{"DATABASE_NAME", ""},
		{"DATABASE_SSLMODE", "disable"},
	} {
		val, err := get(kv[0], kv[1])
		if err != nil {
			return nil, err
		}

		values[kv[0]] = val
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(values["DATABASE_USERNAME"], values["DATABASE_PASSWORD"]),
		Host:   net.JoinHostPort(values["DATABASE_HOST"], values["DATABASE_PORT"]),
		Path:   values["DATABASE_NAME"],
	}

	q := dsn.Query()
	q.Add("sslmode", values["DATABASE_SSLMODE"])

	dsn.RawQuery = q.Encode()

	pool, err := pgxpool.New(ctx, dsn.String())
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pgxpool.New")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.Ping")
	}

	return pool, nil
}
