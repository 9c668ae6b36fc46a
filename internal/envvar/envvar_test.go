package envvar_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/todo-app/internal/envvar"
)

type fakeProvider map[string]string

func (f fakeProvider) Get(key string) (string, error) {
	v, ok := f[key]
	if !ok {
		return "", errors.New("not found")
	}

	return v, nil
}

func TestConfiguration_Get(t *testing.T) {
	t.Setenv("TODO_PLAIN", "plain")
	t.Setenv("TODO_SECRET_SECURE", "db:password")
	t.Setenv("TODO_MISSING_SECURE", "db:missing")

	conf := envvar.New(fakeProvider{"db:password": "s3cr3t"})

	val, err := conf.Get("TODO_PLAIN")
	require.NoError(t, err)
	require.Equal(t, "plain", val)

	val, err = conf.Get("TODO_SECRET")
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", val)

	_, err = conf.Get("TODO_MISSING")
	require.Error(t, err)

	val, err = conf.GetOrDefault("TODO_UNSET", "fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", val)
}

func TestLoad(t *testing.T) {
	require.NoError(t, envvar.Load(""))

	filename := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(filename, []byte("TODO_FROM_FILE=yes\n"), 0o600))

	t.Cleanup(func() { os.Unsetenv("TODO_FROM_FILE") })

	require.NoError(t, envvar.Load(filename))
	require.Equal(t, "yes", os.Getenv("TODO_FROM_FILE"))

	require.Error(t, envvar.Load(filepath.Join(t.TempDir(), "missing.env")))
}
