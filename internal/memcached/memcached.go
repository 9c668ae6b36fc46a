package memcached

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanLimbu/todo-app/internal"
)

const otelName = "github.com/sanLimbu/todo-app/internal/memcached"

// Client is the subset of *memcache.Client used by the decorators.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Add(item *memcache.Item) error
}

// cachedTasks is the stored list tagged with the generation it was read under.
type cachedTasks struct {
	Generation string
	Tasks      []internal.Task
}

// getGeneration returns the current generation token, creating one if missing.
func getGeneration(ctx context.Context, client Client, key string) (string, error) {
	defer newOTELSpan(ctx, "getGeneration").End()

	for i := 0; i < 2; i++ {
		item, err := client.Get(key)
		if err == nil {
			return string(item.Value), nil
		}

		if !errors.Is(err, memcache.ErrCacheMiss) {
			return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Get")
		}

		gen := uuid.NewString()

		err = client.Add(&memcache.Item{Key: key, Value: []byte(gen)})
		if err == nil {
			return gen, nil
		}

		if !errors.Is(err, memcache.ErrNotStored) {
			return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Add")
		}
	}

	return "", internal.NewErrorf(internal.ErrorCodeUnknown, "generation keeps disappearing")
}

func newGeneration(ctx context.Context, client Client, key string) error {
	defer newOTELSpan(ctx, "newGeneration").End()

	if err := client.Set(&memcache.Item{Key: key, Value: []byte(uuid.NewString())}); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Set")
	}

	return nil
}

func getTasks(ctx context.Context, client Client, key string, target *cachedTasks) error {
	defer newOTELSpan(ctx, "getTasks").End()

	item, err := client.Get(key)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Get")
	}

	if err := gob.NewDecoder(bytes.NewReader(item.Value)).Decode(target); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "gob.NewDecoder")
	}

	return nil
}

func setTasks(ctx context.Context, client Client, key string, value cachedTasks, expiration time.Duration) error {
	defer newOTELSpan(ctx, "setTasks").End()

	var b bytes.Buffer

	if err := gob.NewEncoder(&b).Encode(value); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "gob.NewEncoder")
	}

	if err := client.Set(&memcache.Item{
		Key:        key,
		Value:      b.Bytes(),
		Expiration: int32(expiration.Seconds()),
	}); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Set")
	}

	return nil
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemMemcached)

	return span
}
