package memcached_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/memcached"
)

const listKey = "tasks.all"

// fakeClient is an in-memory memcached; setting down makes every call fail.
type fakeClient struct {
	mu    sync.Mutex
	items map[string]memcache.Item
	down  bool
}

var errDown = errors.New("memcache: connection refused")

func newFakeClient() *fakeClient {
	return &fakeClient{items: map[string]memcache.Item{}}
}

func (c *fakeClient) Get(key string) (*memcache.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return nil, errDown
	}

	item, ok := c.items[key]
	if !ok {
		return nil, memcache.ErrCacheMiss
	}

	return &item, nil
}

func (c *fakeClient) Set(item *memcache.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return errDown
	}

	c.items[item.Key] = *item

	return nil
}

func (c *fakeClient) Add(item *memcache.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return errDown
	}

	if _, ok := c.items[item.Key]; ok {
		return memcache.ErrNotStored
	}

	c.items[item.Key] = *item

	return nil
}

func (c *fakeClient) setDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.down = down
}

func (c *fakeClient) item(key string) (memcache.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]

	return item, ok
}

// fakeStore keeps tasks in memory; when block is set the first All call waits on it.
type fakeStore struct {
	mu      sync.Mutex
	tasks   []internal.Task
	nextID  int64
	allN    int
	block   chan struct{}
	entered chan struct{}
}

func newFakeStore(titles ...string) *fakeStore {
	s := &fakeStore{}
	for _, title := range titles {
		s.nextID++
		s.tasks = append([]internal.Task{{
			ID:        s.nextID,
			Title:     title,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, int(s.nextID), 0, time.UTC),
		}}, s.tasks...)
	}

	return s
}

func (s *fakeStore) All(_ context.Context) ([]internal.Task, error) {
	s.mu.Lock()
	s.allN++
	first := s.allN == 1
	res := append([]internal.Task{}, s.tasks...)
	s.mu.Unlock()

	if first && s.block != nil {
		close(s.entered)
		<-s.block
	}

	return res, nil
}

func (s *fakeStore) Create(_ context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	task := internal.Task{ID: s.nextID, Title: params.Title, CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	s.tasks = append([]internal.Task{task}, s.tasks...)

	return task, nil
}

func (s *fakeStore) UpdateCompleted(_ context.Context, id int64, completed bool) (internal.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = completed
			return s.tasks[i], nil
		}
	}

	return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
}

func (s *fakeStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}

	return internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
}

func (s *fakeStore) allCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.allN
}

func ids(tasks []internal.Task) []int64 {
	res := make([]int64, len(tasks))
	for i, task := range tasks {
		res[i] = task.ID
	}

	return res
}

func TestTask_All(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	store := newFakeStore("A", "B")
	cache := memcached.NewTask(client, store, zap.NewNop())
	ctx := context.Background()

	got, err := cache.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, ids(got))
	require.Equal(t, 1, store.allCalls())

	item, ok := client.item(listKey)
	require.True(t, ok)
	require.Equal(t, int32(900), item.Expiration)

	cached, err := cache.All(ctx)
	require.NoError(t, err)
	require.Equal(t, got, cached)
	require.Equal(t, 1, store.allCalls())
}

func TestTask_Invalidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*memcached.Task) error
		want   []int64
	}{
		{
			"Create",
			func(cache *memcached.Task) error {
				_, err := cache.Create(context.Background(), internal.CreateTaskParams{Title: "C"})
				return err
			},
			[]int64{3, 2, 1},
		},
		{
			"UpdateCompleted",
			func(cache *memcached.Task) error {
				_, err := cache.UpdateCompleted(context.Background(), 1, true)
				return err
			},
			[]int64{2, 1},
		},
		{
			"SoftDelete",
			func(cache *memcached.Task) error {
				return cache.SoftDelete(context.Background(), 1)
			},
			[]int64{2},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore("A", "B")
			cache := memcached.NewTask(newFakeClient(), store, zap.NewNop())

			_, err := cache.All(context.Background())
			require.NoError(t, err)

			require.NoError(t, tt.mutate(cache))

			got, err := cache.All(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.want, ids(got))
			require.Equal(t, 2, store.allCalls())

			_, err = cache.All(context.Background())
			require.NoError(t, err)
			require.Equal(t, 2, store.allCalls())
		})
	}
}

func TestTask_DeleteDuringRead(t *testing.T) {
	t.Parallel()

	store := newFakeStore("A", "B")
	store.block = make(chan struct{})
	store.entered = make(chan struct{})

	cache := memcached.NewTask(newFakeClient(), store, zap.NewNop())
	ctx := context.Background()

	done := make(chan []internal.Task)

	go func() {
		res, _ := cache.All(ctx)
		done <- res
	}()

	<-store.entered

	require.NoError(t, cache.SoftDelete(ctx, 1))

	close(store.block)

	require.Equal(t, []int64{2, 1}, ids(<-done))

	got, err := cache.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids(got))
	require.Equal(t, 2, store.allCalls())
}

func TestTask_CacheUnavailable(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	store := newFakeStore("A", "B")
	cache := memcached.NewTask(client, store, zap.NewNop())
	ctx := context.Background()

	_, err := cache.All(ctx)
	require.NoError(t, err)

	client.setDown(true)

	got, err := cache.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, ids(got))

	require.NoError(t, cache.SoftDelete(ctx, 1))

	got, err = cache.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids(got))

	client.setDown(false)

	got, err = cache.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids(got))

	calls := store.allCalls()

	got, err = cache.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids(got))
	require.Equal(t, calls, store.allCalls())
}
