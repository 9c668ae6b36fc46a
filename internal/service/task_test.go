package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/service"
	"github.com/sanLimbu/todo-app/internal/sqlite"
)

type recordingBroker struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (r *recordingBroker) record(evt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, evt)

	return r.err
}

func (r *recordingBroker) Created(_ context.Context, _ internal.Task) error { return r.record("created") }
func (r *recordingBroker) Deleted(_ context.Context, _ int64) error        { return r.record("deleted") }
func (r *recordingBroker) Updated(_ context.Context, _ internal.Task) error { return r.record("updated") }

type fakeSearch struct {
	args internal.SearchParams
}

func (f *fakeSearch) Search(_ context.Context, args internal.SearchParams) (internal.SearchResults, error) {
	f.args = args
	return internal.SearchResults{Tasks: []internal.Task{{ID: 1, Title: "milk"}}, Total: 1}, nil
}

func newService(t *testing.T, broker service.TaskMessageBrokerRepository) *service.Task {
	t.Helper()

	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return service.NewTask(zap.NewNop(), sqlite.NewTask(db), nil, broker)
}

func errorCode(t *testing.T, err error) internal.ErrorCode {
	t.Helper()

	var ierr *internal.Error
	require.True(t, errors.As(err, &ierr), "expected internal.Error, got %v", err)

	return ierr.Code()
}

func TestTask_Create(t *testing.T) {
	t.Parallel()

	broker := &recordingBroker{}
	svc := newService(t, broker)
	ctx := context.Background()

	task, err := svc.Create(ctx, internal.CreateTaskParams{Title: "buy milk"})
	require.NoError(t, err)
	require.Equal(t, "buy milk", task.Title)
	require.False(t, task.Completed)

	_, err = svc.Create(ctx, internal.CreateTaskParams{})
	require.Equal(t, internal.ErrorCodeInvalidArgument, errorCode(t, err))

	_, err = svc.Create(ctx, internal.CreateTaskParams{Title: strings.Repeat("a", 192)})
	require.Equal(t, internal.ErrorCodeInvalidArgument, errorCode(t, err))

	tasks, err := svc.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, []string{"created"}, broker.events)
}

func TestTask_PublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	broker := &recordingBroker{err: errors.New("broker down")}
	svc := newService(t, broker)
	ctx := context.Background()

	task, err := svc.Create(ctx, internal.CreateTaskParams{Title: "a"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, task.ID, true)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, task.ID))
	require.Equal(t, []string{"created", "updated", "deleted"}, broker.events)
}

func TestTask_UpdateRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	ctx := context.Background()

	task, err := svc.Create(ctx, internal.CreateTaskParams{Title: "toggle"})
	require.NoError(t, err)

	task, err = svc.Update(ctx, task.ID, true)
	require.NoError(t, err)
	require.True(t, task.Completed)

	task, err = svc.Update(ctx, task.ID, false)
	require.NoError(t, err)
	require.False(t, task.Completed)

	_, err = svc.Update(ctx, 999, true)
	require.Equal(t, internal.ErrorCodeNotFound, errorCode(t, err))
}

func TestTask_Delete(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)
	ctx := context.Background()

	task, err := svc.Create(ctx, internal.CreateTaskParams{Title: "delete me"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, task.ID))

	tasks, err := svc.Tasks(ctx)
	require.NoError(t, err)
	require.Empty(t, tasks)

	require.Equal(t, internal.ErrorCodeNotFound, errorCode(t, svc.Delete(ctx, task.ID)))
}

func TestTask_By(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := newService(t, nil).By(ctx, internal.SearchParams{})
	require.Equal(t, internal.ErrorCodeInvalidArgument, errorCode(t, err))

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	search := &fakeSearch{}
	svc := service.NewTask(zap.NewNop(), sqlite.NewTask(db), search, nil)

	title := "milk"
	res, err := svc.By(ctx, internal.SearchParams{Title: &title, Size: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Total)
	require.Equal(t, "milk", *search.args.Title)
}
