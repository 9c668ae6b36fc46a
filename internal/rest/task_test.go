package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/rest"
	"github.com/sanLimbu/todo-app/internal/rest/resttesting"
)

func doRequest(t *testing.T, svc rest.TaskService, method, target string, body string) *http.Response {
	t.Helper()

	router := chi.NewRouter()
	rest.NewTaskHandler(svc).Register(router)

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	res := rec.Result()
	t.Cleanup(func() { res.Body.Close() })

	return res
}

func decodeBody(t *testing.T, res *http.Response, dest interface{}) {
	t.Helper()

	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(res.Body).Decode(dest))
}

func TestTasks_List(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		setup  func(*resttesting.FakeTaskService)
		status int
		verify func(*testing.T, *http.Response)
	}{
		{
			"OK",
			func(s *resttesting.FakeTaskService) {
				s.TasksReturns([]internal.Task{
					{ID: 2, Title: "second", CreatedAt: created},
					{ID: 1, Title: "first", Completed: true, CreatedAt: created},
				}, nil)
			},
			http.StatusOK,
			func(t *testing.T, res *http.Response) {
				var tasks []rest.Task
				decodeBody(t, res, &tasks)
				require.Equal(t, []rest.Task{
					{ID: 2, Title: "second", CreatedAt: created},
					{ID: 1, Title: "first", Completed: true, CreatedAt: created},
				}, tasks)
			},
		},
		{
			"OK: empty list renders an array",
			func(s *resttesting.FakeTaskService) {
				s.TasksReturns(nil, nil)
			},
			http.StatusOK,
			func(t *testing.T, res *http.Response) {
				b, err := io.ReadAll(res.Body)
				require.NoError(t, err)
				require.Equal(t, "[]", string(b))
			},
		},
		{
			"ERR: store failure",
			func(s *resttesting.FakeTaskService) {
				s.TasksReturns(nil, internal.WrapErrorf(errors.New("connection refused"), internal.ErrorCodeUnknown, "select tasks"))
			},
			http.StatusInternalServerError,
			func(t *testing.T, res *http.Response) {
				var resp rest.ErrorResponse
				decodeBody(t, res, &resp)
				require.Contains(t, resp.Error, "connection refused")
			},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &resttesting.FakeTaskService{}
			tt.setup(svc)

			res := doRequest(t, svc, http.MethodGet, "/api/todos", "")
			require.Equal(t, tt.status, res.StatusCode)
			tt.verify(t, res)
		})
	}
}

func TestTasks_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		setup  func(*resttesting.FakeTaskService)
		status int
		errMsg string
		calls  int
	}{
		{
			"OK",
			`{"title":"buy milk"}`,
			func(s *resttesting.FakeTaskService) {
				s.CreateReturns(internal.Task{ID: 1, Title: "buy milk"}, nil)
			},
			http.StatusOK,
			"",
			1,
		},
		{
			"ERR: malformed body",
			`{"title":`,
			func(*resttesting.FakeTaskService) {},
			http.StatusBadRequest,
			"invalid request",
			0,
		},
		{
			"ERR: title is not a string",
			`{"title":5}`,
			func(*resttesting.FakeTaskService) {},
			http.StatusBadRequest,
			"invalid request",
			0,
		},
		{
			"ERR: validation",
			`{}`,
			func(s *resttesting.FakeTaskService) {
				s.CreateReturns(internal.Task{}, internal.CreateTaskParams{}.Validate())
			},
			http.StatusBadRequest,
			"title is required",
			1,
		},
		{
			"ERR: store failure",
			`{"title":"a"}`,
			func(s *resttesting.FakeTaskService) {
				s.CreateReturns(internal.Task{}, errors.New("disk full"))
			},
			http.StatusInternalServerError,
			"create failed: disk full",
			1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &resttesting.FakeTaskService{}
			tt.setup(svc)

			res := doRequest(t, svc, http.MethodPost, "/api/todos", tt.body)
			require.Equal(t, tt.status, res.StatusCode)
			require.Equal(t, tt.calls, svc.CreateCallCount())

			if tt.errMsg == "" {
				var task rest.Task
				decodeBody(t, res, &task)
				require.Equal(t, int64(1), task.ID)

				_, params := svc.CreateArgsForCall(0)
				require.Equal(t, "buy milk", params.Title)

				return
			}

			var resp rest.ErrorResponse
			decodeBody(t, res, &resp)
			require.Equal(t, tt.errMsg, resp.Error)
		})
	}
}

func TestTasks_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		setup  func(*resttesting.FakeTaskService)
		status int
		calls  int
	}{
		{
			"OK",
			`{"id":1,"completed":true}`,
			func(s *resttesting.FakeTaskService) {
				s.UpdateReturns(internal.Task{ID: 1, Title: "a", Completed: true}, nil)
			},
			http.StatusOK,
			1,
		},
		{
			"ERR: id is a string",
			`{"id":"1","completed":true}`,
			func(*resttesting.FakeTaskService) {},
			http.StatusBadRequest,
			0,
		},
		{
			"ERR: id is not an integer",
			`{"id":1.5,"completed":true}`,
			func(*resttesting.FakeTaskService) {},
			http.StatusBadRequest,
			0,
		},
		{
			"ERR: completed is not a boolean",
			`{"id":1,"completed":"yes"}`,
			func(*resttesting.FakeTaskService) {},
			http.StatusBadRequest,
			0,
		},
		{
			"ERR: completed missing",
			`{"id":1}`,
			func(*resttesting.FakeTaskService) {},
			http.StatusBadRequest,
			0,
		},
		{
			"ERR: not found",
			`{"id":999,"completed":true}`,
			func(s *resttesting.FakeTaskService) {
				s.UpdateReturns(internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task not found"))
			},
			http.StatusNotFound,
			1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &resttesting.FakeTaskService{}
			tt.setup(svc)

			res := doRequest(t, svc, http.MethodPatch, "/api/todos", tt.body)
			require.Equal(t, tt.status, res.StatusCode)
			require.Equal(t, tt.calls, svc.UpdateCallCount())

			if tt.status == http.StatusOK {
				var task rest.Task
				decodeBody(t, res, &task)
				require.True(t, task.Completed)

				_, id, completed := svc.UpdateArgsForCall(0)
				require.Equal(t, int64(1), id)
				require.True(t, completed)

				return
			}

			var resp rest.ErrorResponse
			decodeBody(t, res, &resp)
			require.NotEmpty(t, resp.Error)
		})
	}
}

func TestTasks_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		setup  func(*resttesting.FakeTaskService)
		status int
		calls  int
	}{
		{
			"OK",
			`{"id":1}`,
			func(s *resttesting.FakeTaskService) {},
			http.StatusOK,
			1,
		},
		{
			"ERR: id missing",
			`{}`,
			func(*resttesting.FakeTaskService) {},
			http.StatusBadRequest,
			0,
		},
		{
			"ERR: not found",
			`{"id":7}`,
			func(s *resttesting.FakeTaskService) {
				s.DeleteReturns(internal.NewErrorf(internal.ErrorCodeNotFound, "task not found"))
			},
			http.StatusNotFound,
			1,
		},
		{
			"ERR: store failure",
			`{"id":7}`,
			func(s *resttesting.FakeTaskService) {
				s.DeleteReturns(errors.New("timeout"))
			},
			http.StatusInternalServerError,
			1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &resttesting.FakeTaskService{}
			tt.setup(svc)

			res := doRequest(t, svc, http.MethodDelete, "/api/todos", tt.body)
			require.Equal(t, tt.status, res.StatusCode)
			require.Equal(t, tt.calls, svc.DeleteCallCount())

			if tt.status == http.StatusOK {
				var resp rest.DeleteTaskResponse
				decodeBody(t, res, &resp)
				require.True(t, resp.OK)

				return
			}

			var resp rest.ErrorResponse
			decodeBody(t, res, &resp)
			require.NotEmpty(t, resp.Error)
		})
	}
}

func TestTasks_Search(t *testing.T) {
	t.Parallel()

	svc := &resttesting.FakeTaskService{}
	svc.ByStub = func(_ context.Context, args internal.SearchParams) (internal.SearchResults, error) {
		return internal.SearchResults{Tasks: []internal.Task{{ID: 3, Title: "milk"}}, Total: 1}, nil
	}

	res := doRequest(t, svc, http.MethodGet, "/api/todos/search?title=milk&completed=false&size=5", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp rest.SearchTasksResponse
	decodeBody(t, res, &resp)
	require.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Tasks, 1)

	_, args := svc.ByArgsForCall(0)
	require.Equal(t, "milk", *args.Title)
	require.False(t, *args.Completed)
	require.Equal(t, int64(5), args.Size)
	require.Equal(t, int64(0), args.From)

	res = doRequest(t, svc, http.MethodGet, "/api/todos/search?completed=maybe", "")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}
