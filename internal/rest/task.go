package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/sanLimbu/todo-app/internal"
)

const (
	tasksPath       = "/api/todos"
	maxBodyBytes    = 1 << 20
	defaultPageSize = 10
)

//go:generate counterfeiter -o resttesting/task_service.gen.go . TaskService

// TaskService ...
type TaskService interface {
	By(ctx context.Context, args internal.SearchParams) (internal.SearchResults, error)
	Tasks(ctx context.Context) ([]internal.Task, error)
	Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error)
	Update(ctx context.Context, id int64, completed bool) (internal.Task, error)
	Delete(ctx context.Context, id int64) error
}

// TaskHandler ...
type TaskHandler struct {
	svc TaskService
}

// NewTaskHandler ...
func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{
		svc: svc,
	}
}

// Register connects the handlers to the router.
func (t *TaskHandler) Register(r chi.Router) {
	r.Get(tasksPath, t.list)
	r.Post(tasksPath, t.create)
	r.Patch(tasksPath, t.update)
	r.Delete(tasksPath, t.delete)
	r.Get(tasksPath+"/search", t.search)
}

// Task is an activity that needs to be completed.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	IsDeleted bool      `json:"isDeleted"`
}

func newTask(t internal.Task) Task {
	return Task{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		IsDeleted: t.IsDeleted,
	}
}

func newTasks(tasks []internal.Task) []Task {
	res := make([]Task, len(tasks))
	for i, task := range tasks {
		res[i] = newTask(task)
	}

	return res
}

// CreateTaskRequest defines the request used for creating tasks.
type CreateTaskRequest struct {
	Title string `json:"title"`
}

// UpdateTaskRequest defines the request used for updating the completed flag of a task.
type UpdateTaskRequest struct {
	ID        *int64 `json:"id"`
	Completed *bool  `json:"completed"`
}

// DeleteTaskRequest defines the request used for deleting tasks.
type DeleteTaskRequest struct {
	ID *int64 `json:"id"`
}

// DeleteTaskResponse defines the response returned back after deleting tasks.
type DeleteTaskResponse struct {
	OK bool `json:"ok"`
}

// SearchTasksResponse defines the response returned back after searching tasks.
type SearchTasksResponse struct {
	Tasks []Task `json:"tasks"`
	Total int64  `json:"total"`
}

func (t *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	tasks, err := t.svc.Tasks(r.Context())
	if err != nil {
		renderErrorResponse(r.Context(), w, "list failed", err)
		return
	}

	renderResponse(w, newTasks(tasks), http.StatusOK)
}

func (t *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeRequest(w, r, &req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request", err)
		return
	}

	task, err := t.svc.Create(r.Context(), internal.CreateTaskParams{Title: req.Title})
	if err != nil {
		renderErrorResponse(r.Context(), w, "create failed", err)
		return
	}

	renderResponse(w, newTask(task), http.StatusOK)
}

func (t *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if err := decodeRequest(w, r, &req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request", err)
		return
	}

	if req.ID == nil || req.Completed == nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.NewErrorf(internal.ErrorCodeInvalidArgument, "id must be an integer and completed a boolean"))
		return
	}

	task, err := t.svc.Update(r.Context(), *req.ID, *req.Completed)
	if err != nil {
		renderErrorResponse(r.Context(), w, "update failed", err)
		return
	}

	renderResponse(w, newTask(task), http.StatusOK)
}

func (t *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteTaskRequest
	if err := decodeRequest(w, r, &req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request", err)
		return
	}

	if req.ID == nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.NewErrorf(internal.ErrorCodeInvalidArgument, "id must be an integer"))
		return
	}

	if err := t.svc.Delete(r.Context(), *req.ID); err != nil {
		renderErrorResponse(r.Context(), w, "delete failed", err)
		return
	}

	renderResponse(w, &DeleteTaskResponse{OK: true}, http.StatusOK)
}

func (t *TaskHandler) search(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Title     *string
		Completed *bool
		From      *int64
		Size      *int64
	}

	query := r.URL.Query()

	for name, dest := range map[string]interface{}{
		"title":     &params.Title,
		"completed": &params.Completed,
		"from":      &params.From,
		"size":      &params.Size,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			renderErrorResponse(r.Context(), w, "invalid request",
				internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid %s parameter", name))
			return
		}
	}

	args := internal.SearchParams{
		Title:     params.Title,
		Completed: params.Completed,
		Size:      defaultPageSize,
	}

	if params.From != nil {
		args.From = *params.From
	}

	if params.Size != nil {
		args.Size = *params.Size
	}

	res, err := t.svc.By(r.Context(), args)
	if err != nil {
		renderErrorResponse(r.Context(), w, "search failed", err)
		return
	}

	renderResponse(w, &SearchTasksResponse{
		Tasks: newTasks(res.Tasks),
		Total: res.Total,
	}, http.StatusOK)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid request")
	}

	return nil
}
