// Package client implements the HTTP client used for consuming the tasks REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mercari/go-circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sanLimbu/todo-app/internal"
	"github.com/sanLimbu/todo-app/internal/rest"
)

const tasksPath = "/api/todos"

// Client consumes the tasks REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithCircuitBreaker makes requests fail fast with ErrorCodeNetwork while the breaker is open.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(cl *Client) {
		cl.breaker = cb
	}
}

// WithTracing instruments outgoing requests with OpenTelemetry.
func WithTracing() Option {
	return func(cl *Client) {
		transport := cl.httpClient.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}

		c := *cl.httpClient
		c.Transport = otelhttp.NewTransport(transport)
		cl.httpClient = &c
	}
}

// New instantiates a Client for the server located at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "url.Parse")
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "base url must be absolute")
	}

	cl := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(cl)
	}

	return cl, nil
}

// List returns the tasks that were not deleted.
func (c *Client) List(ctx context.Context) ([]internal.Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, tasksPath, nil, &raw); err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, internal.NewErrorf(internal.ErrorCodeUnknown, "malformed response: expected an array")
	}

	var tasks []rest.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "malformed response")
	}

	return convertTasks(tasks), nil
}

// Create creates a new task.
func (c *Client) Create(ctx context.Context, title string) (internal.Task, error) {
	var task rest.Task
	if err := c.do(ctx, http.MethodPost, tasksPath, rest.CreateTaskRequest{Title: title}, &task); err != nil {
		return internal.Task{}, err
	}

	return convertTask(task), nil
}

// Update sets the completed flag of a task.
func (c *Client) Update(ctx context.Context, id int64, completed bool) (internal.Task, error) {
	var task rest.Task
	if err := c.do(ctx, http.MethodPatch, tasksPath, rest.UpdateTaskRequest{ID: &id, Completed: &completed}, &task); err != nil {
		return internal.Task{}, err
	}

	return convertTask(task), nil
}

// Delete soft-deletes a task.
func (c *Client) Delete(ctx context.Context, id int64) error {
	var resp rest.DeleteTaskResponse
	if err := c.do(ctx, http.MethodDelete, tasksPath, rest.DeleteTaskRequest{ID: &id}, &resp); err != nil {
		return err
	}

	if !resp.OK {
		return internal.NewErrorf(internal.ErrorCodeUnknown, "delete was not acknowledged")
	}

	return nil
}

// Search returns the tasks matching the arguments, search must be enabled on the server.
func (c *Client) Search(ctx context.Context, args internal.SearchParams) (internal.SearchResults, error) {
	query, err := searchQuery(args)
	if err != nil {
		return internal.SearchResults{}, err
	}

	var resp rest.SearchTasksResponse
	if err := c.do(ctx, http.MethodGet, tasksPath+"/search?"+query.Encode(), nil, &resp); err != nil {
		return internal.SearchResults{}, err
	}

	return internal.SearchResults{
		Tasks: convertTasks(resp.Tasks),
		Total: resp.Total,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json.Encode")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "http.NewRequest")
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	send := func() (interface{}, error) {
		return c.httpClient.Do(req) //nolint: bodyclose
	}

	var res interface{}

	if c.breaker != nil {
		res, err = c.breaker.Do(ctx, send)
	} else {
		res, err = send()
	}

	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeNetwork, "%s %s", method, path)
	}

	resp, ok := res.(*http.Response)
	if !ok || resp == nil {
		return internal.NewErrorf(internal.ErrorCodeNetwork, "%s %s: no response", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "malformed response")
	}

	return nil
}

func decodeError(resp *http.Response) error {
	code := internal.ErrorCodeUnknown

	switch resp.StatusCode {
	case http.StatusBadRequest:
		code = internal.ErrorCodeInvalidArgument
	case http.StatusNotFound:
		code = internal.ErrorCodeNotFound
	}

	var errResp rest.ErrorResponse

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(b, &errResp); err != nil || errResp.Error == "" {
		return internal.NewErrorf(code, "unexpected status %d", resp.StatusCode)
	}

	return internal.NewErrorf(code, "%s", errResp.Error)
}

func convertTask(t rest.Task) internal.Task {
	return internal.Task{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		IsDeleted: t.IsDeleted,
	}
}

func convertTasks(tasks []rest.Task) []internal.Task {
	res := make([]internal.Task, len(tasks))
	for i, t := range tasks {
		res[i] = convertTask(t)
	}

	return res
}
