// Package state holds the client-side view of the task list and drives it through the tasks API.
//
// Every mutation is followed by a refetch of the list, so the visible tasks always converge to what the
// server stores. Concurrent refreshes are coalesced, and a list response is only applied when no
// later-started fetch has already been applied.
package state

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sanLimbu/todo-app/internal"
)

const (
	refreshKey     = "tasks"
	refreshTimeout = 30 * time.Second
)

// Notification messages surfaced when a mutation fails.
const (
	MsgAddFailed    = "add failed"
	MsgUpdateFailed = "update failed"
	MsgDeleteFailed = "delete failed"
)

// TaskAPI defines the remote operations the Controller depends on.
type TaskAPI interface {
	List(ctx context.Context) ([]internal.Task, error)
	Create(ctx context.Context, title string) (internal.Task, error)
	Update(ctx context.Context, id int64, completed bool) (internal.Task, error)
	Delete(ctx context.Context, id int64) error
}

// Notifier displays transient notifications, for example toasts.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// Level indicates the severity of a Notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is a transient message meant for the user.
type Notification struct {
	Level   Level
	Message string
}

// Snapshot is a copy of the Controller state.
type Snapshot struct {
	Tasks      []internal.Task
	Loading    bool
	Submitting bool
	LastError  string
	Input      string
	InputError string
}

// Controller owns the visible task list.
type Controller struct {
	api      TaskAPI
	notifier Notifier
	logger   *zap.Logger

	group singleflight.Group

	mu        sync.Mutex
	state     Snapshot
	started   uint64
	applied   uint64
	inflight  int
	listeners map[int]func(Snapshot)
	nextID    int
}

// New instantiates a Controller, notifier may be nil.
func New(api TaskAPI, notifier Notifier, logger *zap.Logger) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}

	return &Controller{
		api:       api,
		notifier:  notifier,
		logger:    logger,
		state:     Snapshot{Tasks: []internal.Task{}},
		listeners: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Subscribe registers fn to be called after every state change, the returned function unregisters it.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		delete(c.listeners, id)
	}
}

// SetInput replaces the pending title and clears any validation message attached to it.
func (c *Controller) SetInput(title string) {
	c.update(func(s *Snapshot) {
		s.Input = title
		s.InputError = ""
	})
}

// Refresh replaces the tasks with the ones returned by the server. On failure the previous tasks are kept
// and LastError is set. Callers arriving while a refresh is in flight share its result; cancelling ctx
// only stops this caller from waiting, the shared fetch keeps running until refreshTimeout.
func (c *Controller) Refresh(ctx context.Context) error {
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		return nil, c.fetch(ctx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitCreate validates title locally and, when valid, creates the task and refreshes the list.
func (c *Controller) SubmitCreate(ctx context.Context, title string) error {
	trimmed := strings.TrimSpace(title)

	if err := internal.ValidateTitle(trimmed); err != nil {
		c.update(func(s *Snapshot) {
			s.Input = title
			s.InputError = err.Error()
		})

		return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "validation")
	}

	c.mu.Lock()

	if c.state.Submitting {
		c.mu.Unlock()
		return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "a task is already being added")
	}

	c.state.Submitting = true
	c.state.Input = title
	c.state.InputError = ""
	snap := c.snapshotLocked()

	c.mu.Unlock()
	c.publish(snap)

	_, err := c.api.Create(ctx, trimmed)
	if err != nil {
		c.failed(MsgAddFailed, err)
	}

	_ = c.refreshAfterMutation(ctx)

	c.update(func(s *Snapshot) {
		if err == nil {
			s.Input = ""
		}

		s.Submitting = false
	})

	return err
}

// SubmitToggle flips the completed flag of a task and refreshes the list.
func (c *Controller) SubmitToggle(ctx context.Context, id int64, currentCompleted bool) error {
	_, err := c.api.Update(ctx, id, !currentCompleted)
	if err != nil {
		c.failed(MsgUpdateFailed, err)
	}

	_ = c.refreshAfterMutation(ctx)

	return err
}

// SubmitDelete deletes a task and refreshes the list.
func (c *Controller) SubmitDelete(ctx context.Context, id int64) error {
	err := c.api.Delete(ctx, id)
	if err != nil {
		c.failed(MsgDeleteFailed, err)
	}

	_ = c.refreshAfterMutation(ctx)

	return err
}

// refreshAfterMutation starts a new fetch instead of joining one that may predate the mutation.
func (c *Controller) refreshAfterMutation(ctx context.Context) error {
	c.group.Forget(refreshKey)

	return c.Refresh(ctx)
}

func (c *Controller) fetch(ctx context.Context) error {
	c.mu.Lock()
	c.started++
	seq := c.started
	c.inflight++
	c.state.Loading = true
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)

	tasks, err := c.api.List(ctx)

	c.mu.Lock()

	c.inflight--
	c.state.Loading = c.inflight > 0

	if seq > c.applied {
		c.applied = seq

		if err != nil {
			c.state.LastError = err.Error()
		} else {
			if tasks == nil {
				tasks = []internal.Task{}
			}

			c.state.Tasks = tasks
			c.state.LastError = ""
		}
	} else {
		c.logger.Debug("discarding stale list response", zap.Uint64("seq", seq), zap.Uint64("applied", c.applied))
	}

	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)

	if err != nil {
		c.logger.Warn("refresh failed", zap.Error(err))
	}

	return err
}

func (c *Controller) failed(msg string, err error) {
	c.logger.Warn(msg, zap.Error(err))
	c.notifier.Notify(Notification{Level: LevelError, Message: msg})
}

func (c *Controller) update(fn func(*Snapshot)) {
	c.mu.Lock()
	fn(&c.state)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
}

func (c *Controller) snapshotLocked() Snapshot {
	res := c.state
	res.Tasks = make([]internal.Task, len(c.state.Tasks))
	copy(res.Tasks, c.state.Tasks)

	return res
}

func (c *Controller) publish(snap Snapshot) {
	c.mu.Lock()

	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	fns := make([]func(Snapshot), len(ids))
	for i, id := range ids {
		fns[i] = c.listeners[id]
	}

	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
