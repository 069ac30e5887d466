// Package view keeps the list of todos a user is looking at and applies
// changes optimistically: the list changes at once, the remote call runs in
// the background and a failed call puts the touched todo back.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/modules/images"
	nanoid "github.com/jaevor/go-nanoid"
)

// PlaceholderPrefix marks todos the backend has not confirmed yet.
const PlaceholderPrefix = "temp-"

const defaultCallTimeout = 30 * time.Second

// Toast texts.
const (
	MsgCreated      = "Todo created successfully"
	MsgCreateFailed = "Failed to create todo"
	MsgUpdated      = "Todo updated successfully"
	MsgUpdateFailed = "Failed to update todo"
	MsgDeleted      = "Todo deleted successfully"
	MsgDeleteFailed = "Failed to delete todo"
	MsgImageAdded   = "Image uploaded successfully"
	MsgImageFailed  = "Failed to upload image"
	MsgImageRemoved = "Image removed successfully"
	MsgRemoveFailed = "Failed to remove image"
)

// Controller owns the in-memory list. All changes go through its methods.
type Controller struct {
	facade   Facade
	notifier Notifier
	now      func() time.Time
	suffix   func() string
	timeout  time.Duration

	mu       sync.Mutex
	todos    []domain.Todo
	inflight map[string]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source used for placeholders.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithCallTimeout bounds each background call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// New creates a Controller. A nil notifier discards notifications.
func New(facade Facade, notifier Notifier, opts ...Option) (*Controller, error) {
	suffix, err := nanoid.Standard(8)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	c := &Controller{
		facade:   facade,
		notifier: notifier,
		now:      time.Now,
		suffix:   suffix,
		timeout:  defaultCallTimeout,
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Load replaces the list with the backend's, except for todos with a
// change in flight. It blocks.
func (c *Controller) Load(ctx context.Context) error {
	todos, err := c.facade.List(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.notifier.Unauthenticated()
		}
		return err
	}
	domain.SortNewestFirst(todos)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	// Todos with a call in flight keep their projected state, including
	// unconfirmed placeholders and rows projected away by a delete.
	for id := range c.inflight {
		todos = without(todos, id)
	}
	for _, t := range c.todos {
		if _, busy := c.inflight[t.ID]; busy || IsPlaceholder(t.ID) {
			todos = append(todos, t)
		}
	}
	domain.SortNewestFirst(todos)
	c.todos = todos
	return nil
}

// Todos returns a copy of the full list, newest first.
func (c *Controller) Todos() []domain.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Todo, len(c.todos))
	copy(out, c.todos)
	return out
}

// Visible returns the todos passing f, in list order.
func (c *Controller) Visible(f domain.Filter) []domain.Todo {
	return domain.Apply(c.Todos(), f)
}

// Stats counts the full list.
func (c *Controller) Stats() domain.Stats {
	return domain.Count(c.Todos())
}

// Get returns the todo with id.
func (c *Controller) Get(id string) (domain.Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.todos, id); i >= 0 {
		return c.todos[i], true
	}
	return domain.Todo{}, false
}

// Pending reports whether a change to id is in flight.
func (c *Controller) Pending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// Wait blocks until every background call has been reconciled or rolled back.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close detaches the controller. Calls still in flight complete on the
// backend but their results are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// IsPlaceholder reports whether id was assigned locally.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

func (c *Controller) placeholderID() string {
	return fmt.Sprintf("%s%d-%s", PlaceholderPrefix, c.now().UnixMilli(), c.suffix())
}

// Run applies op: projection now, call in the background, then reconcile or
// roll back. The returned error is only about the projection; call failures
// go to the notifier.
func Run[R any](c *Controller, op Op[R]) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if _, busy := c.inflight[op.ID]; busy {
		c.mu.Unlock()
		return ErrBusy
	}
	snap := takeSnapshot(c.todos, op.ID)
	if op.Project != nil {
		c.todos = op.Project(c.todos)
	}
	c.inflight[op.ID] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		result, err := op.Call(ctx)
		cancel()

		c.mu.Lock()
		delete(c.inflight, op.ID)
		if c.closed {
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.todos = snap.restore(c.todos)
		} else if op.Reconcile != nil {
			c.todos = op.Reconcile(c.todos, result)
			domain.SortNewestFirst(c.todos)
		}
		c.mu.Unlock()

		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			c.notifier.Unauthenticated()
		case err != nil:
			c.notifier.Error(failureMessage(op.Failure, err))
		default:
			c.notifier.Success(op.Success)
		}
	}()
	return nil
}

func failureMessage(prefix string, err error) string {
	if prefix == "" {
		return err.Error()
	}
	return prefix + ": " + err.Error()
}

// Create inserts a placeholder at the top and replaces it with the stored
// todo once the backend confirms. An empty title is rejected without a call.
func (c *Controller) Create(title string, description *string) (string, error) {
	in := domain.CreateInput{Title: title, Description: description}.Normalize()
	if in.Title == "" {
		c.notifier.Error(domain.ErrTitleRequired.Error())
		return "", domain.ErrTitleRequired
	}

	now := c.now()
	placeholder := domain.Todo{
		ID:          c.placeholderID(),
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := Run(c, Op[*domain.Todo]{
		Name: "create",
		ID:   placeholder.ID,
		Project: func(list []domain.Todo) []domain.Todo {
			return append([]domain.Todo{placeholder}, list...)
		},
		Call: func(ctx context.Context) (*domain.Todo, error) {
			return c.facade.Create(ctx, in)
		},
		Reconcile: func(list []domain.Todo, stored *domain.Todo) []domain.Todo {
			list = without(list, placeholder.ID)
			if stored == nil {
				return list
			}
			return append([]domain.Todo{*stored}, without(list, stored.ID)...)
		},
		Success: MsgCreated,
		Failure: MsgCreateFailed,
	})
	if err != nil {
		return "", err
	}
	return placeholder.ID, nil
}

// Toggle flips the completion flag.
func (c *Controller) Toggle(id string) error {
	current, ok := c.Get(id)
	if !ok {
		return ErrUnknownTodo
	}
	completed := !current.Completed
	return Run(c, Op[struct{}]{
		Name: "toggle",
		ID:   id,
		Project: func(list []domain.Todo) []domain.Todo {
			return replace(list, id, func(t domain.Todo) domain.Todo {
				t.Completed = completed
				return t
			})
		},
		Call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.facade.Toggle(ctx, id, completed)
		},
		Success: MsgUpdated,
		Failure: MsgUpdateFailed,
	})
}

// Update patches title, description or completion.
func (c *Controller) Update(id string, patch domain.Patch) error {
	patch = patch.Normalize()
	if patch.Title != nil && *patch.Title == "" {
		c.notifier.Error(domain.ErrTitleRequired.Error())
		return domain.ErrTitleRequired
	}
	if _, ok := c.Get(id); !ok {
		return ErrUnknownTodo
	}
	return Run(c, Op[struct{}]{
		Name: "update",
		ID:   id,
		Project: func(list []domain.Todo) []domain.Todo {
			return replace(list, id, patch.ApplyTo)
		},
		Call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.facade.Update(ctx, id, patch)
		},
		Success: MsgUpdated,
		Failure: MsgUpdateFailed,
	})
}

// Delete removes the todo from the list.
func (c *Controller) Delete(id string) error {
	if _, ok := c.Get(id); !ok {
		return ErrUnknownTodo
	}
	return Run(c, Op[struct{}]{
		Name: "delete",
		ID:   id,
		Project: func(list []domain.Todo) []domain.Todo {
			return without(list, id)
		},
		Call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.facade.Delete(ctx, id)
		},
		Success: MsgDeleted,
		Failure: MsgDeleteFailed,
	})
}

// AttachImage uploads an image. The list shows the todo as pending until the
// stored URL is merged in. Invalid uploads are rejected without a call.
func (c *Controller) AttachImage(id string, upload domain.Upload) error {
	if err := images.ValidateUpload(upload.ContentType, upload.Size()); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	if _, ok := c.Get(id); !ok {
		return ErrUnknownTodo
	}
	return Run(c, Op[string]{
		Name: "attach-image",
		ID:   id,
		Call: func(ctx context.Context) (string, error) {
			return c.facade.AttachImage(ctx, id, upload)
		},
		Reconcile: func(list []domain.Todo, url string) []domain.Todo {
			return replace(list, id, func(t domain.Todo) domain.Todo {
				t.ImageURL = &url
				return t
			})
		},
		Success: MsgImageAdded,
		Failure: MsgImageFailed,
	})
}

// RemoveImage clears the image. The previous URL comes back on failure.
func (c *Controller) RemoveImage(id string) error {
	current, ok := c.Get(id)
	if !ok {
		return ErrUnknownTodo
	}
	if !current.HasImage() {
		return nil
	}
	return Run(c, Op[struct{}]{
		Name: "remove-image",
		ID:   id,
		Project: func(list []domain.Todo) []domain.Todo {
			return replace(list, id, func(t domain.Todo) domain.Todo {
				t.ImageURL = nil
				return t
			})
		},
		Call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.facade.RemoveImage(ctx, id)
		},
		Success: MsgImageRemoved,
		Failure: MsgRemoveFailed,
	})
}
