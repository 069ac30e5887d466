package view

import (
	"context"

	domain "github.com/example/todo-tracker/domain/todo"
)

// Facade is the remote side of the view: the caller's todos behind an
// authenticated session. Implementations return domain.ErrUnauthenticated
// when the session is missing or expired.
type Facade interface {
	List(ctx context.Context) ([]domain.Todo, error)
	Create(ctx context.Context, in domain.CreateInput) (*domain.Todo, error)
	Update(ctx context.Context, id string, patch domain.Patch) error
	Toggle(ctx context.Context, id string, completed bool) error
	Delete(ctx context.Context, id string) error
	AttachImage(ctx context.Context, id string, upload domain.Upload) (string, error)
	RemoveImage(ctx context.Context, id string) error
}

// Notifier receives the outcome of every remote call.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	// Unauthenticated is called instead of Error when the session is gone.
	Unauthenticated()
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string)   {}
func (NopNotifier) Error(string)     {}
func (NopNotifier) Unauthenticated() {}
