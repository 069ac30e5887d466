package todo

import "errors"

var (
	// ErrUnauthenticated is returned when an operation runs without an owner.
	// Callers redirect to the login flow instead of reporting it.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrTitleRequired is returned when a title is empty after trimming.
	ErrTitleRequired = errors.New("title is required")

	// ErrTodoNotFound is returned when no todo matches id and owner.
	ErrTodoNotFound = errors.New("todo not found")
)
