package view

import "errors"

var (
	// ErrBusy is returned when a mutation targets a todo that already has one
	// in flight. Nothing is projected and no call is made.
	ErrBusy = errors.New("another change to this todo is still in progress")

	// ErrClosed is returned for mutations issued after Close.
	ErrClosed = errors.New("view is closed")

	// ErrUnknownTodo is returned when the id is not in the list.
	ErrUnknownTodo = errors.New("todo is not in the list")
)
