// Package events defines the todo lifecycle events published by the todo module.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TodoCreatedEvent is emitted after a todo row is inserted.
type TodoCreatedEvent struct {
	TodoID    string    `json:"todo_id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoCreatedV1 subject: events.todo.v1.todo-created
var TodoCreatedV1 = helper.EventDefinition[TodoCreatedEvent](
	"todo", "TodoCreated", "v1",
)

// TodoUpdatedEvent is emitted after a patch that changed title or description.
type TodoUpdatedEvent struct {
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	Fields    []string  `json:"fields"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodoUpdatedV1 subject: events.todo.v1.todo-updated
var TodoUpdatedV1 = helper.EventDefinition[TodoUpdatedEvent](
	"todo", "TodoUpdated", "v1",
)

// TodoCompletedEvent is emitted when completion is set either way.
type TodoCompletedEvent struct {
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	Completed bool      `json:"completed"`
	ChangedAt time.Time `json:"changed_at"`
}

// TodoCompletedV1 subject: events.todo.v1.todo-completed
var TodoCompletedV1 = helper.EventDefinition[TodoCompletedEvent](
	"todo", "TodoCompleted", "v1",
)

// TodoDeletedEvent is emitted after a row is deleted.
type TodoDeletedEvent struct {
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	HadImage  bool      `json:"had_image"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TodoDeletedV1 subject: events.todo.v1.todo-deleted
var TodoDeletedV1 = helper.EventDefinition[TodoDeletedEvent](
	"todo", "TodoDeleted", "v1",
)

// TodoImageEvent is emitted when an image is attached to or removed from a todo.
type TodoImageEvent struct {
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	ImageURL  string    `json:"image_url"`
	ChangedAt time.Time `json:"changed_at"`
}

// TodoImageAttachedV1 subject: events.todo.v1.todo-image-attached
var TodoImageAttachedV1 = helper.EventDefinition[TodoImageEvent](
	"todo", "TodoImageAttached", "v1",
)

// TodoImageRemovedV1 subject: events.todo.v1.todo-image-removed
var TodoImageRemovedV1 = helper.EventDefinition[TodoImageEvent](
	"todo", "TodoImageRemoved", "v1",
)
