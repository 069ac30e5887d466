package todo

import domain "github.com/example/todo-tracker/domain/todo"

// OwnerRequest addresses all todos of an owner.
type OwnerRequest struct {
	OwnerID string `json:"owner_id"`
}

// CreateTodoRequest is the payload of create-todo.
type CreateTodoRequest struct {
	OwnerID     string  `json:"owner_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// UpdateTodoRequest is the payload of update-todo.
type UpdateTodoRequest struct {
	OwnerID string       `json:"owner_id"`
	ID      string       `json:"id"`
	Patch   domain.Patch `json:"patch"`
}

// TodoIDRequest addresses one todo of an owner.
type TodoIDRequest struct {
	OwnerID string `json:"owner_id"`
	ID      string `json:"id"`
}

// ToggleTodoRequest is the payload of toggle-todo.
type ToggleTodoRequest struct {
	OwnerID   string `json:"owner_id"`
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
}

// Result types returned by the request-reply services.
type (
	TodoResult   = domain.Result[*domain.Todo]
	ListResult   = domain.Result[[]domain.Todo]
	StatsResult  = domain.Result[*domain.Stats]
	StatusResult = domain.Result[any]
)
