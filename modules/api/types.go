package api

import "time"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateTodoRequest is the body of POST /api/v1/todos.
type CreateTodoRequest struct {
	Title       string  `json:"title" validate:"required,max=500"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

// UpdateTodoRequest is the body of PATCH /api/v1/todos/:id.
type UpdateTodoRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=500"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Completed   *bool   `json:"completed"`
}

// ToggleRequest is the body of POST /api/v1/todos/:id/toggle.
type ToggleRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// ListQuery is the query of GET /api/v1/todos.
type ListQuery struct {
	Search string `schema:"search" validate:"max=200"`
	Filter string `schema:"filter" validate:"omitempty,oneof=all active completed"`
}

// ActivityQuery is the query of GET /api/v1/activity.
type ActivityQuery struct {
	Limit int `schema:"limit" validate:"omitempty,min=1,max=100"`
}

// ImageResponse is returned after an upload.
type ImageResponse struct {
	ImageURL string `json:"image_url"`
}

// UserResponse describes the caller.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrorResponse is the failure body. Success is always false.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
