package client

import (
	"net/http"
	"time"
)

// UserInfo describes an account.
type UserInfo struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityEntry is one item of the activity feed.
type ActivityEntry struct {
	TodoID  string    `json:"todo_id"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// APIError is a failed response. Message is the server's text and is shown
// to users as is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}
