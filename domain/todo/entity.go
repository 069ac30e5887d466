// Package todo holds the todo entity and the pure list operations shared by
// the server and the client view.
package todo

import (
	"strings"
	"time"
)

// Todo is one task owned by exactly one user.
type Todo struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	Title       string    `gorm:"not null;type:text" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`
	ImageURL    *string   `gorm:"type:text" json:"image_url"`
	UserID      string    `gorm:"not null;index:idx_todos_owner_created,priority:1;type:text" json:"user_id"`
	CreatedAt   time.Time `gorm:"index:idx_todos_owner_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for the Todo entity.
func (Todo) TableName() string {
	return "todos"
}

// HasImage reports whether an image is attached.
func (t Todo) HasImage() bool {
	return t.ImageURL != nil && *t.ImageURL != ""
}

// CreateInput carries the caller-supplied fields of a new todo.
type CreateInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// Normalize trims the text fields. An empty description becomes nil.
func (in CreateInput) Normalize() CreateInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = normalizeText(in.Description)
	if in.ImageURL != nil && strings.TrimSpace(*in.ImageURL) == "" {
		in.ImageURL = nil
	}
	return in
}

// Patch lists the fields of an update. Nil fields are left untouched.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Normalize trims the title and description. A provided description that is
// blank stays provided and clears the stored value.
func (p Patch) Normalize() Patch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	return p
}

// Columns returns the column values the patch writes. An empty description
// maps to NULL.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any, 3)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		if *p.Description == "" {
			cols["description"] = nil
		} else {
			cols["description"] = *p.Description
		}
	}
	if p.Completed != nil {
		cols["completed"] = *p.Completed
	}
	return cols
}

// ApplyTo returns t with the patch applied. It is the local projection of an
// update and does not touch UpdatedAt.
func (p Patch) ApplyTo(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		if *p.Description == "" {
			t.Description = nil
		} else {
			desc := *p.Description
			t.Description = &desc
		}
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// Upload is an image file submitted for a todo.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
