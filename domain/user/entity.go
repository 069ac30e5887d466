// Package user holds the identity types shared by the auth module and its callers.
package user

import "time"

// User is an account that owns todos.
type User struct {
	ID           string `gorm:"primaryKey;type:text"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	DisplayName  string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// TokenPair is issued on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims identifies the caller of a request. UserID is the owner id every
// todo read and write is scoped to.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
