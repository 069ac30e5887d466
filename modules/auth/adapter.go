package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/todo-tracker/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is what other modules use to reach the auth module.
type AuthPort interface {
	Register(ctx context.Context, email, password, displayName string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// AuthAdapter implements AuthPort over the auth module's request-reply
// services. Reply error messages are mapped back to this package's sentinels.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates an AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

func (a *AuthAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// Register creates an account.
func (a *AuthAdapter) Register(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	req := RegisterRequest{Email: email, Password: password, DisplayName: displayName}
	var resp UserResponse
	if err := a.call(ctx, "register", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errorFromMessage(resp.Error)
	}
	return userFromResponse(resp), nil
}

// Login issues tokens for valid credentials.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp TokenResponse
	if err := a.call(ctx, "login", &req, &resp); err != nil {
		return nil, err
	}
	return tokensFromResponse(resp)
}

// Refresh exchanges a refresh token.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp TokenResponse
	if err := a.call(ctx, "refresh-token", &req, &resp); err != nil {
		return nil, err
	}
	return tokensFromResponse(resp)
}

// ValidateToken verifies an access token.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := a.call(ctx, "validate-token", &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, errorFromMessage(resp.Error)
	}
	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
	}, nil
}

// GetUser loads an account.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := a.call(ctx, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errorFromMessage(resp.Error)
	}
	return userFromResponse(resp), nil
}

func userFromResponse(resp UserResponse) *domain.User {
	return &domain.User{
		ID:          resp.ID,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		CreatedAt:   resp.CreatedAt,
	}
}

func tokensFromResponse(resp TokenResponse) (*domain.TokenPair, error) {
	if resp.Error != "" {
		return nil, errorFromMessage(resp.Error)
	}
	return &domain.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	}, nil
}
