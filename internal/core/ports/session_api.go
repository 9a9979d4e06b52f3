package ports

import (
	"context"

	"github.com/gorsvet/lighting-console/internal/core/domain"
)

// LoginResult is the decoded outcome of a login call. Token is always
// populated on success regardless of which field name the backend used.
type LoginResult struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

// Account is the created-account summary returned by register. Registration
// never authenticates by itself.
type Account struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// SessionAPI is the backend boundary of the session subsystem: single-shot
// request/response calls, no retry. Me requires the bearer token and returns
// a profile whose role set is already canonical.
type SessionAPI interface {
	Login(ctx context.Context, identifier, secret string) (*LoginResult, error)
	Register(ctx context.Context, identifier, secret string) (*Account, error)
	Me(ctx context.Context, token string) (*domain.Profile, error)
}
