package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrMissingToken       = errors.New("missing access token")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbidden          = errors.New("access forbidden")
)

// AuthError carries an upstream authentication rejection: the HTTP status the
// backend answered with and a display message (server-supplied when the
// response body had one, otherwise a generic fallback keyed by status).
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s (status %d)", e.Message, e.Status)
}

// Is makes errors.Is(err, ErrInvalidCredentials) succeed for 401 rejections,
// so callers can branch without inspecting status codes.
func (e *AuthError) Is(target error) bool {
	return target == ErrInvalidCredentials && e.Status == 401
}
