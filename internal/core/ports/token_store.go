package ports

import "context"

// TokenStore persists the single bearer credential of the console session.
// Get returns ("", nil) when no credential is stored; absence of the
// credential is the definitive "logged out" signal across restarts.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
