package ports

import (
	"context"

	"github.com/gorsvet/lighting-console/internal/core/domain"
)

// Snapshot is an immutable copy of the session state handed to consumers.
type Snapshot struct {
	Ready         bool               `json:"ready"`
	Authenticated bool               `json:"authenticated"`
	User          *domain.Profile    `json:"user"`
	Roles         []string           `json:"roles"`
	Permissions   domain.Permissions `json:"permissions"`
}

// State converts the snapshot into the guard-facing session state.
func (s Snapshot) State() domain.SessionState {
	return domain.SessionState{
		Ready:         s.Ready,
		Authenticated: s.Authenticated,
		Roles:         s.Roles,
	}
}

// SessionService owns the console's authentication state and its lifecycle.
// Initialize runs exactly once per process; the remaining operations are
// serialized internally.
type SessionService interface {
	Initialize(ctx context.Context)
	Login(ctx context.Context, identifier, secret string) error
	Register(ctx context.Context, identifier, secret string) error
	Logout(ctx context.Context)
	RefreshMe(ctx context.Context)
	Snapshot() Snapshot
	HasRole(required ...string) bool
	Subscribe(fn func(Snapshot)) (unsubscribe func())
}
