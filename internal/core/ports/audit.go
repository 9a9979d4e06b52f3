package ports

import (
	"context"

	"github.com/gorsvet/lighting-console/internal/core/domain"
)

// AuditRecorder persists audit entries. Implementations must tolerate being
// called concurrently from dispatcher workers.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
	ListByActor(ctx context.Context, actor string, limit int) ([]domain.AuditEntry, error)
}

// AuditSink accepts audit entries for asynchronous recording. The session
// manager writes here; the queue dispatcher is the production implementation.
type AuditSink interface {
	Submit(entry domain.AuditEntry)
}

// LoginLimiter throttles failed login attempts per identifier.
type LoginLimiter interface {
	// Locked reports whether the identifier has exceeded the failure
	// budget inside the lockout window.
	Locked(ctx context.Context, identifier string) (bool, error)
	// RecordFailure counts one failed attempt, extending the window.
	RecordFailure(ctx context.Context, identifier string) error
	// Reset clears the failure count after a successful login.
	Reset(ctx context.Context, identifier string) error
}
