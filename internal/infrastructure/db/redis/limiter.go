package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lockoutWindow   = 15 * time.Minute
	defaultMaxFails = 5
)

// LoginLimiter throttles failed login attempts per identifier.
// Key format: lockout:<identifier>
type LoginLimiter struct {
	client   *redis.Client
	maxFails int
}

// NewLoginLimiter creates a LoginLimiter. maxFails <= 0 selects the default.
func NewLoginLimiter(client *redis.Client, maxFails int) *LoginLimiter {
	if maxFails <= 0 {
		maxFails = defaultMaxFails
	}
	return &LoginLimiter{client: client, maxFails: maxFails}
}

// Locked reports whether the identifier exceeded the failure budget inside
// the lockout window.
func (l *LoginLimiter) Locked(ctx context.Context, identifier string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(identifier)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lockout check: %w", err)
	}
	return n >= l.maxFails, nil
}

// RecordFailure counts one failed attempt and extends the window.
func (l *LoginLimiter) RecordFailure(ctx context.Context, identifier string) error {
	key := l.key(identifier)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, lockoutWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

// Reset clears the failure count after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	return l.client.Del(ctx, l.key(identifier)).Err()
}

func (l *LoginLimiter) key(identifier string) string {
	return fmt.Sprintf("lockout:%s", identifier)
}
