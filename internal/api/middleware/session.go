package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/gorsvet/lighting-console/internal/core/ports"
)

const (
	// SessionKey is the echo context key holding the ports.Snapshot.
	SessionKey = "session"
	// AccessModeKey is the echo context key holding the access mode set by
	// the role guard: "full" or "preview".
	AccessModeKey = "access_mode"
)

// Session resolves the session on first use and attaches a fresh snapshot to
// every request. Initialize is once-guarded inside the service, so
// concurrent first requests cannot trigger duplicate "who am I" calls.
func Session(svc ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			svc.Initialize(c.Request().Context())
			c.Set(SessionKey, svc.Snapshot())
			return next(c)
		}
	}
}

// SnapshotFrom extracts the session snapshot attached by Session. The zero
// snapshot (not ready, anonymous) is returned when the middleware did not run.
func SnapshotFrom(c echo.Context) ports.Snapshot {
	snap, _ := c.Get(SessionKey).(ports.Snapshot)
	return snap
}

// PreviewMode reports whether the role guard admitted this request in
// restricted preview capacity.
func PreviewMode(c echo.Context) bool {
	mode, _ := c.Get(AccessModeKey).(string)
	return mode == "preview"
}
