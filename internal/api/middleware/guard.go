package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gorsvet/lighting-console/internal/api/metrics"
	"github.com/gorsvet/lighting-console/internal/core/domain"
)

// DefaultLoginPath receives unauthenticated operators.
const DefaultLoginPath = "/login"

// Authenticated guards a route group that requires a signed-in operator.
// Browser requests are redirected to the login page with the originally
// requested path and query preserved in "next"; API requests get 401.
func Authenticated(loginPath string) echo.MiddlewareFunc {
	return RequireRoles(GuardOptions{LoginPath: loginPath})
}

// GuardOptions declares the requirements of a guarded route group.
type GuardOptions struct {
	// Roles any one of which grants access. Empty requires only
	// authentication.
	Roles []string
	// AllowPreview admits viewer-only operators in restricted preview
	// capacity instead of bouncing them to Fallback.
	AllowPreview bool
	// LoginPath defaults to DefaultLoginPath.
	LoginPath string
	// Fallback receives authenticated operators lacking the roles.
	// Defaults to "/app".
	Fallback string
}

// RequireRoles guards a route group with a role requirement. The decision
// itself is the pure domain.Decide; this middleware only translates verdicts
// into HTTP.
func RequireRoles(opts GuardOptions) echo.MiddlewareFunc {
	if opts.LoginPath == "" {
		opts.LoginPath = DefaultLoginPath
	}
	if opts.Fallback == "" {
		opts.Fallback = "/app"
	}
	rule := domain.GuardRule{
		RequiredRoles: opts.Roles,
		AllowPreview:  opts.AllowPreview,
		LoginPath:     opts.LoginPath,
		Fallback:      opts.Fallback,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := SnapshotFrom(c)
			decision := domain.Decide(snap.State(), rule)
			metrics.GuardDecisionsTotal.WithLabelValues(decision.Verdict.String()).Inc()

			switch decision.Verdict {
			case domain.AccessAllow:
				c.Set(AccessModeKey, "full")
				return next(c)

			case domain.AccessPreview:
				c.Set(AccessModeKey, "preview")
				c.Response().Header().Set("X-Access-Mode", "preview")
				return next(c)

			case domain.AccessLoading:
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "initializing",
				})

			default: // AccessRedirect
				if wantsHTML(c.Request()) {
					target := decision.RedirectTo
					if target == rule.LoginPath {
						target += "?next=" + url.QueryEscape(c.Request().RequestURI)
					}
					return c.Redirect(http.StatusFound, target)
				}
				if !snap.Authenticated {
					return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
				}
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
		}
	}
}

// wantsHTML distinguishes browser page navigation from API calls.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
