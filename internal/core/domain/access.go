package domain

// AccessVerdict is the outcome of an access decision for a guarded route.
type AccessVerdict int

const (
	// AccessLoading means the session has not finished its initial
	// resolution; the caller should show a loading state, not redirect.
	AccessLoading AccessVerdict = iota
	// AccessAllow renders the route normally.
	AccessAllow
	// AccessRedirect sends the caller to Decision.RedirectTo.
	AccessRedirect
	// AccessPreview renders the route in restricted, read-only capacity
	// for viewer-only operators.
	AccessPreview
)

func (v AccessVerdict) String() string {
	switch v {
	case AccessAllow:
		return "allow"
	case AccessRedirect:
		return "redirect"
	case AccessPreview:
		return "preview"
	default:
		return "loading"
	}
}

// SessionState is the minimal view of the session a guard needs.
type SessionState struct {
	Ready         bool
	Authenticated bool
	Roles         []string
}

// Decision is the result of Decide: a verdict plus the redirect target when
// the verdict is AccessRedirect.
type Decision struct {
	Verdict    AccessVerdict
	RedirectTo string
}

// GuardRule declares the requirements of a guarded route.
type GuardRule struct {
	// RequiredRoles is the role list any one of which grants access.
	// Empty means authentication alone is enough.
	RequiredRoles []string
	// AllowPreview opts the route into viewer preview: a viewer-only
	// operator gets AccessPreview instead of being bounced to Fallback.
	AllowPreview bool
	// LoginPath receives unauthenticated callers.
	LoginPath string
	// Fallback receives authenticated callers lacking the required roles.
	Fallback string
}

// Decide is the single access-control decision point consumed by every
// guard. It never errors: the verdict is always one of loading, allow,
// redirect, or preview.
func Decide(state SessionState, rule GuardRule) Decision {
	if !state.Ready {
		return Decision{Verdict: AccessLoading}
	}
	if !state.Authenticated {
		return Decision{Verdict: AccessRedirect, RedirectTo: rule.LoginPath}
	}
	if HasAnyRole(state.Roles, rule.RequiredRoles...) {
		return Decision{Verdict: AccessAllow}
	}
	if rule.AllowPreview && DerivePermissions(state.Roles).IsViewerOnly {
		return Decision{Verdict: AccessPreview}
	}
	return Decision{Verdict: AccessRedirect, RedirectTo: rule.Fallback}
}
