package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gorsvet/lighting-console/internal/core/domain"
	"github.com/gorsvet/lighting-console/internal/core/ports"
)

// SessionManager owns the console's authentication state: the bootstrapping
// flag, the current profile, the canonical role set, and derived
// permissions. Login, Register, Logout and RefreshMe are serialized by opMu
// so a logout cannot interleave with an in-flight login's success path; if
// calls still race on the credential, last write wins.
type SessionManager struct {
	api   ports.SessionAPI
	store ports.TokenStore
	audit ports.AuditSink
	log   zerolog.Logger

	initOnce sync.Once
	opMu     sync.Mutex

	mu            sync.Mutex
	ready         bool
	authenticated bool
	user          *domain.Profile
	roles         []string

	subMu   sync.Mutex
	subs    map[int]func(ports.Snapshot)
	nextSub int
}

// NewSessionManager wires the manager against a backend client, a token
// store, and an optional audit sink (nil disables auditing).
func NewSessionManager(api ports.SessionAPI, store ports.TokenStore, audit ports.AuditSink, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		api:   api,
		store: store,
		audit: audit,
		log:   log,
		subs:  make(map[int]func(ports.Snapshot)),
	}
}

// Initialize performs the first session resolution. It runs its body exactly
// once per manager lifetime no matter how many consumers call it: without a
// stored credential the session resolves anonymous immediately; with one, a
// "who am I" call decides between authenticated and a forced credential
// clear.
func (m *SessionManager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		token, err := m.store.Get(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("token store unreadable, starting anonymous")
		}
		if token == "" {
			m.becomeAnonymous(ctx, false)
			return
		}
		m.resolveMe(ctx, token)
	})
}

// Login authenticates against the backend, stores the credential, and
// resolves the profile. Errors from either step propagate to the caller for
// display; the session stays unauthenticated on failure.
func (m *SessionManager) Login(ctx context.Context, identifier, secret string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.login(ctx, identifier, secret)
}

// login is Login's body; callers hold opMu.
func (m *SessionManager) login(ctx context.Context, identifier, secret string) error {
	result, err := m.api.Login(ctx, identifier, secret)
	if err != nil {
		m.submitAudit(identifier, domain.AuditLoginFailed, err.Error())
		return err
	}
	if result == nil || result.Token == "" {
		return domain.ErrMissingToken
	}
	if err := m.store.Set(ctx, result.Token); err != nil {
		m.log.Warn().Err(err).Msg("credential not persisted, session will not survive restart")
	}

	profile, err := m.api.Me(ctx, result.Token)
	if err != nil {
		m.becomeAnonymous(ctx, true)
		return err
	}

	m.setAuthenticated(profile)
	m.submitAudit(profile.Email, domain.AuditLogin, "")
	return nil
}

// Register creates an account and immediately logs in with the same
// credentials. The backend assigns the default low-privilege role, which the
// subsequent login observes.
func (m *SessionManager) Register(ctx context.Context, identifier, secret string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if _, err := m.api.Register(ctx, identifier, secret); err != nil {
		return err
	}
	m.submitAudit(identifier, domain.AuditRegister, "")
	return m.login(ctx, identifier, secret)
}

// Logout clears the credential and the profile. Bearer tokens are stateless,
// so no server round-trip happens.
func (m *SessionManager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	actor := m.currentActor()
	m.becomeAnonymous(ctx, true)
	if actor != "" {
		m.submitAudit(actor, domain.AuditLogout, "")
	}
}

// RefreshMe re-resolves the profile with the stored credential. A rejected
// credential is recovered locally: the credential is cleared, the session
// becomes anonymous, and no error escapes.
func (m *SessionManager) RefreshMe(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	token, err := m.store.Get(ctx)
	if err != nil || token == "" {
		m.becomeAnonymous(ctx, true)
		return
	}
	m.resolveMe(ctx, token)
}

// resolveMe runs the "who am I" exchange and applies its outcome. Any
// failure forces the anonymous state and clears the credential; an expired
// token surfaces exactly this way.
func (m *SessionManager) resolveMe(ctx context.Context, token string) {
	profile, err := m.api.Me(ctx, token)
	if err != nil {
		m.log.Info().Err(err).Msg("session credential rejected, forcing logout")
		if actor := m.currentActor(); actor != "" {
			m.submitAudit(actor, domain.AuditSessionExpired, err.Error())
		}
		m.becomeAnonymous(ctx, true)
		return
	}
	m.setAuthenticated(profile)
}

func (m *SessionManager) setAuthenticated(profile *domain.Profile) {
	m.mu.Lock()
	m.ready = true
	m.authenticated = true
	m.user = profile
	m.roles = profile.Roles
	m.mu.Unlock()
	m.notify()
}

// becomeAnonymous rewrites the session to the resolved-anonymous state and,
// when clearCredential is set, removes the stored token.
func (m *SessionManager) becomeAnonymous(ctx context.Context, clearCredential bool) {
	if clearCredential {
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warn().Err(err).Msg("failed to clear stored credential")
		}
	}
	m.mu.Lock()
	m.ready = true
	m.authenticated = false
	m.user = nil
	m.roles = nil
	m.mu.Unlock()
	m.notify()
}

func (m *SessionManager) currentActor() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return ""
	}
	return m.user.Email
}

// Snapshot returns a copy of the current session state with permissions
// derived from the role set.
func (m *SessionManager) Snapshot() ports.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	roles := make([]string, len(m.roles))
	copy(roles, m.roles)

	var user *domain.Profile
	if m.user != nil {
		u := *m.user
		user = &u
	}
	return ports.Snapshot{
		Ready:         m.ready,
		Authenticated: m.authenticated,
		User:          user,
		Roles:         roles,
		Permissions:   domain.DerivePermissions(roles),
	}
}

// HasRole reports whether any variant of any required role is in the
// session's canonical set. An empty requirement always passes.
func (m *SessionManager) HasRole(required ...string) bool {
	m.mu.Lock()
	roles := m.roles
	m.mu.Unlock()
	return domain.HasAnyRole(roles, required...)
}

// Subscribe registers a listener invoked with a fresh snapshot after every
// state change. The returned function unsubscribes.
func (m *SessionManager) Subscribe(fn func(ports.Snapshot)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *SessionManager) notify() {
	snap := m.Snapshot()
	m.subMu.Lock()
	listeners := make([]func(ports.Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		listeners = append(listeners, fn)
	}
	m.subMu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (m *SessionManager) submitAudit(actor string, action domain.AuditAction, detail string) {
	if m.audit == nil || actor == "" {
		return
	}
	m.audit.Submit(domain.AuditEntry{
		Actor:     actor,
		Action:    action,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
