package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gorsvet/lighting-console/internal/core/domain"
	"github.com/gorsvet/lighting-console/internal/core/ports"
	"github.com/gorsvet/lighting-console/internal/infrastructure/store"
)

// stubSessionAPI scripts the backend's behavior per call.
type stubSessionAPI struct {
	mu          sync.Mutex
	loginResult *ports.LoginResult
	loginErr    error
	registerErr error
	meProfile   *domain.Profile
	meErr       error
	meCalls     int
}

func (s *stubSessionAPI) Login(_ context.Context, _, _ string) (*ports.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.loginResult, nil
}

func (s *stubSessionAPI) Register(_ context.Context, identifier, _ string) (*ports.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &ports.Account{ID: "1", Email: identifier, Roles: []string{domain.RoleUser}}, nil
}

func (s *stubSessionAPI) Me(_ context.Context, _ string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meCalls++
	if s.meErr != nil {
		return nil, s.meErr
	}
	return s.meProfile, nil
}

type auditCollector struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *auditCollector) Submit(entry domain.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *auditCollector) actions() []domain.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

func adminProfile() *domain.Profile {
	return &domain.Profile{
		ID:    "42",
		Email: "chief@gorsvet.example",
		Roles: domain.ExpandRoles([]string{"ADMIN"}, "", ""),
	}
}

func newManager(api *stubSessionAPI) (*SessionManager, *store.MemoryTokenStore, *auditCollector) {
	tokens := store.NewMemoryTokenStore()
	audit := &auditCollector{}
	m := NewSessionManager(api, tokens, audit, zerolog.Nop())
	return m, tokens, audit
}

func TestInitialize_NoCredential(t *testing.T) {
	api := &stubSessionAPI{}
	m, _, _ := newManager(api)

	m.Initialize(context.Background())

	snap := m.Snapshot()
	if !snap.Ready {
		t.Fatalf("expected ready after initialize")
	}
	if snap.Authenticated {
		t.Fatalf("expected anonymous without credential")
	}
	if api.meCalls != 0 {
		t.Fatalf("me must not be called without a credential")
	}
}

func TestInitialize_ValidCredential(t *testing.T) {
	api := &stubSessionAPI{meProfile: adminProfile()}
	m, tokens, _ := newManager(api)
	_ = tokens.Set(context.Background(), "stored-token")

	m.Initialize(context.Background())

	snap := m.Snapshot()
	if !snap.Authenticated {
		t.Fatalf("expected authenticated session")
	}
	if snap.User == nil || snap.User.Email != "chief@gorsvet.example" {
		t.Fatalf("unexpected user: %+v", snap.User)
	}
	if !snap.Permissions.IsAdmin {
		t.Fatalf("expected admin permissions")
	}
}

func TestInitialize_RejectedCredential(t *testing.T) {
	api := &stubSessionAPI{meErr: &domain.AuthError{Status: 401, Message: "expired"}}
	m, tokens, _ := newManager(api)
	_ = tokens.Set(context.Background(), "stale-token")

	m.Initialize(context.Background())

	snap := m.Snapshot()
	if !snap.Ready || snap.Authenticated {
		t.Fatalf("expected ready anonymous session, got %+v", snap)
	}
	if token, _ := tokens.Get(context.Background()); token != "" {
		t.Fatalf("rejected credential must be cleared, still have %q", token)
	}
}

func TestInitialize_RunsOnce(t *testing.T) {
	api := &stubSessionAPI{meProfile: adminProfile()}
	m, tokens, _ := newManager(api)
	_ = tokens.Set(context.Background(), "stored-token")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Initialize(context.Background())
		}()
	}
	wg.Wait()

	if api.meCalls != 1 {
		t.Fatalf("initialize must resolve exactly once, me called %d times", api.meCalls)
	}
}

func TestLogin_Success(t *testing.T) {
	api := &stubSessionAPI{
		loginResult: &ports.LoginResult{Token: "abc", TokenType: "Bearer"},
		meProfile:   adminProfile(),
	}
	m, tokens, audit := newManager(api)

	if err := m.Login(context.Background(), "chief@gorsvet.example", "s3cret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	snap := m.Snapshot()
	if !snap.Authenticated {
		t.Fatalf("expected authenticated session")
	}
	if token, _ := tokens.Get(context.Background()); token != "abc" {
		t.Fatalf("expected stored token abc, got %q", token)
	}
	if actions := audit.actions(); len(actions) != 1 || actions[0] != domain.AuditLogin {
		t.Fatalf("expected login audit entry, got %v", actions)
	}
}

func TestLogin_MissingToken(t *testing.T) {
	api := &stubSessionAPI{loginResult: &ports.LoginResult{TokenType: "Bearer"}}
	m, _, _ := newManager(api)

	err := m.Login(context.Background(), "chief@gorsvet.example", "s3cret")
	if !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if m.Snapshot().Authenticated {
		t.Fatalf("session must stay unauthenticated")
	}
}

func TestLogin_RejectionPropagates(t *testing.T) {
	api := &stubSessionAPI{loginErr: &domain.AuthError{Status: 401, Message: "bad password"}}
	m, _, audit := newManager(api)

	err := m.Login(context.Background(), "chief@gorsvet.example", "wrong")
	if err == nil {
		t.Fatalf("expected login error")
	}
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("401 AuthError should match ErrInvalidCredentials, got %v", err)
	}
	if actions := audit.actions(); len(actions) != 1 || actions[0] != domain.AuditLoginFailed {
		t.Fatalf("expected login_failed audit entry, got %v", actions)
	}
}

func TestLogin_MeFailureClearsCredential(t *testing.T) {
	api := &stubSessionAPI{
		loginResult: &ports.LoginResult{Token: "abc"},
		meErr:       errors.New("connection refused"),
	}
	m, tokens, _ := newManager(api)

	if err := m.Login(context.Background(), "chief@gorsvet.example", "s3cret"); err == nil {
		t.Fatalf("expected error when profile resolution fails")
	}
	if m.Snapshot().Authenticated {
		t.Fatalf("session must stay unauthenticated")
	}
	if token, _ := tokens.Get(context.Background()); token != "" {
		t.Fatalf("credential must be cleared after failed resolution")
	}
}

func TestRegister_LogsIn(t *testing.T) {
	api := &stubSessionAPI{
		loginResult: &ports.LoginResult{Token: "abc"},
		meProfile:   &domain.Profile{ID: "1", Email: "new@gorsvet.example", Roles: domain.ExpandRoles(nil, "USER", "")},
	}
	m, _, audit := newManager(api)

	if err := m.Register(context.Background(), "new@gorsvet.example", "s3cret99"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	snap := m.Snapshot()
	if !snap.Authenticated {
		t.Fatalf("register must end in an authenticated session")
	}
	if !snap.Permissions.IsViewerOnly {
		t.Fatalf("fresh account should be viewer-only, got %+v", snap.Permissions)
	}

	actions := audit.actions()
	if len(actions) != 2 || actions[0] != domain.AuditRegister || actions[1] != domain.AuditLogin {
		t.Fatalf("expected register then login audit entries, got %v", actions)
	}
}

func TestRegister_FailurePropagates(t *testing.T) {
	api := &stubSessionAPI{registerErr: domain.ErrUserExists}
	m, _, _ := newManager(api)

	if err := m.Register(context.Background(), "dup@gorsvet.example", "s3cret99"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if m.Snapshot().Authenticated {
		t.Fatalf("session must stay unauthenticated")
	}
}

func TestLogout(t *testing.T) {
	api := &stubSessionAPI{
		loginResult: &ports.LoginResult{Token: "abc"},
		meProfile:   adminProfile(),
	}
	m, tokens, audit := newManager(api)

	if err := m.Login(context.Background(), "chief@gorsvet.example", "s3cret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	m.Logout(context.Background())

	snap := m.Snapshot()
	if snap.Authenticated || snap.User != nil {
		t.Fatalf("expected anonymous session after logout, got %+v", snap)
	}
	if token, _ := tokens.Get(context.Background()); token != "" {
		t.Fatalf("credential must be gone after logout")
	}

	actions := audit.actions()
	if actions[len(actions)-1] != domain.AuditLogout {
		t.Fatalf("expected logout audit entry, got %v", actions)
	}
}

func TestRefreshMe_RejectedForcesLogout(t *testing.T) {
	api := &stubSessionAPI{
		loginResult: &ports.LoginResult{Token: "abc"},
		meProfile:   adminProfile(),
	}
	m, tokens, _ := newManager(api)

	if err := m.Login(context.Background(), "chief@gorsvet.example", "s3cret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// The backend starts rejecting the token.
	api.mu.Lock()
	api.meErr = &domain.AuthError{Status: 401, Message: "token expired"}
	api.mu.Unlock()

	m.RefreshMe(context.Background())

	snap := m.Snapshot()
	if snap.Authenticated {
		t.Fatalf("expected forced logout after rejected refresh")
	}
	if token, _ := tokens.Get(context.Background()); token != "" {
		t.Fatalf("credential must be cleared after rejected refresh")
	}
}

func TestRefreshMe_KeepsFreshRoles(t *testing.T) {
	api := &stubSessionAPI{
		loginResult: &ports.LoginResult{Token: "abc"},
		meProfile:   adminProfile(),
	}
	m, _, _ := newManager(api)

	if err := m.Login(context.Background(), "chief@gorsvet.example", "s3cret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// An administrator promoted the operator; the next refresh observes it.
	api.mu.Lock()
	api.meProfile = &domain.Profile{
		ID:    "42",
		Email: "chief@gorsvet.example",
		Roles: domain.ExpandRoles([]string{"SUPER_ADMIN"}, "", ""),
	}
	api.mu.Unlock()

	m.RefreshMe(context.Background())

	if !m.HasRole("SUPER_ADMIN") {
		t.Fatalf("refresh must pick up new roles")
	}
}

func TestHasRole_Variants(t *testing.T) {
	api := &stubSessionAPI{
		loginResult: &ports.LoginResult{Token: "abc"},
		meProfile:   adminProfile(),
	}
	m, _, _ := newManager(api)

	if err := m.Login(context.Background(), "chief@gorsvet.example", "s3cret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if !m.HasRole("ROLE_ADMIN") {
		t.Fatalf("prefixed variant must match")
	}
	if !m.HasRole("admin") {
		t.Fatalf("lower-case requirement must match")
	}
	if m.HasRole("SUPER_ADMIN") {
		t.Fatalf("absent role must not match")
	}
	if !m.HasRole() {
		t.Fatalf("empty requirement must pass")
	}
}

func TestSubscribe(t *testing.T) {
	api := &stubSessionAPI{
		loginResult: &ports.LoginResult{Token: "abc"},
		meProfile:   adminProfile(),
	}
	m, _, _ := newManager(api)

	var got []bool
	unsubscribe := m.Subscribe(func(snap ports.Snapshot) {
		got = append(got, snap.Authenticated)
	})

	if err := m.Login(context.Background(), "chief@gorsvet.example", "s3cret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	m.Logout(context.Background())

	if len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("expected [authenticated, anonymous] notifications, got %v", got)
	}

	unsubscribe()
	m.RefreshMe(context.Background())
	if len(got) != 2 {
		t.Fatalf("unsubscribed listener must not fire, got %d notifications", len(got))
	}
}
