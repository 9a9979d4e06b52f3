package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gorsvet/lighting-console/internal/core/domain"
)

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	clone := *user
	clone.ID = strconv.Itoa(r.nextID)
	r.users[clone.Email] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) UpdateRoles(_ context.Context, id string, roles []string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			u.Roles = roles
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubLimiter struct {
	failures map[string]int
	maxFails int
}

func newStubLimiter(maxFails int) *stubLimiter {
	return &stubLimiter{failures: make(map[string]int), maxFails: maxFails}
}

func (l *stubLimiter) Locked(_ context.Context, identifier string) (bool, error) {
	return l.failures[identifier] >= l.maxFails, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, identifier string) error {
	l.failures[identifier]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, identifier string) error {
	delete(l.failures, identifier)
	return nil
}

func TestIdentity_RegisterAssignsDefaultRole(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, "secret", time.Hour)

	account, err := svc.Register(context.Background(), "New@Gorsvet.Example", "longenough")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if account.Email != "new@gorsvet.example" {
		t.Fatalf("identifier must be lower-cased, got %q", account.Email)
	}
	if len(account.Roles) != 1 || account.Roles[0] != domain.RoleUser {
		t.Fatalf("expected default USER role, got %v", account.Roles)
	}

	stored := repo.users["new@gorsvet.example"]
	if stored.PasswordHash == "longenough" {
		t.Fatalf("password must be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("longenough")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestIdentity_LoginMeRoundtrip(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, "secret", time.Hour)

	if _, err := svc.Register(context.Background(), "chief@gorsvet.example", "longenough"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := svc.Login(context.Background(), "chief@gorsvet.example", "longenough")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Token == "" || result.TokenType != "Bearer" {
		t.Fatalf("unexpected login result: %+v", result)
	}

	profile, err := svc.Me(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if profile.Email != "chief@gorsvet.example" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if !domain.HasAnyRole(profile.Roles, "ROLE_USER") {
		t.Fatalf("profile roles must be variant-expanded, got %v", profile.Roles)
	}
}

func TestIdentity_MeObservesRoleChanges(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, "secret", time.Hour)

	account, _ := svc.Register(context.Background(), "chief@gorsvet.example", "longenough")
	result, err := svc.Login(context.Background(), "chief@gorsvet.example", "longenough")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Roles changed after the token was issued; me must see the store.
	if _, err := repo.UpdateRoles(context.Background(), account.ID, []string{domain.RoleAdmin}); err != nil {
		t.Fatalf("update roles: %v", err)
	}

	profile, err := svc.Me(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if !domain.HasAnyRole(profile.Roles, domain.RoleAdmin) {
		t.Fatalf("me must observe updated roles, got %v", profile.Roles)
	}
}

func TestIdentity_LoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, "secret", time.Hour)

	_, _ = svc.Register(context.Background(), "chief@gorsvet.example", "longenough")
	if _, err := svc.Login(context.Background(), "chief@gorsvet.example", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIdentity_UnknownUserIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, "secret", time.Hour)

	// Unknown accounts answer like wrong passwords to avoid enumeration.
	if _, err := svc.Login(context.Background(), "ghost@gorsvet.example", "whatever"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIdentity_Lockout(t *testing.T) {
	repo := newStubUserRepo()
	limiter := newStubLimiter(2)
	svc := NewIdentityService(repo, limiter, "secret", time.Hour)

	_, _ = svc.Register(context.Background(), "chief@gorsvet.example", "longenough")

	for i := 0; i < 2; i++ {
		if _, err := svc.Login(context.Background(), "chief@gorsvet.example", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	// Budget exhausted: even the correct password is refused.
	if _, err := svc.Login(context.Background(), "chief@gorsvet.example", "longenough"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	// After a reset (window expiry) the correct password works and clears
	// the counter.
	_ = limiter.Reset(context.Background(), "chief@gorsvet.example")
	if _, err := svc.Login(context.Background(), "chief@gorsvet.example", "longenough"); err != nil {
		t.Fatalf("login after reset failed: %v", err)
	}
}

func TestIdentity_MeRejectsBadToken(t *testing.T) {
	svc := NewIdentityService(newStubUserRepo(), nil, "secret", time.Hour)

	if _, err := svc.Me(context.Background(), ""); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for empty token, got %v", err)
	}
	if _, err := svc.Me(context.Background(), "not-a-jwt"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for garbage token, got %v", err)
	}

	other := NewIdentityService(newStubUserRepo(), nil, "other-secret", time.Hour)
	if _, err := other.Register(context.Background(), "chief@gorsvet.example", "longenough"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	result, err := other.Login(context.Background(), "chief@gorsvet.example", "longenough")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := svc.Me(context.Background(), result.Token); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for foreign signature, got %v", err)
	}
}
