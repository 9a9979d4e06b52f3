package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/gorsvet/lighting-console/internal/core/domain"
	"github.com/gorsvet/lighting-console/internal/core/ports"
)

// IdentityService is the built-in identity provider: it implements the same
// backend contract the upstream client consumes, so the console runs
// self-contained when no upstream is configured. Tokens are HS256 JWTs.
type IdentityService struct {
	repo      ports.UserRepository
	limiter   ports.LoginLimiter
	jwtSecret string
	tokenTTL  time.Duration
}

// NewIdentityService creates the provider. limiter may be nil to disable
// failed-login lockout.
func NewIdentityService(repo ports.UserRepository, limiter ports.LoginLimiter, jwtSecret string, tokenTTL time.Duration) *IdentityService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &IdentityService{repo: repo, limiter: limiter, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Login verifies the credentials and issues a bearer token.
func (s *IdentityService) Login(ctx context.Context, identifier, secret string) (*ports.LoginResult, error) {
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		locked, err := s.limiter.Locked(ctx, identifier)
		if err == nil && locked {
			return nil, domain.ErrAccountLocked
		}
	}

	user, err := s.repo.FindByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)) != nil {
		if s.limiter != nil {
			_ = s.limiter.RecordFailure(ctx, identifier)
		}
		return nil, domain.ErrInvalidCredentials
	}
	if s.limiter != nil {
		_ = s.limiter.Reset(ctx, identifier)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: token, TokenType: "Bearer"}, nil
}

// Register creates an account with the default low-privilege role. It never
// authenticates the caller; login is a separate step.
func (s *IdentityService) Register(ctx context.Context, identifier, secret string) (*ports.Account, error) {
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        identifier,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return &ports.Account{ID: created.ID, Email: created.Email, Roles: created.Roles}, nil
}

// Me resolves the profile for a bearer token. Roles come from the store, not
// the token, so role changes are observed on the next resolution.
func (s *IdentityService) Me(ctx context.Context, token string) (*domain.Profile, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrNotAuthenticated
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrNotAuthenticated
	}

	user, err := s.repo.FindByID(ctx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, err
	}
	return user.Profile(), nil
}

func (s *IdentityService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"roles": user.Roles,
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
