package ports

import (
	"context"

	"github.com/gorsvet/lighting-console/internal/core/domain"
)

// UserRepository persists accounts for the built-in identity provider and
// the user administration screens.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateRoles(ctx context.Context, id string, roles []string) (*domain.User, error)
}
