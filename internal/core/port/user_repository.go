package port

import (
	"context"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
)

// UserRepository exposes persistence behavior for credential records.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Insert(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
}
