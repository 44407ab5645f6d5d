package port

import (
	"context"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
)

// SessionRepository deals with refresh session storage.
type SessionRepository interface {
	Insert(ctx context.Context, session domain.Session) error
	// ListByUser returns every stored session for the user, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
}
