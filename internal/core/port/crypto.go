package port

import (
	"context"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
)

// PasswordHasher hashes and verifies secrets using the configured algorithm.
// Verify reports a mismatch for malformed hashes instead of failing.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password string, encoded string) bool
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssueAccessToken(identity domain.Identity, rememberMe bool) (domain.IssuedToken, error)
	IssueRefreshToken(identity domain.Identity) (domain.IssuedToken, error)
	Verify(token string) (*domain.TokenClaims, error)
	VerifyRefresh(token string) (*domain.TokenClaims, error)
}
