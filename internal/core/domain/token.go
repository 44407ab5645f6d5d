package domain

import "time"

// TokenType discriminates access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// IssuedToken is a signed token together with its lifetime.
type IssuedToken struct {
	Value     string
	Type      TokenType
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL returns the token lifetime.
func (t IssuedToken) TTL() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}

// TokenClaims is the verified content of a token.
type TokenClaims struct {
	Subject   string
	Handle    string
	Type      TokenType
	ID        string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
