package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
)

// Default token lifetimes.
const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRememberMeTTL   = 30 * 24 * time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// ErrSigningKeyMissing is returned when the service is built without a secret.
var ErrSigningKeyMissing = errors.New("jwt: signing secret is not configured")

// Verification failures. Returned errors wrap exactly one of these.
var (
	ErrTokenExpired   = errors.New("jwt: token expired")
	ErrTokenMalformed = errors.New("jwt: token malformed")
	ErrTokenInvalid   = errors.New("jwt: token invalid")
)

// TokenSettings configures signing and lifetimes.
type TokenSettings struct {
	Secret        string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RememberMeTTL time.Duration
	RefreshTTL    time.Duration
}

type tokenClaims struct {
	Handle string           `json:"handle"`
	Type   domain.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens.
type TokenService struct {
	secret   []byte
	settings TokenSettings
	now      func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithTokenClock overrides the clock used for issuing and validating tokens.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService validates settings and returns a ready service.
func NewTokenService(settings TokenSettings, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(settings.Secret) == "" {
		return nil, ErrSigningKeyMissing
	}
	if strings.TrimSpace(settings.Issuer) == "" {
		return nil, fmt.Errorf("jwt: issuer is required")
	}
	if strings.TrimSpace(settings.Audience) == "" {
		return nil, fmt.Errorf("jwt: audience is required")
	}
	if settings.AccessTTL <= 0 {
		settings.AccessTTL = DefaultAccessTokenTTL
	}
	if settings.RememberMeTTL <= 0 {
		settings.RememberMeTTL = DefaultRememberMeTTL
	}
	if settings.RefreshTTL <= 0 {
		settings.RefreshTTL = DefaultRefreshTokenTTL
	}

	svc := &TokenService{
		secret:   []byte(settings.Secret),
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// IssueAccessToken signs an access token. rememberMe selects the extended lifetime.
func (s *TokenService) IssueAccessToken(identity domain.Identity, rememberMe bool) (domain.IssuedToken, error) {
	ttl := s.settings.AccessTTL
	if rememberMe {
		ttl = s.settings.RememberMeTTL
	}
	return s.issue(identity, domain.TokenTypeAccess, ttl)
}

// IssueRefreshToken signs a refresh token.
func (s *TokenService) IssueRefreshToken(identity domain.Identity) (domain.IssuedToken, error) {
	return s.issue(identity, domain.TokenTypeRefresh, s.settings.RefreshTTL)
}

func (s *TokenService) issue(identity domain.Identity, typ domain.TokenType, ttl time.Duration) (domain.IssuedToken, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return domain.IssuedToken{}, fmt.Errorf("jwt: user id is required")
	}

	// Whole seconds, matching the NumericDate precision written into the token.
	now := s.now().UTC().Truncate(time.Second)
	expires := now.Add(ttl)
	jti := uuid.NewString()

	claims := tokenClaims{
		Handle: identity.Handle,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    s.settings.Issuer,
			Audience:  jwt.ClaimStrings{s.settings.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("jwt: sign token: %w", err)
	}

	return domain.IssuedToken{
		Value:     signed,
		Type:      typ,
		ID:        jti,
		IssuedAt:  now,
		ExpiresAt: expires,
	}, nil
}

// Verify validates an access token.
func (s *TokenService) Verify(token string) (*domain.TokenClaims, error) {
	return s.verify(token, domain.TokenTypeAccess)
}

// VerifyRefresh validates a refresh token.
func (s *TokenService) VerifyRefresh(token string) (*domain.TokenClaims, error) {
	return s.verify(token, domain.TokenTypeRefresh)
}

func (s *TokenService) verify(raw string, want domain.TokenType) (*domain.TokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenMalformed)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.settings.Issuer),
		jwt.WithAudience(s.settings.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var claims tokenClaims
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return nil, classifyParseError(err)
	}

	if claims.Type != want {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, want, claims.Type)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	out := &domain.TokenClaims{
		Subject:  claims.Subject,
		Handle:   claims.Handle,
		Type:     claims.Type,
		ID:       claims.ID,
		Issuer:   claims.Issuer,
		Audience: []string(claims.Audience),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
}
