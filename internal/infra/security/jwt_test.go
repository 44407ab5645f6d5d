package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
)

func newTestTokenService(t *testing.T, now *time.Time) *TokenService {
	t.Helper()

	svc, err := NewTokenService(TokenSettings{
		Secret:   "test-secret-value",
		Issuer:   "focusmate-app",
		Audience: "focusmate-users",
	}, WithTokenClock(func() time.Time { return *now }))
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(TokenSettings{Issuer: "iss", Audience: "aud"})
	if !errors.Is(err, ErrSigningKeyMissing) {
		t.Fatalf("expected ErrSigningKeyMissing, got %v", err)
	}
}

func TestIssueAccessTokenLifetimes(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)
	identity := domain.Identity{UserID: "user-1", Handle: "alice"}

	standard, err := svc.IssueAccessToken(identity, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if standard.TTL() != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %s", standard.TTL())
	}

	remembered, err := svc.IssueAccessToken(identity, true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if remembered.TTL() != 30*24*time.Hour {
		t.Fatalf("expected 30d ttl, got %s", remembered.TTL())
	}

	refresh, err := svc.IssueRefreshToken(identity)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if refresh.TTL() != 7*24*time.Hour {
		t.Fatalf("expected 7d ttl, got %s", refresh.TTL())
	}
	if standard.ID == remembered.ID || remembered.ID == refresh.ID {
		t.Fatal("expected unique token identifiers")
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	issued, err := svc.IssueAccessToken(domain.Identity{UserID: "user-1", Handle: "alice"}, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(issued.Value)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Handle != "alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Type != domain.TokenTypeAccess {
		t.Fatalf("expected access type, got %s", claims.Type)
	}
	if claims.Issuer != "focusmate-app" || len(claims.Audience) != 1 || claims.Audience[0] != "focusmate-users" {
		t.Fatalf("unexpected issuer/audience %+v", claims)
	}
	if claims.ID != issued.ID {
		t.Fatalf("expected jti %s, got %s", issued.ID, claims.ID)
	}
	if !claims.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Fatalf("expected exp %s, got %s", issued.ExpiresAt, claims.ExpiresAt)
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	issued, err := svc.IssueAccessToken(domain.Identity{UserID: "user-1"}, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(25 * time.Hour)
	_, err = svc.Verify(issued.Value)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, &now)

	for _, raw := range []string{"", "garbage", "a.b"} {
		if _, err := svc.Verify(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", raw, err)
		}
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, &now)

	issued, err := svc.IssueAccessToken(domain.Identity{UserID: "user-1"}, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(issued.Value, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := svc.Verify(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsForeignSecretAndAudience(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, &now)

	other, err := NewTokenService(TokenSettings{Secret: "another-secret", Issuer: "focusmate-app", Audience: "focusmate-users"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	foreign, err := other.IssueAccessToken(domain.Identity{UserID: "user-1"}, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(foreign.Value); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign secret, got %v", err)
	}

	wrongAudience, err := NewTokenService(TokenSettings{Secret: "test-secret-value", Issuer: "focusmate-app", Audience: "admins"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	token, err := wrongAudience.IssueAccessToken(domain.Identity{UserID: "user-1"}, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(token.Value); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for audience mismatch, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, &now)

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "focusmate-app",
		Audience:  jwt.ClaimStrings{"focusmate-users"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-value"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyChecksTokenType(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t, &now)
	identity := domain.Identity{UserID: "user-1"}

	refresh, err := svc.IssueRefreshToken(identity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(refresh.Value); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token must not pass as access token, got %v", err)
	}
	if _, err := svc.VerifyRefresh(refresh.Value); err != nil {
		t.Fatalf("verify refresh: %v", err)
	}

	access, err := svc.IssueAccessToken(identity, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.VerifyRefresh(access.Value); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token must not pass as refresh token, got %v", err)
	}
}
