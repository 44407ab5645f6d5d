package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/config"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/logger"
	"github.com/Aro-geo/focusmate-app-sub002/internal/repository"
	"github.com/Aro-geo/focusmate-app-sub002/internal/validation"
)

// Rate limit scopes; the limiter key is "<scope>:<client ip>".
const (
	ScopeLogin    = "login"
	ScopeRegister = "register"
	ScopeRefresh  = "refresh"
)

const (
	defaultTimezone     = "UTC"
	defaultAuditTimeout = 2 * time.Second
	// Verified against when the email is unknown so both paths cost one hash comparison.
	timingDummyPassword = "focusmate-timing-dummy-password"
)

// ClientInfo describes where a request came from.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// RegisterInput is the raw registration request.
type RegisterInput struct {
	Email        string
	Password     string
	Username     string
	FullName     string
	Timezone     string
	AgreeToTerms bool
	Client       ClientInfo
}

// LoginInput is the raw login request.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
	Client     ClientInfo
}

// RefreshInput carries a refresh token to exchange.
type RefreshInput struct {
	RefreshToken string
	Client       ClientInfo
}

// AuthResult is returned by every flow that issues tokens.
type AuthResult struct {
	User         domain.User
	AccessToken  domain.IssuedToken
	RefreshToken domain.IssuedToken
	Session      domain.Session
	// Reactivated is set when registration revived a deactivated account.
	Reactivated bool
}

// ExpiresIn is the access token lifetime.
func (r *AuthResult) ExpiresIn() time.Duration {
	return r.AccessToken.TTL()
}

// AuthDependencies groups the collaborators of AuthService.
type AuthDependencies struct {
	Users    port.UserRepository
	Sessions *SessionManager
	Guard    *AccountGuard
	Hasher   port.PasswordHasher
	Tokens   port.TokenIssuer
	Limiter  port.RateLimiter
	Domains  *validation.DomainPolicy
	Events   port.EventPublisher
	Audit    port.AuditSink
	Metrics  port.AuthMetrics
	Logger   *zap.Logger
}

// AuthService coordinates registration, login and session flows.
type AuthService struct {
	cfg      *config.AppConfig
	users    port.UserRepository
	sessions *SessionManager
	guard    *AccountGuard
	hasher   port.PasswordHasher
	tokens   port.TokenIssuer
	limiter  port.RateLimiter
	domains  *validation.DomainPolicy
	events   port.EventPublisher
	audit    port.AuditSink
	metrics  port.AuthMetrics
	logger   *zap.Logger
	now      func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(cfg *config.AppConfig, deps AuthDependencies) (*AuthService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	switch {
	case deps.Users == nil:
		return nil, fmt.Errorf("user repository is required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("session manager is required")
	case deps.Guard == nil:
		return nil, fmt.Errorf("account guard is required")
	case deps.Hasher == nil:
		return nil, fmt.Errorf("password hasher is required")
	case deps.Tokens == nil:
		return nil, fmt.Errorf("token issuer is required")
	case deps.Limiter == nil:
		return nil, fmt.Errorf("rate limiter is required")
	}

	if deps.Domains == nil {
		deps.Domains = validation.NewDomainPolicy()
	}
	if deps.Metrics == nil {
		deps.Metrics = port.NopAuthMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &AuthService{
		cfg:      cfg,
		users:    deps.Users,
		sessions: deps.Sessions,
		guard:    deps.Guard,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		limiter:  deps.Limiter,
		domains:  deps.Domains,
		events:   deps.Events,
		audit:    deps.Audit,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register creates an account, or reactivates a deactivated one, and signs the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	res := validation.Validate(validation.Input{
		validation.FieldEmail:        in.Email,
		validation.FieldPassword:     in.Password,
		validation.FieldUsername:     in.Username,
		validation.FieldFullName:     in.FullName,
		validation.FieldTimezone:     in.Timezone,
		validation.FieldAgreeToTerms: strconv.FormatBool(in.AgreeToTerms),
	}, validation.RegisterSchema(s.cfg.Security.MinPasswordScore))
	if !res.Valid {
		return nil, &ValidationError{Fields: res.Errors}
	}

	email := res.Normalized[validation.FieldEmail]
	if err := s.domains.Check(email); err != nil {
		return nil, err
	}

	if err := s.enforceLimit(ctx, ScopeRegister, in.Client.IP, s.cfg.RateLimit.RegisterMaxAttempts); err != nil {
		return nil, err
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsActive {
		return nil, ErrAccountExists
	}

	username := res.Normalized[validation.FieldUsername]
	if username != "" {
		owner, err := s.users.FindByUsername(ctx, username)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return nil, storeError("find user by username", err)
		case existing == nil || owner.ID != existing.ID:
			return nil, ErrUsernameTaken
		}
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	var (
		user        domain.User
		reactivated bool
	)
	if existing != nil {
		user = s.reactivate(*existing, hash, res.Normalized, now)
		if err := s.users.Update(ctx, user); err != nil {
			return nil, storeError("reactivate user", err)
		}
		reactivated = true
		s.logger.Info("deactivated account reactivated by registration",
			zap.String("user_id", user.ID),
			zap.String("email", logger.MaskEmail(email)),
		)
	} else {
		user = domain.User{
			ID:           uuid.NewString(),
			Email:        email,
			Username:     optionalString(username),
			FullName:     res.Normalized[validation.FieldFullName],
			Timezone:     res.Normalized[validation.FieldTimezone],
			PasswordHash: hash,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if user.Timezone == "" {
			user.Timezone = defaultTimezone
		}
		if err := s.users.Insert(ctx, user); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrAccountExists
			}
			return nil, storeError("insert user", err)
		}
	}

	s.metrics.UserRegistered(reactivated)
	s.publishRegistered(ctx, user, reactivated, in.Client)

	result, err := s.issueSession(ctx, user, false, in.Client)
	if err != nil {
		return nil, err
	}
	result.Reactivated = reactivated
	return result, nil
}

func (s *AuthService) reactivate(user domain.User, hash string, fields map[string]string, now time.Time) domain.User {
	user.PasswordHash = hash
	user.IsActive = true
	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.UpdatedAt = now
	if v := fields[validation.FieldUsername]; v != "" {
		user.Username = &v
	}
	if v := fields[validation.FieldFullName]; v != "" {
		user.FullName = v
	}
	if v := fields[validation.FieldTimezone]; v != "" {
		user.Timezone = v
	}
	return user
}

// Login verifies credentials under rate limiting and lockout and issues tokens.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	res := validation.Validate(validation.Input{
		validation.FieldEmail:    in.Email,
		validation.FieldPassword: in.Password,
	}, validation.LoginSchema())
	if !res.Valid {
		return nil, &ValidationError{Fields: res.Errors}
	}
	email := res.Normalized[validation.FieldEmail]

	if err := s.enforceLimit(ctx, ScopeLogin, in.Client.IP, s.cfg.RateLimit.LoginMaxAttempts); err != nil {
		return nil, err
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify(ctx, in.Password, s.timingHash(ctx))
		attempt := s.newAttempt(nil, email, domain.LoginInvalidCredentials, in.Client)
		attempt.AttemptsRemaining = s.guard.Threshold()
		s.recordAttempt(ctx, attempt)
		return nil, &InvalidCredentialsError{AttemptsRemaining: s.guard.Threshold()}
	}

	if err := s.guard.Admit(*user); err != nil {
		outcome := domain.LoginDeactivated
		if !errors.Is(err, ErrAccountDeactivated) {
			outcome = domain.LoginLocked
		}
		s.recordAttempt(ctx, s.newAttempt(&user.ID, email, outcome, in.Client))
		return nil, err
	}

	if !s.hasher.Verify(ctx, in.Password, user.PasswordHash) {
		failure := s.guard.RecordFailure(ctx, user)

		attempt := s.newAttempt(&user.ID, email, domain.LoginInvalidCredentials, in.Client)
		var invalid *InvalidCredentialsError
		var locked *AccountLockedError
		switch {
		case errors.As(failure, &invalid):
			attempt.AttemptsRemaining = invalid.AttemptsRemaining
		case errors.As(failure, &locked):
			attempt.Outcome = domain.LoginLocked
			s.metrics.AccountLocked()
			s.logger.Warn("account locked after repeated failures",
				zap.String("user_id", user.ID),
				zap.Time("locked_until", locked.Until),
			)
		}
		s.recordAttempt(ctx, attempt)
		return nil, failure
	}

	if err := s.guard.RecordSuccess(ctx, user); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, s.newAttempt(&user.ID, email, domain.LoginSucceeded, in.Client))

	return s.issueSession(ctx, *user, in.RememberMe, in.Client)
}

// Refresh exchanges a refresh token for a new token pair and rotates its session.
func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (*AuthResult, error) {
	if err := s.enforceLimit(ctx, ScopeRefresh, in.Client.IP, s.cfg.RateLimit.RefreshMaxAttempts); err != nil {
		return nil, err
	}

	claims, err := s.tokens.VerifyRefresh(in.RefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Resolve(ctx, in.RefreshToken)
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.Subject {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, storeError("find user by id", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	identity := domain.IdentityOf(*user)
	access, err := s.tokens.IssueAccessToken(identity, false)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(identity)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	next, err := s.sessions.Rotate(ctx, *session, refresh.Value, refresh.TTL(), sessionMetadata(in.Client))
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user.Sanitized(),
		AccessToken:  access,
		RefreshToken: refresh,
		Session:      next,
	}, nil
}

// Logout revokes the session behind refreshToken. Unknown or expired tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessions.Resolve(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return nil
		}
		return err
	}
	return s.sessions.Revoke(ctx, *session, domain.RevokeReasonLogout)
}

// ListSessions returns the caller's live sessions.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.sessions.ListActive(ctx, userID)
}

// RevokeSession deletes one of the caller's sessions.
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	sessions, err := s.sessions.ListActive(ctx, userID)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if session.ID == sessionID {
			return s.sessions.Revoke(ctx, session, domain.RevokeReasonManual)
		}
	}
	return ErrSessionNotFound
}

// VerifyAccessToken validates an access token for request authentication.
func (s *AuthService) VerifyAccessToken(token string) (*domain.TokenClaims, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) issueSession(ctx context.Context, user domain.User, rememberMe bool, client ClientInfo) (*AuthResult, error) {
	identity := domain.IdentityOf(user)

	access, err := s.tokens.IssueAccessToken(identity, rememberMe)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(identity)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	session, err := s.sessions.CreateSession(ctx, user.ID, refresh.Value, refresh.TTL(), sessionMetadata(client))
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user.Sanitized(),
		AccessToken:  access,
		RefreshToken: refresh,
		Session:      session,
	}, nil
}

func (s *AuthService) enforceLimit(ctx context.Context, scope, ip string, maxAttempts int) error {
	if maxAttempts <= 0 {
		return nil
	}
	if strings.TrimSpace(ip) == "" {
		ip = "unknown"
	}

	result, err := s.limiter.Check(ctx, scope+":"+ip, maxAttempts, s.cfg.RateLimit.WindowDuration)
	if err != nil {
		// Fails open when the backend is unreachable.
		s.logger.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
		return nil
	}
	if result.Allowed {
		return nil
	}

	s.metrics.RateLimited(scope)
	return &RateLimitExceededError{Scope: scope, RetryAfter: result.RetryAfter(s.now())}
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, storeError("find user by email", err)
	}
	return user, nil
}

// timingHash returns the hash verified against for unknown emails. It is computed
// detached from the caller's cancellation and retried until one attempt succeeds.
func (s *AuthService) timingHash(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash != "" {
		return s.dummyHash
	}
	hash, err := s.hasher.Hash(context.WithoutCancel(ctx), timingDummyPassword)
	if err != nil {
		s.logger.Warn("prepare timing hash failed", zap.Error(err))
		return ""
	}
	s.dummyHash = hash
	return hash
}

func (s *AuthService) newAttempt(userID *string, email string, outcome domain.LoginOutcome, client ClientInfo) domain.LoginAttempt {
	return domain.LoginAttempt{
		ID:          uuid.NewString(),
		UserID:      userID,
		Email:       email,
		Outcome:     outcome,
		IP:          client.IP,
		ClientLabel: client.UserAgent,
		OccurredAt:  s.now(),
	}
}

// recordAttempt writes the audit event before the response is produced. Failures are logged only.
func (s *AuthService) recordAttempt(ctx context.Context, attempt domain.LoginAttempt) {
	s.metrics.LoginAttempt(string(attempt.Outcome))
	if s.audit == nil {
		return
	}

	timeout := s.cfg.Lockout.AuditTimeout
	if timeout <= 0 {
		timeout = defaultAuditTimeout
	}
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := s.audit.RecordLoginAttempt(auditCtx, attempt); err != nil {
		s.logger.Warn("record login attempt failed",
			zap.String("outcome", string(attempt.Outcome)),
			zap.String("email", logger.MaskEmail(attempt.Email)),
			zap.String("ip", logger.MaskIP(attempt.IP)),
			zap.Error(err),
		)
	}
}

func (s *AuthService) publishRegistered(ctx context.Context, user domain.User, reactivated bool, client ClientInfo) {
	if s.events == nil {
		return
	}
	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		Username:     user.Username,
		Reactivated:  reactivated,
		RegisteredAt: user.UpdatedAt,
		IP:           client.IP,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user registered failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func sessionMetadata(client ClientInfo) domain.SessionMetadata {
	return domain.SessionMetadata{IP: client.IP, UserAgent: client.UserAgent}
}
