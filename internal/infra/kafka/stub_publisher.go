package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a log-only event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	p.logger.Debug("stub event published", append([]zap.Field{
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
	}, fields...)...)
}

// PublishUserRegistered logs auth.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.logEvent(EventUserRegistered, event.UserID, event.RegisteredAt,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.Bool("reactivated", event.Reactivated),
	)
	return nil
}

// PublishSessionRevoked logs auth.session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.logEvent(EventSessionRevoked, event.UserID, event.RevokedAt,
		zap.String("session_id", event.SessionID),
		zap.String("reason", event.Reason),
	)
	return nil
}

// PublishLoginAttempt logs auth.login.attempted events.
func (p *StubPublisher) PublishLoginAttempt(_ context.Context, attempt domain.LoginAttempt) error {
	userID := ""
	if attempt.UserID != nil {
		userID = *attempt.UserID
	}
	p.logEvent(EventLoginAttempt, userID, attempt.OccurredAt,
		zap.String("outcome", string(attempt.Outcome)),
		zap.String("email", logger.MaskEmail(attempt.Email)),
		zap.String("ip", logger.MaskIP(attempt.IP)),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
