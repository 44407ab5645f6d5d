package port

import (
	"context"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
	PublishLoginAttempt(ctx context.Context, attempt domain.LoginAttempt) error
}

// AuditSink stores login attempts for later inspection.
type AuditSink interface {
	RecordLoginAttempt(ctx context.Context, attempt domain.LoginAttempt) error
}
