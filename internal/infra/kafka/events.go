package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/config"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/logger"
)

const schemaVersion = "1.0"

// Event types, before the topic prefix is applied.
const (
	EventUserRegistered = "auth.user.registered"
	EventSessionRevoked = "auth.session.revoked"
	EventLoginAttempt   = "auth.login.attempted"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	body, err := json.Marshal(eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(body),
	}
	// Keyed by user so one user's events stay ordered within a partition.
	if userID != "" {
		message.Key = sarama.StringEncoder(userID)
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes auth.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Email        string    `json:"email"`
		Username     *string   `json:"username,omitempty"`
		Reactivated  bool      `json:"reactivated"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Email:        event.Email,
		Username:     event.Username,
		Reactivated:  event.Reactivated,
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventUserRegistered, event.UserID, event.RegisteredAt, payload)
}

// PublishSessionRevoked publishes auth.session.revoked events.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	payload := struct {
		SessionID string    `json:"session_id"`
		UserID    string    `json:"user_id"`
		Reason    string    `json:"reason"`
		RevokedAt time.Time `json:"revoked_at"`
	}{
		SessionID: event.SessionID,
		UserID:    event.UserID,
		Reason:    event.Reason,
		RevokedAt: event.RevokedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventSessionRevoked, event.UserID, event.RevokedAt, payload)
}

// PublishLoginAttempt publishes auth.login.attempted events. Email and IP are masked.
func (p *EventPublisher) PublishLoginAttempt(ctx context.Context, attempt domain.LoginAttempt) error {
	userID := ""
	if attempt.UserID != nil {
		userID = *attempt.UserID
	}

	payload := struct {
		UserID            string    `json:"user_id,omitempty"`
		Email             string    `json:"email"`
		Outcome           string    `json:"outcome"`
		IP                string    `json:"ip,omitempty"`
		ClientLabel       string    `json:"client_label,omitempty"`
		AttemptsRemaining int       `json:"attempts_remaining"`
		OccurredAt        time.Time `json:"occurred_at"`
	}{
		UserID:            userID,
		Email:             logger.MaskEmail(attempt.Email),
		Outcome:           string(attempt.Outcome),
		IP:                logger.MaskIP(attempt.IP),
		ClientLabel:       attempt.ClientLabel,
		AttemptsRemaining: attempt.AttemptsRemaining,
		OccurredAt:        attempt.OccurredAt.UTC(),
	}

	return p.publish(ctx, attempt.ID, EventLoginAttempt, userID, attempt.OccurredAt, payload)
}

// RecordLoginAttempt lets the publisher act as an audit sink.
func (p *EventPublisher) RecordLoginAttempt(ctx context.Context, attempt domain.LoginAttempt) error {
	return p.PublishLoginAttempt(ctx, attempt)
}

var (
	_ port.EventPublisher = (*EventPublisher)(nil)
	_ port.AuditSink      = (*EventPublisher)(nil)
)
