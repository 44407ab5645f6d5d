package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
)

// LoginAttemptRepository appends login attempts to the audit table.
type LoginAttemptRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewLoginAttemptRepository constructs the audit repository.
func NewLoginAttemptRepository(exec pgExecutor) *LoginAttemptRepository {
	return &LoginAttemptRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// RecordLoginAttempt inserts one audit row.
func (r *LoginAttemptRepository) RecordLoginAttempt(ctx context.Context, attempt domain.LoginAttempt) error {
	id := attempt.ID
	if id == "" {
		id = uuid.NewString()
	}

	stmt, args, err := r.builder.Insert("auth.login_attempts").
		Columns("id", "user_id", "email", "outcome", "ip_address", "client_label", "attempts_remaining", "occurred_at").
		Values(id, attempt.UserID, attempt.Email, string(attempt.Outcome), attempt.IP, attempt.ClientLabel, attempt.AttemptsRemaining, attempt.OccurredAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert login attempt sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert login attempt: %w", err)
	}
	return nil
}

var _ port.AuditSink = (*LoginAttemptRepository)(nil)
