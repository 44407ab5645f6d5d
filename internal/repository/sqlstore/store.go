package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/repository"
)

// Repositories groups the gorm-backed implementations used with store.driver=sqlite.
type Repositories struct {
	Users         *UserRepository
	Sessions      *SessionRepository
	LoginAttempts *LoginAttemptRepository
}

// NewRepositories wires all repositories on db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:         &UserRepository{db: db},
		Sessions:      &SessionRepository{db: db},
		LoginAttempts: &LoginAttemptRepository{db: db},
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UserRepository implements port.UserRepository on gorm.
type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	u := m.toDomain()
	return &u, nil
}

func (r *UserRepository) Insert(ctx context.Context, user domain.User) error {
	m := newUserModel(user)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update writes every mutable column, including nil locks.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", user.ID).Updates(map[string]any{
		"username":        user.Username,
		"full_name":       user.FullName,
		"timezone":        user.Timezone,
		"password_hash":   user.PasswordHash,
		"is_active":       user.IsActive,
		"failed_attempts": user.FailedAttempts,
		"locked_until":    user.LockedUntil,
		"last_login":      user.LastLogin,
		"updated_at":      user.UpdatedAt,
	})
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return repository.ErrConflict
		}
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SessionRepository implements port.SessionRepository on gorm.
type SessionRepository struct {
	db *gorm.DB
}

func (r *SessionRepository) Insert(ctx context.Context, session domain.Session) error {
	m := newSessionModel(session)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	var rows []sessionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(rows))
	for _, m := range rows {
		sessions = append(sessions, m.toDomain())
	}
	return sessions, nil
}

func (r *SessionRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&sessionModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete sessions: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var m sessionModel
	if err := r.db.WithContext(ctx).Where("refresh_token_hash = ?", tokenHash).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	s := m.toDomain()
	return &s, nil
}

// LoginAttemptRepository appends audit rows.
type LoginAttemptRepository struct {
	db *gorm.DB
}

func (r *LoginAttemptRepository) RecordLoginAttempt(ctx context.Context, attempt domain.LoginAttempt) error {
	id := attempt.ID
	if id == "" {
		id = uuid.NewString()
	}
	m := loginAttemptModel{
		ID:                id,
		UserID:            attempt.UserID,
		Email:             attempt.Email,
		Outcome:           string(attempt.Outcome),
		IPAddress:         attempt.IP,
		ClientLabel:       attempt.ClientLabel,
		AttemptsRemaining: attempt.AttemptsRemaining,
		OccurredAt:        attempt.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert login attempt: %w", err)
	}
	return nil
}

var (
	_ port.UserRepository    = (*UserRepository)(nil)
	_ port.SessionRepository = (*SessionRepository)(nil)
	_ port.AuditSink         = (*LoginAttemptRepository)(nil)
)
