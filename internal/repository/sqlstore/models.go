package sqlstore

import (
	"time"

	"gorm.io/gorm"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
)

type userModel struct {
	ID             string  `gorm:"primaryKey;size:36"`
	Email          string  `gorm:"uniqueIndex;size:254;not null"`
	Username       *string `gorm:"uniqueIndex;size:30"`
	FullName       string  `gorm:"size:100"`
	Timezone       string  `gorm:"size:64;not null;default:UTC"`
	PasswordHash   string  `gorm:"not null"`
	IsActive       bool    `gorm:"not null"`
	FailedAttempts int     `gorm:"not null;default:0"`
	LockedUntil    *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (userModel) TableName() string { return "users" }

func newUserModel(u domain.User) userModel {
	return userModel{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FullName:       u.FullName,
		Timezone:       u.Timezone,
		PasswordHash:   u.PasswordHash,
		IsActive:       u.IsActive,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:             m.ID,
		Email:          m.Email,
		Username:       m.Username,
		FullName:       m.FullName,
		Timezone:       m.Timezone,
		PasswordHash:   m.PasswordHash,
		IsActive:       m.IsActive,
		FailedAttempts: m.FailedAttempts,
		LockedUntil:    m.LockedUntil,
		LastLogin:      m.LastLogin,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type sessionModel struct {
	ID               string `gorm:"primaryKey;size:36"`
	UserID           string `gorm:"index;size:36;not null"`
	RefreshTokenHash string `gorm:"uniqueIndex;size:64;not null"`
	IPAddress        *string
	UserAgent        *string
	CreatedAt        time.Time `gorm:"index"`
	ExpiresAt        time.Time
}

func (sessionModel) TableName() string { return "sessions" }

func newSessionModel(s domain.Session) sessionModel {
	return sessionModel{
		ID:               s.ID,
		UserID:           s.UserID,
		RefreshTokenHash: s.RefreshTokenHash,
		IPAddress:        s.IP,
		UserAgent:        s.UserAgent,
		CreatedAt:        s.CreatedAt,
		ExpiresAt:        s.ExpiresAt,
	}
}

func (m sessionModel) toDomain() domain.Session {
	return domain.Session{
		ID:               m.ID,
		UserID:           m.UserID,
		RefreshTokenHash: m.RefreshTokenHash,
		IP:               m.IPAddress,
		UserAgent:        m.UserAgent,
		CreatedAt:        m.CreatedAt,
		ExpiresAt:        m.ExpiresAt,
	}
}

type loginAttemptModel struct {
	ID                string  `gorm:"primaryKey;size:36"`
	UserID            *string `gorm:"index;size:36"`
	Email             string  `gorm:"index;size:254"`
	Outcome           string  `gorm:"size:32"`
	IPAddress         string  `gorm:"size:64"`
	ClientLabel       string
	AttemptsRemaining int
	OccurredAt        time.Time `gorm:"index"`
}

func (loginAttemptModel) TableName() string { return "login_attempts" }

// AutoMigrate creates or updates the embedded schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userModel{}, &sessionModel{}, &loginAttemptModel{})
}
