package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает сущность пользователя маркетплейса.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FreelancerProfile описывает публичный профиль исполнителя.
// Поля rating и review_count пересчитываются при каждом изменении отзывов.
type FreelancerProfile struct {
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Bio         *string   `db:"bio" json:"bio,omitempty"`
	Skills      []string  `db:"skills" json:"skills"`
	HourlyRate  *float64  `db:"hourly_rate" json:"hourly_rate,omitempty"`
	Rating      float64   `db:"rating" json:"rating"`
	ReviewCount int       `db:"review_count" json:"review_count"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
