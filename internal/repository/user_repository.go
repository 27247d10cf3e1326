package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
)

// ErrUserNotFound возвращается, когда запись пользователя не найдена.
var ErrUserNotFound = errors.New("user not found")

// UserRepository отвечает за работу с таблицами users, freelancer_profiles и user_sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, email, username, password_hash, role, is_active, last_login_at, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, email, username, password_hash, role, is_active, last_login_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}

	return &user, nil
}

// ListAdmins возвращает идентификаторы всех активных администраторов.
func (r *UserRepository) ListAdmins(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT id FROM users WHERE role = 'admin' AND is_active = TRUE`
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("user repository: list admins %w", err)
	}
	return ids, nil
}

// UpsertProfile создаёт или обновляет профиль фрилансера.
// Рейтинг и счётчик отзывов не трогаем: их пересчитывает репозиторий отзывов.
func (r *UserRepository) UpsertProfile(ctx context.Context, profile *models.FreelancerProfile) error {
	query := `
		INSERT INTO freelancer_profiles (user_id, display_name, bio, skills, hourly_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			skills = EXCLUDED.skills,
			hourly_rate = EXCLUDED.hourly_rate,
			updated_at = NOW()
		RETURNING user_id, display_name, bio, skills, hourly_rate, rating, review_count, updated_at
	`

	var skills pq.StringArray
	row := r.db.QueryRowxContext(
		ctx,
		query,
		profile.UserID,
		profile.DisplayName,
		profile.Bio,
		pq.Array(profile.Skills),
		profile.HourlyRate,
	)

	if err := row.Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.Bio,
		&skills,
		&profile.HourlyRate,
		&profile.Rating,
		&profile.ReviewCount,
		&profile.UpdatedAt,
	); err != nil {
		return fmt.Errorf("user repository: upsert profile %w", err)
	}

	profile.Skills = []string(skills)

	return nil
}

// GetProfile возвращает профиль фрилансера.
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	query := `
		SELECT user_id, display_name, bio, skills, hourly_rate, rating, review_count, updated_at
		FROM freelancer_profiles
		WHERE user_id = $1
	`

	var profile models.FreelancerProfile
	var skills pq.StringArray

	if err := r.db.QueryRowxContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.Bio,
		&skills,
		&profile.HourlyRate,
		&profile.Rating,
		&profile.ReviewCount,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get profile %w", err)
	}

	profile.Skills = []string(skills)

	return &profile, nil
}

// CreateSession сохраняет новую сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// DeleteSession удаляет сессию по refresh токену.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken); err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}

	return nil
}

// UpdateLastLoginAt обновляет время последнего входа пользователя.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login at %w", err)
	}

	return nil
}
