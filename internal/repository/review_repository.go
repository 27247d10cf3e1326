package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/repository/common"
)

var (
	// ErrReviewNotFound возвращается, когда отзыв не найден.
	ErrReviewNotFound = errors.New("review not found")
	// ErrDuplicateReview возвращается при попытке второго отзыва на заказ.
	ErrDuplicateReview = errors.New("review already exists for order")
)

// ReviewRepository отвечает за работу с таблицей reviews и пересчёт
// агрегированного рейтинга фрилансера.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository создаёт экземпляр репозитория.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, order_id, gig_id, client_id, freelancer_id, rating, title, comment,
	is_anonymous, moderation_status, response, responded_at, created_at, updated_at`

// Create сохраняет отзыв и пересчитывает рейтинг фрилансера в одной
// транзакции. Уникальное ограничение по order_id отсекает гонку двух
// одновременных отзывов на один заказ.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reviews (order_id, gig_id, client_id, freelancer_id, rating, title, comment, is_anonymous, moderation_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, moderation_status, created_at, updated_at
	`
	if err := tx.QueryRowxContext(
		ctx, query,
		review.OrderID, review.GigID, review.ClientID, review.FreelancerID,
		review.Rating, review.Title, review.Comment, review.IsAnonymous, models.ModerationStatusApproved,
	).Scan(&review.ID, &review.ModerationStatus, &review.CreatedAt, &review.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("review repository: create %w", err)
	}

	if err := r.recalcRating(ctx, tx, review.FreelancerID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID возвращает отзыв по идентификатору.
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: get by id %w", err)
	}

	return &review, nil
}

// GetByOrderID возвращает отзыв по заказу.
func (r *ReviewRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	var review models.Review
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE order_id = $1`
	if err := r.db.GetContext(ctx, &review, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: get by order id %w", err)
	}

	return &review, nil
}

// Update обновляет отзыв и пересчитывает рейтинг в одной транзакции.
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE reviews
		SET rating = $2, title = $3, comment = $4, is_anonymous = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := tx.QueryRowxContext(
		ctx, query,
		review.ID, review.Rating, review.Title, review.Comment, review.IsAnonymous,
	).Scan(&review.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("review repository: update %w", err)
	}

	if err := r.recalcRating(ctx, tx, review.FreelancerID); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete удаляет отзыв и пересчитывает рейтинг в одной транзакции.
// Если отзывов не осталось, рейтинг обнуляется.
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID, freelancerID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("review repository: delete %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("review repository: delete rows affected %w", err)
	}
	if affected == 0 {
		return ErrReviewNotFound
	}

	if err := r.recalcRating(ctx, tx, freelancerID); err != nil {
		return err
	}

	return tx.Commit()
}

// SetResponse сохраняет ответ фрилансера на отзыв. Ответить можно один раз.
func (r *ReviewRepository) SetResponse(ctx context.Context, id uuid.UUID, response string) (*models.Review, error) {
	var review models.Review
	query := `
		UPDATE reviews
		SET response = $2, responded_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND response IS NULL
		RETURNING ` + reviewColumns + `
	`
	if err := r.db.GetContext(ctx, &review, query, id, response); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: set response %w", err)
	}

	return &review, nil
}

// ListByFreelancer возвращает одобренные отзывы о фрилансере.
func (r *ReviewRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE freelancer_id = $1 AND moderation_status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	if err := r.db.SelectContext(ctx, &reviews, query, freelancerID, models.ModerationStatusApproved, limit, offset); err != nil {
		return nil, fmt.Errorf("review repository: list by freelancer %w", err)
	}

	return reviews, nil
}

// recalcRating пересчитывает рейтинг и счётчик отзывов фрилансера.
// Строка профиля блокируется FOR UPDATE, чтобы одновременные изменения
// отзывов не затёрли результат друг друга.
func (r *ReviewRepository) recalcRating(ctx context.Context, tx *sqlx.Tx, freelancerID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `SELECT user_id FROM freelancer_profiles WHERE user_id = $1 FOR UPDATE`, freelancerID); err != nil {
		return fmt.Errorf("review repository: lock profile %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE freelancer_profiles
		SET rating = COALESCE((
				SELECT ROUND(AVG(rating)::numeric, 2)
				FROM reviews
				WHERE freelancer_id = $1 AND moderation_status = $2
			), 0),
			review_count = (
				SELECT COUNT(*)
				FROM reviews
				WHERE freelancer_id = $1 AND moderation_status = $2
			),
			updated_at = NOW()
		WHERE user_id = $1
	`, freelancerID, models.ModerationStatusApproved); err != nil {
		return fmt.Errorf("review repository: recalc rating %w", err)
	}

	return nil
}
