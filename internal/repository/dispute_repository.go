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
	// ErrDisputeNotFound возвращается, когда спор не найден.
	ErrDisputeNotFound = errors.New("dispute not found")
	// ErrDuplicateDispute возвращается при попытке открыть второй спор по заказу.
	ErrDuplicateDispute = errors.New("dispute already exists for order")
)

// DisputeRepository отвечает за работу с таблицами disputes, dispute_comments и dispute_evidence.
type DisputeRepository struct {
	db *sqlx.DB
}

// NewDisputeRepository создаёт экземпляр репозитория.
func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

const disputeColumns = `id, order_id, initiator_id, reason, description, status, resolution,
	resolved_by, resolved_at, created_at, updated_at`

// Create открывает спор и принудительно переводит заказ в DISPUTED в одной
// транзакции. Уникальное ограничение по order_id гарантирует один спор на
// заказ даже при одновременных запросах обеих сторон.
func (r *DisputeRepository) Create(ctx context.Context, dispute *models.Dispute) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var fromStatus string
	if err := tx.GetContext(ctx, &fromStatus, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, dispute.OrderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("dispute repository: lock order %w", err)
	}

	if fromStatus == models.OrderStatusPending || fromStatus == models.OrderStatusCancelled {
		return fmt.Errorf("%w: dispute not allowed in status %s", ErrInvalidTransition, fromStatus)
	}

	query := `
		INSERT INTO disputes (order_id, initiator_id, reason, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRowxContext(
		ctx, query,
		dispute.OrderID, dispute.InitiatorID, dispute.Reason, dispute.Description, models.DisputeStatusOpen,
	).Scan(&dispute.ID, &dispute.CreatedAt, &dispute.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrDuplicateDispute
		}
		return fmt.Errorf("dispute repository: create %w", err)
	}
	dispute.Status = models.DisputeStatusOpen

	if fromStatus != models.OrderStatusDisputed {
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, dispute.OrderID, models.OrderStatusDisputed); err != nil {
			return fmt.Errorf("dispute repository: mark order disputed %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, comment)
			VALUES ($1, $2, $3, $4, $5)
		`, dispute.OrderID, fromStatus, models.OrderStatusDisputed, dispute.InitiatorID, dispute.Reason); err != nil {
			return fmt.Errorf("dispute repository: history %w", err)
		}
	}

	return tx.Commit()
}

// GetByID возвращает спор по идентификатору.
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`
	if err := r.db.GetContext(ctx, &dispute, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get by id %w", err)
	}

	return &dispute, nil
}

// GetByOrderID возвращает спор по заказу.
func (r *DisputeRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE order_id = $1`
	if err := r.db.GetContext(ctx, &dispute, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get by order id %w", err)
	}

	return &dispute, nil
}

// ListByUser возвращает споры по заказам, где пользователь является стороной.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	query := `
		SELECT d.id, d.order_id, d.initiator_id, d.reason, d.description, d.status, d.resolution,
			d.resolved_by, d.resolved_at, d.created_at, d.updated_at
		FROM disputes d
		JOIN orders o ON o.id = d.order_id
		WHERE o.client_id = $1 OR o.freelancer_id = $1
		ORDER BY d.created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &disputes, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("dispute repository: list by user %w", err)
	}

	return disputes, nil
}

// ListAll возвращает все споры (для администраторов).
func (r *DisputeRepository) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	var disputes []models.Dispute
	if err := r.db.SelectContext(ctx, &disputes, query, args...); err != nil {
		return nil, fmt.Errorf("dispute repository: list all %w", err)
	}

	return disputes, nil
}

// UpdateStatus обновляет статус спора. Для RESOLVED и CLOSED спор
// фиксирует резолюцию и принудительно завершает заказ в той же транзакции.
func (r *DisputeRepository) UpdateStatus(ctx context.Context, disputeID uuid.UUID, status string, resolution *string, resolvedBy uuid.UUID) (*models.Dispute, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var dispute models.Dispute
	if err := tx.GetContext(ctx, &dispute, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, disputeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: lock dispute %w", err)
	}

	final := status == models.DisputeStatusResolved || status == models.DisputeStatusClosed

	if final {
		if err := tx.GetContext(ctx, &dispute, `
			UPDATE disputes
			SET status = $2, resolution = $3, resolved_by = $4, resolved_at = NOW(), updated_at = NOW()
			WHERE id = $1
			RETURNING `+disputeColumns+`
		`, disputeID, status, resolution, resolvedBy); err != nil {
			return nil, fmt.Errorf("dispute repository: update status %w", err)
		}

		var fromStatus string
		if err := tx.GetContext(ctx, &fromStatus, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, dispute.OrderID); err != nil {
			return nil, fmt.Errorf("dispute repository: lock order %w", err)
		}

		if fromStatus != models.OrderStatusCompleted {
			if _, err := tx.ExecContext(ctx, `
				UPDATE orders SET status = $2, completed_at = NOW(), updated_at = NOW() WHERE id = $1
			`, dispute.OrderID, models.OrderStatusCompleted); err != nil {
				return nil, fmt.Errorf("dispute repository: complete order %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, comment)
				VALUES ($1, $2, $3, $4, $5)
			`, dispute.OrderID, fromStatus, models.OrderStatusCompleted, resolvedBy, resolution); err != nil {
				return nil, fmt.Errorf("dispute repository: history %w", err)
			}
		}
	} else {
		if err := tx.GetContext(ctx, &dispute, `
			UPDATE disputes SET status = $2, updated_at = NOW() WHERE id = $1
			RETURNING `+disputeColumns+`
		`, disputeID, status); err != nil {
			return nil, fmt.Errorf("dispute repository: update status %w", err)
		}
	}

	return &dispute, tx.Commit()
}

// AddComment добавляет комментарий в спор.
func (r *DisputeRepository) AddComment(ctx context.Context, comment *models.DisputeComment) error {
	query := `
		INSERT INTO dispute_comments (dispute_id, author_id, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, comment.DisputeID, comment.AuthorID, comment.Comment).
		Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return fmt.Errorf("dispute repository: add comment %w", err)
	}

	return nil
}

// ListComments возвращает комментарии спора в хронологическом порядке.
func (r *DisputeRepository) ListComments(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeComment, error) {
	var comments []models.DisputeComment
	query := `
		SELECT id, dispute_id, author_id, comment, created_at
		FROM dispute_comments
		WHERE dispute_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &comments, query, disputeID); err != nil {
		return nil, fmt.Errorf("dispute repository: list comments %w", err)
	}

	return comments, nil
}

// AddEvidence прикладывает файл к материалам спора.
func (r *DisputeRepository) AddEvidence(ctx context.Context, evidence *models.DisputeEvidence) error {
	query := `
		INSERT INTO dispute_evidence (dispute_id, user_id, media_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, evidence.DisputeID, evidence.UserID, evidence.MediaID).
		Scan(&evidence.ID, &evidence.CreatedAt); err != nil {
		return fmt.Errorf("dispute repository: add evidence %w", err)
	}

	return nil
}

// ListEvidence возвращает материалы спора.
func (r *DisputeRepository) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeEvidence, error) {
	var evidence []models.DisputeEvidence
	query := `
		SELECT id, dispute_id, user_id, media_id, created_at
		FROM dispute_evidence
		WHERE dispute_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &evidence, query, disputeID); err != nil {
		return nil, fmt.Errorf("dispute repository: list evidence %w", err)
	}

	return evidence, nil
}
