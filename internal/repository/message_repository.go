package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
)

// ErrMessageNotFound возвращается, когда сообщение не найдено.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository отвечает за работу с сообщениями по заказам.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository создаёт экземпляр репозитория.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create сохраняет новое сообщение.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (order_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, is_deleted, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, message.OrderID, message.SenderID, message.Content).
		Scan(&message.ID, &message.IsDeleted, &message.CreatedAt); err != nil {
		return fmt.Errorf("message repository: create %w", err)
	}

	return nil
}

// GetByID возвращает сообщение по идентификатору.
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	query := `SELECT id, order_id, sender_id, content, is_deleted, created_at FROM messages WHERE id = $1`
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("message repository: get by id %w", err)
	}

	return &message, nil
}

// ListByOrder возвращает неудалённые сообщения заказа в хронологическом порядке.
func (r *MessageRepository) ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	query := `
		SELECT id, order_id, sender_id, content, is_deleted, created_at
		FROM messages
		WHERE order_id = $1 AND is_deleted = FALSE
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &messages, query, orderID, limit, offset); err != nil {
		return nil, fmt.Errorf("message repository: list by order %w", err)
	}

	return messages, nil
}

// SoftDelete помечает сообщение удалённым. Строка остаётся в таблице.
func (r *MessageRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE messages SET is_deleted = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("message repository: soft delete %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("message repository: soft delete rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}
