package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/repository/common"
)

var (
	// ErrOrderNotFound возвращается, когда заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidTransition возвращается при недопустимом переходе статуса.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrDuplicateOrderNumber возвращается при коллизии номера заказа.
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

// OrderRepository отвечает за работу с таблицами orders и order_status_history.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт экземпляр репозитория.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_number, gig_id, client_id, freelancer_id, package, total_price, is_urgent,
	priority_fee, requirements, custom_details, status, delivery_date, extension_count,
	cancellation_reason, cancelled_at, completed_at, created_at, updated_at`

// Create создаёт заказ и первую запись в журнале статусов в одной транзакции.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (order_number, gig_id, client_id, freelancer_id, package, total_price,
			is_urgent, priority_fee, requirements, custom_details, status, delivery_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRowxContext(
		ctx, query,
		order.OrderNumber,
		order.GigID,
		order.ClientID,
		order.FreelancerID,
		order.Package,
		order.TotalPrice,
		order.IsUrgent,
		order.PriorityFee,
		order.Requirements,
		order.CustomDetails,
		order.Status,
		order.DeliveryDate,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("order repository: create %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_by)
		VALUES ($1, NULL, $2, $3)
	`, order.ID, order.Status, order.ClientID)
	if err != nil {
		return fmt.Errorf("order repository: create history %w", err)
	}

	return tx.Commit()
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}

	return &order, nil
}

// GetByOrderNumber возвращает заказ по человекочитаемому номеру.
func (r *OrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	if err := r.db.GetContext(ctx, &order, query, orderNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by order number %w", err)
	}

	return &order, nil
}

// ListByUser возвращает заказы, где пользователь является стороной.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE (client_id = $1 OR freelancer_id = $1)`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list by user %w", err)
	}

	return orders, nil
}

// TransitionStatus атомарно переводит заказ в новый статус.
// Строка заказа блокируется FOR UPDATE, переход проверяется по таблице
// допустимых переходов, запись журнала создаётся в той же транзакции.
func (r *OrderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, toStatus string, changedBy uuid.UUID, comment *string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: transition lock %w", err)
	}

	if !models.CanTransition(order.Status, toStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, toStatus)
	}

	fromStatus := order.Status
	now := time.Now()

	setClause := `status = $2, updated_at = NOW()`
	args := []interface{}{orderID, toStatus}

	switch toStatus {
	case models.OrderStatusCompleted:
		setClause += `, completed_at = $3`
		args = append(args, now)
		order.CompletedAt = &now
	case models.OrderStatusCancelled:
		reason := "Причина не указана"
		if comment != nil && *comment != "" {
			reason = *comment
		}
		setClause += `, cancellation_reason = $3, cancelled_at = $4`
		args = append(args, reason, now)
		order.CancellationReason = &reason
		order.CancelledAt = &now
	}

	if _, err := tx.ExecContext(ctx, `UPDATE orders SET `+setClause+` WHERE id = $1`, args...); err != nil {
		return nil, fmt.Errorf("order repository: transition update %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, comment)
		VALUES ($1, $2, $3, $4, $5)
	`, orderID, fromStatus, toStatus, changedBy, comment); err != nil {
		return nil, fmt.Errorf("order repository: transition history %w", err)
	}

	order.Status = toStatus
	order.UpdatedAt = now

	return &order, tx.Commit()
}

// ExtendDelivery сдвигает дедлайн на указанное число дней и увеличивает
// счётчик продлений. Статус заказа не меняется, но факт фиксируется в журнале.
func (r *OrderRepository) ExtendDelivery(ctx context.Context, orderID uuid.UUID, days int, requestedBy uuid.UUID, reason string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: extend lock %w", err)
	}

	if err := tx.GetContext(ctx, &order, `
		UPDATE orders
		SET delivery_date = delivery_date + make_interval(days => $2),
			extension_count = extension_count + 1,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+orderColumns+`
	`, orderID, days); err != nil {
		return nil, fmt.Errorf("order repository: extend update %w", err)
	}

	comment := fmt.Sprintf("Продление срока на %d дней: %s", days, reason)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, comment)
		VALUES ($1, $2, $2, $3, $4)
	`, orderID, order.Status, requestedBy, comment); err != nil {
		return nil, fmt.Errorf("order repository: extend history %w", err)
	}

	return &order, tx.Commit()
}

// ListHistory возвращает журнал статусов заказа в хронологическом порядке.
func (r *OrderRepository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	query := `
		SELECT id, order_id, from_status, to_status, changed_by, comment, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &history, query, orderID); err != nil {
		return nil, fmt.Errorf("order repository: list history %w", err)
	}

	return history, nil
}
