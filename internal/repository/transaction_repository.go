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
	// ErrTransactionNotFound возвращается, когда транзакция не найдена.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrDuplicatePayment возвращается при попытке второй завершённой оплаты заказа.
	ErrDuplicatePayment = errors.New("order already has a completed payment")
)

// TransactionRepository отвечает за работу с таблицей transactions.
type TransactionRepository struct {
	db *sqlx.DB
}

// NewTransactionRepository создаёт экземпляр репозитория.
func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, order_id, payer_id, payee_id, type, amount, currency, status,
	payment_intent_id, refund_id, description, created_at, completed_at`

// Create сохраняет транзакцию. Частичный уникальный индекс по заказу
// гарантирует не более одной завершённой оплаты.
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (order_id, payer_id, payee_id, type, amount, currency, status,
			payment_intent_id, refund_id, description, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		t.OrderID, t.PayerID, t.PayeeID, t.Type, t.Amount, t.Currency, t.Status,
		t.PaymentIntentID, t.RefundID, t.Description, t.CompletedAt,
	).Scan(&t.ID, &t.CreatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("transaction repository: create %w", err)
	}

	return nil
}

// GetByID возвращает транзакцию по идентификатору.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("transaction repository: get by id %w", err)
	}

	return &t, nil
}

// GetCompletedPaymentByOrder возвращает завершённую оплату заказа, если она есть.
func (r *TransactionRepository) GetCompletedPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE order_id = $1 AND type = $2 AND status = $3
	`
	if err := r.db.GetContext(ctx, &t, query, orderID, models.TransactionTypePayment, models.TransactionStatusCompleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("transaction repository: get completed payment %w", err)
	}

	return &t, nil
}

// SumRefundedByOrder возвращает сумму уже возвращённых средств по заказу.
// Возвраты хранятся с отрицательной суммой, поэтому берём модуль.
func (r *TransactionRepository) SumRefundedByOrder(ctx context.Context, orderID uuid.UUID) (float64, error) {
	var total float64
	query := `
		SELECT COALESCE(SUM(ABS(amount)), 0)
		FROM transactions
		WHERE order_id = $1 AND type = $2 AND status = $3
	`
	if err := r.db.GetContext(ctx, &total, query, orderID, models.TransactionTypeRefund, models.TransactionStatusCompleted); err != nil {
		return 0, fmt.Errorf("transaction repository: sum refunded %w", err)
	}

	return total, nil
}

// SetPaymentIntent привязывает платёжное намерение шлюза к транзакции.
// Без сохранённого идентификатора невозможны ни подтверждение, ни возврат.
func (r *TransactionRepository) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE transactions SET payment_intent_id = $2 WHERE id = $1`, id, intentID)
	if err != nil {
		return fmt.Errorf("transaction repository: set payment intent %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transaction repository: set payment intent rows affected %w", err)
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

// Complete помечает транзакцию завершённой. Для оплаты частичный уникальный
// индекс отсечёт гонку двух одновременных подтверждений.
func (r *TransactionRepository) Complete(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	query := `
		UPDATE transactions
		SET status = $2, completed_at = NOW()
		WHERE id = $1
		RETURNING ` + transactionColumns + `
	`
	if err := r.db.GetContext(ctx, &t, query, id, models.TransactionStatusCompleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		if common.IsUniqueViolation(err) {
			return nil, ErrDuplicatePayment
		}
		return nil, fmt.Errorf("transaction repository: complete %w", err)
	}

	return &t, nil
}

// MarkFailed помечает транзакцию неуспешной.
func (r *TransactionRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, id, models.TransactionStatusFailed); err != nil {
		return fmt.Errorf("transaction repository: mark failed %w", err)
	}
	return nil
}

// ListByUser возвращает транзакции, где пользователь является плательщиком или получателем.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE payer_id = $1 OR payee_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &transactions, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("transaction repository: list by user %w", err)
	}

	return transactions, nil
}

// MonthlyEarnings возвращает помесячную сводку заработка фрилансера
// по завершённым оплатам.
func (r *TransactionRepository) MonthlyEarnings(ctx context.Context, freelancerID uuid.UUID, months int) ([]models.MonthlyEarnings, error) {
	var earnings []models.MonthlyEarnings
	query := `
		SELECT to_char(date_trunc('month', completed_at), 'YYYY-MM') AS month,
			SUM(amount) AS total,
			COUNT(DISTINCT order_id) AS orders
		FROM transactions
		WHERE payee_id = $1 AND type = $2 AND status = $3
			AND completed_at >= date_trunc('month', NOW()) - make_interval(months => $4)
		GROUP BY date_trunc('month', completed_at)
		ORDER BY month DESC
	`
	if err := r.db.SelectContext(ctx, &earnings, query, freelancerID, models.TransactionTypePayment, models.TransactionStatusCompleted, months); err != nil {
		return nil, fmt.Errorf("transaction repository: monthly earnings %w", err)
	}

	return earnings, nil
}
