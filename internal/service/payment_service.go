package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/goroutine"
	"github.com/mkuleshov/gigmarket-backend/internal/logger"
	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
	"github.com/mkuleshov/gigmarket-backend/internal/stripe"
)

// PaymentGateway — платёжный шлюз. Реализуется клиентом Stripe.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency, paymentMethodID string, metadata map[string]string) (*stripe.PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error)
	CreateRefund(ctx context.Context, paymentIntentID, reason string) (*stripe.Refund, error)
}

// TransactionRepositoryIface описывает зависимости PaymentService от слоя хранилища.
type TransactionRepositoryIface interface {
	Create(ctx context.Context, t *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetCompletedPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error)
	SumRefundedByOrder(ctx context.Context, orderID uuid.UUID) (float64, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
	Complete(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	MarkFailed(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	MonthlyEarnings(ctx context.Context, freelancerID uuid.UUID, months int) ([]models.MonthlyEarnings, error)
}

// PaymentOrderRepository — доступ к заказам, нужный платёжному сервису.
type PaymentOrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, toStatus string, changedBy uuid.UUID, comment *string) (*models.Order, error)
}

// PaymentService координирует оплату заказов через внешний шлюз.
type PaymentService struct {
	transactions TransactionRepositoryIface
	orders       PaymentOrderRepository
	gateway      PaymentGateway
	notifier     Notifier
	currency     string
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(transactions TransactionRepositoryIface, orders PaymentOrderRepository, gateway PaymentGateway, notifier Notifier, currency string) *PaymentService {
	if currency == "" {
		currency = "usd"
	}

	return &PaymentService{
		transactions: transactions,
		orders:       orders,
		gateway:      gateway,
		notifier:     notifier,
		currency:     currency,
	}
}

// Capture списывает оплату заказа. Оплата доступна клиенту заказа,
// пока заказ находится в начале жизненного цикла. Успешная оплата
// заказа в статусе PENDING автоматически переводит его в ACCEPTED.
func (s *PaymentService) Capture(ctx context.Context, orderID, userID uuid.UUID, paymentMethodID string) (*models.Transaction, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.ClientID != userID {
		return nil, apperror.ErrForbidden
	}

	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusAccepted {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("заказ в статусе %s нельзя оплатить", order.Status))
	}

	if _, err := s.transactions.GetCompletedPaymentByOrder(ctx, orderID); err == nil {
		return nil, apperror.ErrAlreadyPaid
	} else if !errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, err
	}

	transaction := &models.Transaction{
		OrderID:  orderID,
		PayerID:  order.ClientID,
		PayeeID:  order.FreelancerID,
		Type:     models.TransactionTypePayment,
		Amount:   order.TotalPrice,
		Currency: s.currency,
		Status:   models.TransactionStatusPending,
	}

	if err := s.transactions.Create(ctx, transaction); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			return nil, apperror.ErrAlreadyPaid
		}
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, toCents(order.TotalPrice), s.currency, paymentMethodID, map[string]string{
		"order_id":     orderID.String(),
		"order_number": order.OrderNumber,
	})
	if err != nil {
		s.failTransaction(ctx, transaction.ID)
		return nil, s.gatewayError("не удалось создать платёж", err)
	}

	// Идентификатор намерения сохраняется сразу: он понадобится
	// для подтверждения зависшего платежа и для возвратов.
	if err := s.transactions.SetPaymentIntent(ctx, transaction.ID, intent.ID); err != nil {
		return nil, err
	}
	transaction.PaymentIntentID = &intent.ID

	if intent.Status != stripe.IntentStatusSucceeded {
		// Платёж требует дополнительного подтверждения: оставляем PENDING,
		// статус заказа не трогаем.
		return transaction, nil
	}

	return s.completePayment(ctx, transaction, order)
}

// Process подтверждает ранее созданный платёж, зависший в PENDING.
func (s *PaymentService) Process(ctx context.Context, transactionID, userID uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if transaction.PayerID != userID {
		return nil, apperror.ErrForbidden
	}

	if transaction.Type != models.TransactionTypePayment {
		return nil, apperror.New(apperror.ErrCodeValidation, "подтверждать можно только оплату")
	}
	if transaction.Status != models.TransactionStatusPending {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("транзакция уже в статусе %s", transaction.Status))
	}
	if transaction.PaymentIntentID == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "у транзакции нет платёжного намерения")
	}

	order, err := s.orders.GetByID(ctx, transaction.OrderID)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.ConfirmPaymentIntent(ctx, *transaction.PaymentIntentID)
	if err != nil {
		s.failTransaction(ctx, transaction.ID)
		return nil, s.gatewayError("не удалось подтвердить платёж", err)
	}

	if intent.Status != stripe.IntentStatusSucceeded {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("платёж в статусе %s", intent.Status))
	}

	return s.completePayment(ctx, transaction, order)
}

// Refund возвращает средства по завершённой оплате заказа.
// Нулевая сумма означает возврат оплаты целиком. Возврат записывается
// отдельной строкой с отрицательной суммой, суммарный возврат
// не может превысить цену заказа.
func (s *PaymentService) Refund(ctx context.Context, orderID, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.ClientID != userID {
		return nil, apperror.ErrForbidden
	}

	payment, err := s.transactions.GetCompletedPaymentByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, apperror.New(apperror.ErrCodeValidation, "по заказу нет завершённой оплаты")
		}
		return nil, err
	}

	if amount == 0 {
		amount = payment.Amount
	}
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма возврата должна быть положительной")
	}

	refunded, err := s.transactions.SumRefundedByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if refunded+amount > order.TotalPrice {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма возвратов превышает стоимость заказа")
	}

	if payment.PaymentIntentID == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "у оплаты нет платёжного намерения")
	}

	refund, err := s.gateway.CreateRefund(ctx, *payment.PaymentIntentID, reason)
	if err != nil {
		return nil, s.gatewayError("не удалось выполнить возврат", err)
	}

	now := time.Now()
	description := reason
	transaction := &models.Transaction{
		OrderID:         orderID,
		PayerID:         order.FreelancerID,
		PayeeID:         order.ClientID,
		Type:            models.TransactionTypeRefund,
		Amount:          -amount,
		Currency:        s.currency,
		Status:          models.TransactionStatusCompleted,
		PaymentIntentID: payment.PaymentIntentID,
		RefundID:        &refund.ID,
		CompletedAt:     &now,
	}
	if description != "" {
		transaction.Description = &description
	}

	if err := s.transactions.Create(ctx, transaction); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"order_id": orderID,
		"amount":   amount,
	}).Info("payment service: возврат выполнен")

	s.notify(order.ClientID, EventPaymentRefunded, transaction)
	s.notify(order.FreelancerID, EventPaymentRefunded, transaction)

	return transaction, nil
}

// GetByID возвращает транзакцию. Доступна её сторонам и администраторам.
func (s *PaymentService) GetByID(ctx context.Context, transactionID, userID uuid.UUID, role string) (*models.Transaction, error) {
	transaction, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if transaction.PayerID != userID && transaction.PayeeID != userID && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	return transaction, nil
}

// ListMine возвращает транзакции пользователя.
func (s *PaymentService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	limit, offset = clampPage(limit, offset)

	return s.transactions.ListByUser(ctx, userID, limit, offset)
}

// Earnings возвращает помесячную сводку заработка фрилансера.
func (s *PaymentService) Earnings(ctx context.Context, freelancerID uuid.UUID, months int) ([]models.MonthlyEarnings, error) {
	if months <= 0 || months > 24 {
		months = 12
	}

	return s.transactions.MonthlyEarnings(ctx, freelancerID, months)
}

// completePayment завершает транзакцию и двигает заказ из PENDING в ACCEPTED.
func (s *PaymentService) completePayment(ctx context.Context, transaction *models.Transaction, order *models.Order) (*models.Transaction, error) {
	completed, err := s.transactions.Complete(ctx, transaction.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			return nil, apperror.ErrAlreadyPaid
		}
		return nil, err
	}

	if order.Status == models.OrderStatusPending {
		comment := "Оплата получена"
		if _, err := s.orders.TransitionStatus(ctx, order.ID, models.OrderStatusAccepted, order.ClientID, &comment); err != nil {
			// Оплата уже прошла: ошибку перехода логируем, но не откатываем платёж.
			logger.Log.WithFields(map[string]interface{}{
				"order_id": order.ID,
				"error":    err.Error(),
			}).Error("payment service: заказ не переведён в ACCEPTED после оплаты")
		}
	}

	logger.Log.WithFields(map[string]interface{}{
		"order_id":       order.ID,
		"transaction_id": completed.ID,
		"amount":         completed.Amount,
	}).Info("payment service: оплата завершена")

	s.notify(order.ClientID, EventPaymentCompleted, completed)
	s.notify(order.FreelancerID, EventPaymentCompleted, completed)

	return completed, nil
}

// failTransaction помечает транзакцию неуспешной, не скрывая исходную ошибку.
func (s *PaymentService) failTransaction(ctx context.Context, id uuid.UUID) {
	if err := s.transactions.MarkFailed(ctx, id); err != nil {
		logger.Log.Errorf("payment service: не удалось пометить транзакцию неуспешной: %v", err)
	}
}

// gatewayError оборачивает ошибку шлюза в ошибку приложения.
// Таймаут и сетевые сбои трактуются как отказ шлюза: статус заказа не меняется.
func (s *PaymentService) gatewayError(message string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return apperror.Wrap(err, apperror.ErrCodeGateway, fmt.Sprintf("%s: %s", message, stripeErr.Message))
	}

	return apperror.Wrap(err, apperror.ErrCodeGateway, message)
}

// notify отправляет событие пользователю, не блокируя запрос.
func (s *PaymentService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}

	goroutine.SafeGo(func() {
		if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
			logger.Log.Errorf("payment service: не удалось отправить уведомление: %v", err)
		}
	})
}

// toCents переводит сумму в минимальные единицы валюты.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
