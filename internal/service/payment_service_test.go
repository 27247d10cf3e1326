package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
	"github.com/mkuleshov/gigmarket-backend/internal/stripe"
)

type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) GetCompletedPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) SumRefundedByOrder(ctx context.Context, orderID uuid.UUID) (float64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockTransactionRepo) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	args := m.Called(ctx, id, intentID)
	return args.Error(0)
}

func (m *mockTransactionRepo) Complete(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) MonthlyEarnings(ctx context.Context, freelancerID uuid.UUID, months int) ([]models.MonthlyEarnings, error) {
	args := m.Called(ctx, freelancerID, months)
	return args.Get(0).([]models.MonthlyEarnings), args.Error(1)
}

type mockPaymentOrders struct {
	mock.Mock
}

func (m *mockPaymentOrders) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockPaymentOrders) TransitionStatus(ctx context.Context, orderID uuid.UUID, toStatus string, changedBy uuid.UUID, comment *string) (*models.Order, error) {
	args := m.Called(ctx, orderID, toStatus, changedBy, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreatePaymentIntent(ctx context.Context, amountCents int64, currency, paymentMethodID string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	args := m.Called(ctx, amountCents, currency, paymentMethodID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func (m *mockGateway) ConfirmPaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func (m *mockGateway) CreateRefund(ctx context.Context, paymentIntentID, reason string) (*stripe.Refund, error) {
	args := m.Called(ctx, paymentIntentID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.Refund), args.Error(1)
}

func pendingOrder(clientID, freelancerID uuid.UUID) *models.Order {
	return &models.Order{
		ID:           uuid.New(),
		OrderNumber:  "ORD-20260830-0001",
		ClientID:     clientID,
		FreelancerID: freelancerID,
		TotalPrice:   300,
		Status:       models.OrderStatusPending,
	}
}

func TestPaymentService_Capture_Success(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	gateway := new(mockGateway)
	svc := NewPaymentService(transactions, orders, gateway, nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	transactions.On("GetCompletedPaymentByOrder", ctx, order.ID).Return(nil, repository.ErrTransactionNotFound)
	transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

	intent := &stripe.PaymentIntent{ID: "pi_123", Status: stripe.IntentStatusSucceeded, Amount: 30000}
	gateway.On("CreatePaymentIntent", ctx, int64(30000), "usd", "pm_card", map[string]string{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
	}).Return(intent, nil)
	transactions.On("SetPaymentIntent", ctx, mock.AnythingOfType("uuid.UUID"), "pi_123").Return(nil)

	intentID := "pi_123"
	completed := &models.Transaction{ID: uuid.New(), OrderID: order.ID, Status: models.TransactionStatusCompleted, Amount: 300, PaymentIntentID: &intentID}
	transactions.On("Complete", ctx, mock.AnythingOfType("uuid.UUID")).Return(completed, nil)

	accepted := &models.Order{ID: order.ID, Status: models.OrderStatusAccepted}
	orders.On("TransitionStatus", ctx, order.ID, models.OrderStatusAccepted, clientID, mock.AnythingOfType("*string")).Return(accepted, nil)

	result, err := svc.Capture(ctx, order.ID, clientID, "pm_card")
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, result.Status)
	if assert.NotNil(t, result.PaymentIntentID) {
		assert.Equal(t, "pi_123", *result.PaymentIntentID)
	}
	orders.AssertExpectations(t)
	transactions.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestPaymentService_Capture_NotClient(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	svc := NewPaymentService(transactions, orders, new(mockGateway), nil, "usd")
	ctx := context.Background()

	order := pendingOrder(uuid.New(), uuid.New())
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.Capture(ctx, order.ID, uuid.New(), "pm_card")
	assert.True(t, apperror.IsForbidden(err))
}

func TestPaymentService_Capture_AlreadyPaid(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	svc := NewPaymentService(transactions, orders, new(mockGateway), nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	existing := &models.Transaction{ID: uuid.New(), Status: models.TransactionStatusCompleted}
	transactions.On("GetCompletedPaymentByOrder", ctx, order.ID).Return(existing, nil)

	_, err := svc.Capture(ctx, order.ID, clientID, "pm_card")
	assert.ErrorIs(t, err, apperror.ErrAlreadyPaid)
	transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_Capture_WrongStatus(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	svc := NewPaymentService(transactions, orders, new(mockGateway), nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())
	order.Status = models.OrderStatusDelivered
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.Capture(ctx, order.ID, clientID, "pm_card")
	assert.True(t, apperror.IsValidation(err))
}

func TestPaymentService_Capture_GatewayFailure(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	gateway := new(mockGateway)
	svc := NewPaymentService(transactions, orders, gateway, nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	transactions.On("GetCompletedPaymentByOrder", ctx, order.ID).Return(nil, repository.ErrTransactionNotFound)
	transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)
	transactions.On("MarkFailed", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)

	gatewayErr := &stripe.Error{Type: "card_error", Message: "карта отклонена"}
	gateway.On("CreatePaymentIntent", ctx, int64(30000), "usd", "pm_card", mock.Anything).Return(nil, gatewayErr)

	_, err := svc.Capture(ctx, order.ID, clientID, "pm_card")
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeGateway, appErr.Code)
	assert.Equal(t, 502, appErr.HTTPStatus)
	assert.Contains(t, appErr.Message, "карта отклонена")

	// Статус заказа при отказе шлюза не меняется.
	orders.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	transactions.AssertCalled(t, "MarkFailed", ctx, mock.AnythingOfType("uuid.UUID"))
}

func TestPaymentService_Capture_IntentNotSucceeded(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	gateway := new(mockGateway)
	svc := NewPaymentService(transactions, orders, gateway, nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	transactions.On("GetCompletedPaymentByOrder", ctx, order.ID).Return(nil, repository.ErrTransactionNotFound)
	transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

	intent := &stripe.PaymentIntent{ID: "pi_456", Status: stripe.IntentStatusRequiresConfirmation}
	gateway.On("CreatePaymentIntent", ctx, int64(30000), "usd", "pm_card", mock.Anything).Return(intent, nil)
	transactions.On("SetPaymentIntent", ctx, mock.AnythingOfType("uuid.UUID"), "pi_456").Return(nil)

	result, err := svc.Capture(ctx, order.ID, clientID, "pm_card")
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, result.Status)
	transactions.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_Capture_PersistsIntentID(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	gateway := new(mockGateway)
	svc := NewPaymentService(transactions, orders, gateway, nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())
	transactionID := uuid.New()

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	transactions.On("GetCompletedPaymentByOrder", ctx, order.ID).Return(nil, repository.ErrTransactionNotFound)

	// Строка создаётся до обращения к шлюзу, поэтому намерения в ней ещё нет.
	transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Run(func(args mock.Arguments) {
		tr := args.Get(1).(*models.Transaction)
		assert.Nil(t, tr.PaymentIntentID)
		tr.ID = transactionID
	}).Return(nil)

	intent := &stripe.PaymentIntent{ID: "pi_999", Status: stripe.IntentStatusRequiresConfirmation}
	gateway.On("CreatePaymentIntent", ctx, int64(30000), "usd", "pm_card", mock.Anything).Return(intent, nil)
	transactions.On("SetPaymentIntent", ctx, transactionID, "pi_999").Return(nil)

	result, err := svc.Capture(ctx, order.ID, clientID, "pm_card")
	assert.NoError(t, err)

	// Намерение записано именно в хранилище, не только в ответ.
	transactions.AssertCalled(t, "SetPaymentIntent", ctx, transactionID, "pi_999")
	if assert.NotNil(t, result.PaymentIntentID) {
		assert.Equal(t, "pi_999", *result.PaymentIntentID)
	}
}

func TestPaymentService_Process_Success(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	gateway := new(mockGateway)
	svc := NewPaymentService(transactions, orders, gateway, nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())

	intentID := "pi_999"
	transactionID := uuid.New()
	transactions.On("GetByID", ctx, transactionID).Return(&models.Transaction{
		ID:              transactionID,
		OrderID:         order.ID,
		PayerID:         clientID,
		Type:            models.TransactionTypePayment,
		Status:          models.TransactionStatusPending,
		PaymentIntentID: &intentID,
	}, nil)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	gateway.On("ConfirmPaymentIntent", ctx, intentID).Return(&stripe.PaymentIntent{ID: intentID, Status: stripe.IntentStatusSucceeded}, nil)

	completed := &models.Transaction{ID: transactionID, OrderID: order.ID, Status: models.TransactionStatusCompleted, PaymentIntentID: &intentID}
	transactions.On("Complete", ctx, transactionID).Return(completed, nil)

	accepted := &models.Order{ID: order.ID, Status: models.OrderStatusAccepted}
	orders.On("TransitionStatus", ctx, order.ID, models.OrderStatusAccepted, clientID, mock.AnythingOfType("*string")).Return(accepted, nil)

	result, err := svc.Process(ctx, transactionID, clientID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, result.Status)
	gateway.AssertExpectations(t)
}

func TestPaymentService_Refund_Success(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	gateway := new(mockGateway)
	svc := NewPaymentService(transactions, orders, gateway, nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())
	order.Status = models.OrderStatusCancelled

	intentID := "pi_789"
	payment := &models.Transaction{
		ID:              uuid.New(),
		OrderID:         order.ID,
		Status:          models.TransactionStatusCompleted,
		PaymentIntentID: &intentID,
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	transactions.On("GetCompletedPaymentByOrder", ctx, order.ID).Return(payment, nil)
	transactions.On("SumRefundedByOrder", ctx, order.ID).Return(float64(0), nil)
	gateway.On("CreateRefund", ctx, intentID, "работа не выполнена").Return(&stripe.Refund{ID: "re_1", Status: "succeeded"}, nil)
	transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Run(func(args mock.Arguments) {
		tr := args.Get(1).(*models.Transaction)
		assert.Equal(t, models.TransactionTypeRefund, tr.Type)
		assert.Equal(t, float64(-100), tr.Amount)
	}).Return(nil)

	refund, err := svc.Refund(ctx, order.ID, clientID, 100, "работа не выполнена")
	assert.NoError(t, err)
	assert.Equal(t, float64(-100), refund.Amount)
	if assert.NotNil(t, refund.RefundID) {
		assert.Equal(t, "re_1", *refund.RefundID)
	}
}

func TestPaymentService_Refund_DefaultsToFullAmount(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	gateway := new(mockGateway)
	svc := NewPaymentService(transactions, orders, gateway, nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())

	intentID := "pi_789"
	payment := &models.Transaction{
		ID:              uuid.New(),
		OrderID:         order.ID,
		Amount:          300,
		Status:          models.TransactionStatusCompleted,
		PaymentIntentID: &intentID,
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	transactions.On("GetCompletedPaymentByOrder", ctx, order.ID).Return(payment, nil)
	transactions.On("SumRefundedByOrder", ctx, order.ID).Return(float64(0), nil)
	gateway.On("CreateRefund", ctx, intentID, "").Return(&stripe.Refund{ID: "re_2", Status: "succeeded"}, nil)
	transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Run(func(args mock.Arguments) {
		tr := args.Get(1).(*models.Transaction)
		assert.Equal(t, float64(-300), tr.Amount)
	}).Return(nil)

	refund, err := svc.Refund(ctx, order.ID, clientID, 0, "")
	assert.NoError(t, err)
	assert.Equal(t, float64(-300), refund.Amount)
}

func TestPaymentService_Refund_ExceedsTotal(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	gateway := new(mockGateway)
	svc := NewPaymentService(transactions, orders, gateway, nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())

	intentID := "pi_789"
	payment := &models.Transaction{ID: uuid.New(), PaymentIntentID: &intentID}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	transactions.On("GetCompletedPaymentByOrder", ctx, order.ID).Return(payment, nil)
	transactions.On("SumRefundedByOrder", ctx, order.ID).Return(float64(250), nil)

	_, err := svc.Refund(ctx, order.ID, clientID, 100, "")
	assert.True(t, apperror.IsValidation(err))
	gateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_Refund_NoCompletedPayment(t *testing.T) {
	transactions := new(mockTransactionRepo)
	orders := new(mockPaymentOrders)
	svc := NewPaymentService(transactions, orders, new(mockGateway), nil, "usd")
	ctx := context.Background()

	clientID := uuid.New()
	order := pendingOrder(clientID, uuid.New())

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	transactions.On("GetCompletedPaymentByOrder", ctx, order.ID).Return(nil, repository.ErrTransactionNotFound)

	_, err := svc.Refund(ctx, order.ID, clientID, 100, "")
	assert.True(t, apperror.IsValidation(err))
}

func TestPaymentService_Process_NotPayer(t *testing.T) {
	transactions := new(mockTransactionRepo)
	svc := NewPaymentService(transactions, new(mockPaymentOrders), new(mockGateway), nil, "usd")
	ctx := context.Background()

	transactionID := uuid.New()
	transactions.On("GetByID", ctx, transactionID).Return(&models.Transaction{
		ID:      transactionID,
		PayerID: uuid.New(),
		Type:    models.TransactionTypePayment,
		Status:  models.TransactionStatusPending,
	}, nil)

	_, err := svc.Process(ctx, transactionID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
}

func TestPaymentService_GatewayError_Wrapping(t *testing.T) {
	svc := NewPaymentService(nil, nil, nil, nil, "usd")

	plain := errors.New("connection refused")
	err := svc.gatewayError("не удалось создать платёж", plain)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeGateway, appErr.Code)
	assert.ErrorIs(t, err, plain)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(30000), toCents(300))
	assert.Equal(t, int64(1999), toCents(19.99))
	assert.Equal(t, int64(10), toCents(0.1))
}
