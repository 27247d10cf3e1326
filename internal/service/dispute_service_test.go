package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
)

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) Create(ctx context.Context, dispute *models.Dispute) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) UpdateStatus(ctx context.Context, disputeID uuid.UUID, status string, resolution *string, resolvedBy uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, disputeID, status, resolution, resolvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) AddComment(ctx context.Context, comment *models.DisputeComment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockDisputeRepo) ListComments(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeComment, error) {
	args := m.Called(ctx, disputeID)
	return args.Get(0).([]models.DisputeComment), args.Error(1)
}

func (m *mockDisputeRepo) AddEvidence(ctx context.Context, evidence *models.DisputeEvidence) error {
	args := m.Called(ctx, evidence)
	return args.Error(0)
}

func (m *mockDisputeRepo) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeEvidence, error) {
	args := m.Called(ctx, disputeID)
	return args.Get(0).([]models.DisputeEvidence), args.Error(1)
}

type mockDisputeOrders struct {
	mock.Mock
}

func (m *mockDisputeOrders) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func TestDisputeService_Open_Success(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockDisputeOrders)
	svc := NewDisputeService(repo, orders, nil, nil)
	ctx := context.Background()

	clientID := uuid.New()
	orderID := uuid.New()
	order := &models.Order{
		ID:           orderID,
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		Status:       models.OrderStatusDelivered,
	}

	orders.On("GetByID", ctx, orderID).Return(order, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Dispute")).Return(nil)

	dispute, err := svc.Open(ctx, clientID, OpenDisputeInput{
		OrderID: orderID,
		Reason:  "работа не соответствует описанию",
	})
	assert.NoError(t, err)
	assert.Equal(t, clientID, dispute.InitiatorID)
	repo.AssertExpectations(t)
}

func TestDisputeService_Open_Outsider(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockDisputeOrders)
	svc := NewDisputeService(repo, orders, nil, nil)
	ctx := context.Background()

	orderID := uuid.New()
	order := &models.Order{
		ID:           orderID,
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
	}
	orders.On("GetByID", ctx, orderID).Return(order, nil)

	_, err := svc.Open(ctx, uuid.New(), OpenDisputeInput{OrderID: orderID, Reason: "причина"})
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDisputeService_Open_EmptyReason(t *testing.T) {
	svc := NewDisputeService(new(mockDisputeRepo), new(mockDisputeOrders), nil, nil)

	_, err := svc.Open(context.Background(), uuid.New(), OpenDisputeInput{OrderID: uuid.New()})
	assert.True(t, apperror.IsValidation(err))
}

func TestDisputeService_UpdateStatus_AdminOnly(t *testing.T) {
	svc := NewDisputeService(new(mockDisputeRepo), new(mockDisputeOrders), nil, nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), models.RoleClient, models.DisputeStatusResolved, nil)
	assert.True(t, apperror.IsForbidden(err))
}

func TestDisputeService_UpdateStatus_ResolutionRequired(t *testing.T) {
	svc := NewDisputeService(new(mockDisputeRepo), new(mockDisputeOrders), nil, nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), models.RoleAdmin, models.DisputeStatusResolved, nil)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "резолюция")
}

func TestDisputeService_UpdateStatus_AlreadyClosed(t *testing.T) {
	repo := new(mockDisputeRepo)
	svc := NewDisputeService(repo, new(mockDisputeOrders), nil, nil)
	ctx := context.Background()

	disputeID := uuid.New()
	repo.On("GetByID", ctx, disputeID).Return(&models.Dispute{
		ID:     disputeID,
		Status: models.DisputeStatusResolved,
	}, nil)

	resolution := "возврат средств"
	_, err := svc.UpdateStatus(ctx, disputeID, uuid.New(), models.RoleAdmin, models.DisputeStatusClosed, &resolution)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDisputeService_UpdateStatus_Resolved(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockDisputeOrders)
	svc := NewDisputeService(repo, orders, nil, nil)
	ctx := context.Background()

	adminID := uuid.New()
	disputeID := uuid.New()
	orderID := uuid.New()
	resolution := "возврат средств клиенту"

	repo.On("GetByID", ctx, disputeID).Return(&models.Dispute{
		ID:      disputeID,
		OrderID: orderID,
		Status:  models.DisputeStatusInReview,
	}, nil)
	resolved := &models.Dispute{
		ID:         disputeID,
		OrderID:    orderID,
		Status:     models.DisputeStatusResolved,
		Resolution: &resolution,
	}
	repo.On("UpdateStatus", ctx, disputeID, models.DisputeStatusResolved, &resolution, adminID).Return(resolved, nil)
	orders.On("GetByID", ctx, orderID).Return(&models.Order{ID: orderID, ClientID: uuid.New(), FreelancerID: uuid.New()}, nil)

	dispute, err := svc.UpdateStatus(ctx, disputeID, adminID, models.RoleAdmin, models.DisputeStatusResolved, &resolution)
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolved, dispute.Status)
}

func TestDisputeService_AddComment_ClosedDispute(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockDisputeOrders)
	svc := NewDisputeService(repo, orders, nil, nil)
	ctx := context.Background()

	clientID := uuid.New()
	disputeID := uuid.New()
	orderID := uuid.New()

	repo.On("GetByID", ctx, disputeID).Return(&models.Dispute{
		ID:      disputeID,
		OrderID: orderID,
		Status:  models.DisputeStatusClosed,
	}, nil)
	orders.On("GetByID", ctx, orderID).Return(&models.Order{
		ID:           orderID,
		ClientID:     clientID,
		FreelancerID: uuid.New(),
	}, nil)

	_, err := svc.AddComment(ctx, disputeID, clientID, models.RoleClient, "новый аргумент")
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything)
}

func TestDisputeService_ListAll_AdminOnly(t *testing.T) {
	repo := new(mockDisputeRepo)
	svc := NewDisputeService(repo, new(mockDisputeOrders), nil, nil)
	ctx := context.Background()

	_, err := svc.ListAll(ctx, models.RoleClient, "", 20, 0)
	assert.True(t, apperror.IsForbidden(err))

	repo.On("ListAll", ctx, models.DisputeStatusOpen, 20, 0).Return([]models.Dispute{}, nil)
	_, err = svc.ListAll(ctx, models.RoleAdmin, models.DisputeStatusOpen, 20, 0)
	assert.NoError(t, err)
}

func TestClampPage(t *testing.T) {
	limit, offset := clampPage(0, -5)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = clampPage(500, 40)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, offset)

	limit, offset = clampPage(50, 10)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 10, offset)
}
