package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id uuid.UUID, freelancerID uuid.UUID) error {
	args := m.Called(ctx, id, freelancerID)
	return args.Error(0)
}

func (m *mockReviewRepo) SetResponse(ctx context.Context, id uuid.UUID, response string) (*models.Review, error) {
	args := m.Called(ctx, id, response)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, freelancerID, limit, offset)
	return args.Get(0).([]models.Review), args.Error(1)
}

type mockReviewOrders struct {
	mock.Mock
}

func (m *mockReviewOrders) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func completedOrder(clientID, freelancerID uuid.UUID) *models.Order {
	return &models.Order{
		ID:           uuid.New(),
		GigID:        uuid.New(),
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Status:       models.OrderStatusCompleted,
	}
}

func TestReviewService_Create_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockReviewOrders)
	svc := NewReviewService(repo, orders, nil)
	ctx := context.Background()

	clientID := uuid.New()
	order := completedOrder(clientID, uuid.New())

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	review, err := svc.Create(ctx, order.ID, clientID, ReviewInput{Rating: 5})
	assert.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, order.FreelancerID, review.FreelancerID)
	repo.AssertExpectations(t)
}

func TestReviewService_Create_NotCompleted(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockReviewOrders)
	svc := NewReviewService(repo, orders, nil)
	ctx := context.Background()

	clientID := uuid.New()
	order := completedOrder(clientID, uuid.New())
	order.Status = models.OrderStatusDelivered

	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.Create(ctx, order.ID, clientID, ReviewInput{Rating: 4})
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_Create_OnlyClient(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockReviewOrders)
	svc := NewReviewService(repo, orders, nil)
	ctx := context.Background()

	freelancerID := uuid.New()
	order := completedOrder(uuid.New(), freelancerID)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.Create(ctx, order.ID, freelancerID, ReviewInput{Rating: 5})
	assert.True(t, apperror.IsForbidden(err))
}

func TestReviewService_Create_InvalidRating(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockReviewOrders), nil)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), ReviewInput{Rating: 0})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Create(context.Background(), uuid.New(), uuid.New(), ReviewInput{Rating: 6})
	assert.True(t, apperror.IsValidation(err))
}

func TestReviewService_Create_Duplicate(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockReviewOrders)
	svc := NewReviewService(repo, orders, nil)
	ctx := context.Background()

	clientID := uuid.New()
	order := completedOrder(clientID, uuid.New())

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(repository.ErrDuplicateReview)

	_, err := svc.Create(ctx, order.ID, clientID, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, apperror.ErrDuplicateReview)
}

func TestReviewService_Update_WindowExpired(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockReviewOrders), nil)
	ctx := context.Background()

	clientID := uuid.New()
	reviewID := uuid.New()
	repo.On("GetByID", ctx, reviewID).Return(&models.Review{
		ID:               reviewID,
		ClientID:         clientID,
		ModerationStatus: models.ModerationStatusApproved,
		CreatedAt:        time.Now().Add(-8 * 24 * time.Hour),
	}, nil)

	_, err := svc.Update(ctx, reviewID, clientID, ReviewInput{Rating: 3})
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "истёк")
}

func TestReviewService_Update_WithinWindow(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockReviewOrders), nil)
	ctx := context.Background()

	clientID := uuid.New()
	reviewID := uuid.New()
	repo.On("GetByID", ctx, reviewID).Return(&models.Review{
		ID:               reviewID,
		ClientID:         clientID,
		Rating:           5,
		ModerationStatus: models.ModerationStatusApproved,
		CreatedAt:        time.Now().Add(-2 * 24 * time.Hour),
	}, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	review, err := svc.Update(ctx, reviewID, clientID, ReviewInput{Rating: 3})
	assert.NoError(t, err)
	assert.Equal(t, 3, review.Rating)
}

func TestReviewService_Respond_OnlyOnce(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockReviewOrders), nil)
	ctx := context.Background()

	freelancerID := uuid.New()
	reviewID := uuid.New()
	existing := "спасибо"
	repo.On("GetByID", ctx, reviewID).Return(&models.Review{
		ID:           reviewID,
		FreelancerID: freelancerID,
		Response:     &existing,
	}, nil)

	_, err := svc.Respond(ctx, reviewID, freelancerID, "ещё раз спасибо")
	assert.True(t, apperror.IsConflict(err))
	repo.AssertNotCalled(t, "SetResponse", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_Respond_RaceMapsToConflict(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockReviewOrders), nil)
	ctx := context.Background()

	freelancerID := uuid.New()
	reviewID := uuid.New()
	repo.On("GetByID", ctx, reviewID).Return(&models.Review{
		ID:           reviewID,
		FreelancerID: freelancerID,
	}, nil)
	repo.On("SetResponse", ctx, reviewID, "спасибо").Return(nil, repository.ErrReviewNotFound)

	_, err := svc.Respond(ctx, reviewID, freelancerID, "спасибо")
	assert.True(t, apperror.IsConflict(err))
}

func TestReviewService_Respond_OnlyFreelancer(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockReviewOrders), nil)
	ctx := context.Background()

	reviewID := uuid.New()
	repo.On("GetByID", ctx, reviewID).Return(&models.Review{
		ID:           reviewID,
		FreelancerID: uuid.New(),
	}, nil)

	_, err := svc.Respond(ctx, reviewID, uuid.New(), "спасибо")
	assert.True(t, apperror.IsForbidden(err))
}

func TestReviewService_Delete_AuthorOrAdmin(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockReviewOrders), nil)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	reviewID := uuid.New()
	review := &models.Review{ID: reviewID, ClientID: clientID, FreelancerID: freelancerID}

	repo.On("GetByID", ctx, reviewID).Return(review, nil)
	repo.On("Delete", ctx, reviewID, freelancerID).Return(nil)

	assert.NoError(t, svc.Delete(ctx, reviewID, clientID, models.RoleClient))
	assert.NoError(t, svc.Delete(ctx, reviewID, uuid.New(), models.RoleAdmin))

	err := svc.Delete(ctx, reviewID, uuid.New(), models.RoleClient)
	assert.True(t, apperror.IsForbidden(err))
}
