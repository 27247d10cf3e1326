package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/goroutine"
	"github.com/mkuleshov/gigmarket-backend/internal/logger"
	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
	"github.com/mkuleshov/gigmarket-backend/internal/validation"
)

// Отзыв можно править неделю после публикации.
const reviewEditWindow = 7 * 24 * time.Hour

// ReviewRepositoryIface описывает зависимости ReviewService от слоя хранилища.
type ReviewRepositoryIface interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uuid.UUID, freelancerID uuid.UUID) error
	SetResponse(ctx context.Context, id uuid.UUID, response string) (*models.Review, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Review, error)
}

// ReviewOrderReader — доступ к заказам, нужный сервису отзывов.
type ReviewOrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ReviewService управляет отзывами о выполненных заказах.
type ReviewService struct {
	repo     ReviewRepositoryIface
	orders   ReviewOrderReader
	notifier Notifier
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(repo ReviewRepositoryIface, orders ReviewOrderReader, notifier Notifier) *ReviewService {
	return &ReviewService{
		repo:     repo,
		orders:   orders,
		notifier: notifier,
	}
}

// ReviewInput содержит данные отзыва.
type ReviewInput struct {
	Rating      int
	Title       *string
	Comment     *string
	IsAnonymous bool
}

// validate проверяет поля отзыва.
func (in *ReviewInput) validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("оценка должна быть от 1 до 5")
	}
	if in.Title != nil {
		if err := validation.ValidateLength("заголовок", *in.Title, 0, validation.MaxReviewTitleLength); err != nil {
			return err
		}
	}
	if in.Comment != nil {
		if err := validation.ValidateLength("комментарий", *in.Comment, 0, validation.MaxReviewCommentLength); err != nil {
			return err
		}
	}
	return nil
}

// Create публикует отзыв. Отзыв оставляет только клиент завершённого
// заказа, один раз на заказ. Рейтинг фрилансера пересчитывается сразу.
func (s *ReviewService) Create(ctx context.Context, orderID, userID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if err := in.validate(); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.ClientID != userID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отзыв оставляет только клиент заказа")
	}

	if order.Status != models.OrderStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeValidation, "отзыв можно оставить только на завершённый заказ")
	}

	review := &models.Review{
		OrderID:      orderID,
		GigID:        order.GigID,
		ClientID:     order.ClientID,
		FreelancerID: order.FreelancerID,
		Rating:       in.Rating,
		Title:        in.Title,
		Comment:      in.Comment,
		IsAnonymous:  in.IsAnonymous,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperror.ErrDuplicateReview
		}
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"review_id": review.ID,
		"order_id":  orderID,
		"rating":    review.Rating,
	}).Info("review service: отзыв опубликован")

	s.notify(order.FreelancerID, EventReviewCreated, review)

	return review, nil
}

// GetByID возвращает отзыв.
func (s *ReviewService) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByOrder возвращает отзыв по заказу.
func (s *ReviewService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	return s.repo.GetByOrderID(ctx, orderID)
}

// Update правит отзыв. Доступно автору в течение недели после
// публикации, пока отзыв одобрен модерацией.
func (s *ReviewService) Update(ctx context.Context, reviewID, userID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if err := in.validate(); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.ClientID != userID {
		return nil, apperror.ErrForbidden
	}

	if review.ModerationStatus != models.ModerationStatusApproved {
		return nil, apperror.New(apperror.ErrCodeValidation, "отзыв на модерации нельзя изменить")
	}

	if time.Since(review.CreatedAt) > reviewEditWindow {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок редактирования отзыва истёк")
	}

	review.Rating = in.Rating
	review.Title = in.Title
	review.Comment = in.Comment
	review.IsAnonymous = in.IsAnonymous

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

// Delete удаляет отзыв. Доступно автору и администраторам,
// рейтинг фрилансера пересчитывается.
func (s *ReviewService) Delete(ctx context.Context, reviewID, userID uuid.UUID, role string) error {
	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}

	if review.ClientID != userID && role != models.RoleAdmin {
		return apperror.ErrForbidden
	}

	return s.repo.Delete(ctx, reviewID, review.FreelancerID)
}

// Respond сохраняет ответ фрилансера на отзыв. Ответить можно один раз.
func (s *ReviewService) Respond(ctx context.Context, reviewID, userID uuid.UUID, response string) (*models.Review, error) {
	if err := validation.ValidateLength("ответ", response, 1, validation.MaxReviewCommentLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.FreelancerID != userID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "ответить может только исполнитель")
	}

	if review.Response != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "ответ на отзыв уже оставлен")
	}

	updated, err := s.repo.SetResponse(ctx, reviewID, response)
	if err != nil {
		// Гонка двух ответов: строка уже занята.
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, apperror.New(apperror.ErrCodeConflict, "ответ на отзыв уже оставлен")
		}
		return nil, err
	}

	s.notify(review.ClientID, EventReviewResponse, updated)

	return updated, nil
}

// ListByFreelancer возвращает одобренные отзывы о фрилансере.
func (s *ReviewService) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Review, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}

// notify отправляет событие пользователю, не блокируя запрос.
func (s *ReviewService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}

	goroutine.SafeGo(func() {
		if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
			logger.Log.Errorf("review service: не удалось отправить уведомление: %v", err)
		}
	})
}
