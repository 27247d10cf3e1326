package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
)

// NotificationRepositoryIface описывает зависимости NotificationService от слоя хранилища.
type NotificationRepositoryIface interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService управляет уведомлениями пользователей.
type NotificationService struct {
	repo NotificationRepositoryIface
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo NotificationRepositoryIface) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotificationForWS сохраняет уведомление, отправляемое через WebSocket.
// Используется хабом при доставке события.
func (s *NotificationService) CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"type": event,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("notification service: не удалось сериализовать payload: %w", err)
	}

	notification := &models.Notification{
		UserID:  userID,
		Payload: payload,
	}

	return s.repo.Create(ctx, notification)
}

// List возвращает уведомления пользователя.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkAsRead отмечает уведомление прочитанным. Чужие уведомления недоступны.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if notification.UserID != userID {
		return apperror.ErrForbidden
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead отмечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// Delete удаляет уведомление. Чужие уведомления недоступны.
func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if notification.UserID != userID {
		return apperror.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

// CountUnread возвращает число непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
