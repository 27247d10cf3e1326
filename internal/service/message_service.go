package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/goroutine"
	"github.com/mkuleshov/gigmarket-backend/internal/logger"
	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/validation"
)

// MessageRepositoryIface описывает зависимости MessageService от слоя хранилища.
type MessageRepositoryIface interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]models.Message, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// MessageOrderReader — доступ к заказам, нужный сервису сообщений.
type MessageOrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// MessageService управляет перепиской сторон заказа.
type MessageService struct {
	repo     MessageRepositoryIface
	orders   MessageOrderReader
	notifier Notifier
}

// NewMessageService создаёт сервис сообщений.
func NewMessageService(repo MessageRepositoryIface, orders MessageOrderReader, notifier Notifier) *MessageService {
	return &MessageService{
		repo:     repo,
		orders:   orders,
		notifier: notifier,
	}
}

// Send отправляет сообщение в переписку заказа. Писать могут только стороны.
func (s *MessageService) Send(ctx context.Context, orderID, senderID uuid.UUID, content string) (*models.Message, error) {
	if err := validation.ValidateLength("сообщение", content, validation.MinMessageLength, validation.MaxMessageLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParty(senderID) {
		return nil, apperror.ErrForbidden
	}

	message := &models.Message{
		OrderID:  orderID,
		SenderID: senderID,
		Content:  content,
	}

	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}

	recipient := order.ClientID
	if senderID == order.ClientID {
		recipient = order.FreelancerID
	}
	s.notify(recipient, EventMessageReceived, message)

	return message, nil
}

// ListByOrder возвращает переписку заказа. Доступ у сторон и администраторов.
func (s *MessageService) ListByOrder(ctx context.Context, orderID, userID uuid.UUID, role string, limit, offset int) ([]models.Message, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParty(userID) && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	limit, offset = clampPage(limit, offset)
	return s.repo.ListByOrder(ctx, orderID, limit, offset)
}

// Delete скрывает сообщение. Доступно автору и администраторам.
func (s *MessageService) Delete(ctx context.Context, messageID, userID uuid.UUID, role string) error {
	message, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if message.SenderID != userID && role != models.RoleAdmin {
		return apperror.ErrForbidden
	}

	return s.repo.SoftDelete(ctx, messageID)
}

// notify отправляет событие пользователю, не блокируя запрос.
func (s *MessageService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}

	goroutine.SafeGo(func() {
		if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
			logger.Log.Errorf("message service: не удалось отправить уведомление: %v", err)
		}
	})
}
