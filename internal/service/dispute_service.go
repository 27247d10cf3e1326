package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/goroutine"
	"github.com/mkuleshov/gigmarket-backend/internal/logger"
	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/validation"
)

// DisputeRepositoryIface описывает зависимости DisputeService от слоя хранилища.
type DisputeRepositoryIface interface {
	Create(ctx context.Context, dispute *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error)
	UpdateStatus(ctx context.Context, disputeID uuid.UUID, status string, resolution *string, resolvedBy uuid.UUID) (*models.Dispute, error)
	AddComment(ctx context.Context, comment *models.DisputeComment) error
	ListComments(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeComment, error)
	AddEvidence(ctx context.Context, evidence *models.DisputeEvidence) error
	ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeEvidence, error)
}

// DisputeOrderReader — доступ к заказам, нужный сервису споров.
type DisputeOrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// AdminLister возвращает идентификаторы администраторов для уведомлений.
type AdminLister interface {
	ListAdmins(ctx context.Context) ([]uuid.UUID, error)
}

// DisputeService управляет спорами по заказам.
type DisputeService struct {
	repo     DisputeRepositoryIface
	orders   DisputeOrderReader
	admins   AdminLister
	notifier Notifier
}

// NewDisputeService создаёт сервис споров.
func NewDisputeService(repo DisputeRepositoryIface, orders DisputeOrderReader, admins AdminLister, notifier Notifier) *DisputeService {
	return &DisputeService{
		repo:     repo,
		orders:   orders,
		admins:   admins,
		notifier: notifier,
	}
}

// OpenDisputeInput содержит данные для открытия спора.
type OpenDisputeInput struct {
	OrderID     uuid.UUID
	Reason      string
	Description *string
}

// Open открывает спор по заказу. Спор может открыть только сторона заказа,
// заказ переводится в DISPUTED принудительно.
func (s *DisputeService) Open(ctx context.Context, userID uuid.UUID, in OpenDisputeInput) (*models.Dispute, error) {
	if err := validation.ValidateLength("причина", in.Reason, 1, validation.MaxDisputeReasonLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParty(userID) {
		return nil, apperror.ErrForbidden
	}

	dispute := &models.Dispute{
		OrderID:     in.OrderID,
		InitiatorID: userID,
		Reason:      in.Reason,
		Description: in.Description,
	}

	if err := s.repo.Create(ctx, dispute); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"dispute_id": dispute.ID,
		"order_id":   order.ID,
	}).Info("dispute service: спор открыт")

	// Уведомляем вторую сторону и администраторов.
	counterparty := order.ClientID
	if userID == order.ClientID {
		counterparty = order.FreelancerID
	}
	s.notify(counterparty, EventDisputeOpened, dispute)
	s.notifyAdmins(ctx, EventDisputeOpened, dispute)

	return dispute, nil
}

// GetByID возвращает спор. Доступ имеют стороны заказа и администраторы.
func (s *DisputeService) GetByID(ctx context.Context, disputeID, userID uuid.UUID, role string) (*models.Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, dispute, userID, role); err != nil {
		return nil, err
	}

	return dispute, nil
}

// GetByOrder возвращает спор по заказу.
func (s *DisputeService) GetByOrder(ctx context.Context, orderID, userID uuid.UUID, role string) (*models.Dispute, error) {
	dispute, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, dispute, userID, role); err != nil {
		return nil, err
	}

	return dispute, nil
}

// ListMine возвращает споры пользователя.
func (s *DisputeService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ListAll возвращает все споры. Доступно только администраторам.
func (s *DisputeService) ListAll(ctx context.Context, role, status string, limit, offset int) ([]models.Dispute, error) {
	if role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	if status != "" {
		if _, ok := models.ValidDisputeStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("недопустимый статус %q", status))
		}
	}

	limit, offset = clampPage(limit, offset)
	return s.repo.ListAll(ctx, status, limit, offset)
}

// UpdateStatus меняет статус спора. Доступно только администраторам.
// Для RESOLVED и CLOSED резолюция обязательна, заказ принудительно
// завершается.
func (s *DisputeService) UpdateStatus(ctx context.Context, disputeID, adminID uuid.UUID, role, status string, resolution *string) (*models.Dispute, error) {
	if role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	if _, ok := models.ValidDisputeStatuses[status]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("недопустимый статус %q", status))
	}

	final := status == models.DisputeStatusResolved || status == models.DisputeStatusClosed
	if final {
		if resolution == nil || *resolution == "" {
			return nil, apperror.New(apperror.ErrCodeValidation, "резолюция обязательна при закрытии спора")
		}
		if err := validation.ValidateLength("резолюция", *resolution, 1, validation.MaxResolutionLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	current, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.DisputeStatusResolved || current.Status == models.DisputeStatusClosed {
		return nil, apperror.New(apperror.ErrCodeValidation, "спор уже закрыт")
	}

	dispute, err := s.repo.UpdateStatus(ctx, disputeID, status, resolution, adminID)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"dispute_id": dispute.ID,
		"status":     dispute.Status,
	}).Info("dispute service: статус спора обновлён")

	if order, err := s.orders.GetByID(ctx, dispute.OrderID); err == nil {
		s.notify(order.ClientID, EventDisputeUpdated, dispute)
		s.notify(order.FreelancerID, EventDisputeUpdated, dispute)
	}

	return dispute, nil
}

// AddComment добавляет комментарий в спор.
func (s *DisputeService) AddComment(ctx context.Context, disputeID, userID uuid.UUID, role, text string) (*models.DisputeComment, error) {
	if err := validation.ValidateLength("комментарий", text, 1, validation.MaxResolutionLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, dispute, userID, role); err != nil {
		return nil, err
	}

	if dispute.Status == models.DisputeStatusResolved || dispute.Status == models.DisputeStatusClosed {
		return nil, apperror.New(apperror.ErrCodeValidation, "спор уже закрыт")
	}

	comment := &models.DisputeComment{
		DisputeID: disputeID,
		AuthorID:  userID,
		Comment:   text,
	}

	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	if order, err := s.orders.GetByID(ctx, dispute.OrderID); err == nil {
		counterparty := order.ClientID
		if userID == order.ClientID {
			counterparty = order.FreelancerID
		}
		s.notify(counterparty, EventDisputeComment, comment)
	}

	return comment, nil
}

// ListComments возвращает комментарии спора.
func (s *DisputeService) ListComments(ctx context.Context, disputeID, userID uuid.UUID, role string) ([]models.DisputeComment, error) {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, dispute, userID, role); err != nil {
		return nil, err
	}

	return s.repo.ListComments(ctx, disputeID)
}

// AddEvidence прикладывает загруженный файл к материалам спора.
func (s *DisputeService) AddEvidence(ctx context.Context, disputeID, userID, mediaID uuid.UUID, role string) (*models.DisputeEvidence, error) {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, dispute, userID, role); err != nil {
		return nil, err
	}

	if dispute.Status == models.DisputeStatusResolved || dispute.Status == models.DisputeStatusClosed {
		return nil, apperror.New(apperror.ErrCodeValidation, "спор уже закрыт")
	}

	evidence := &models.DisputeEvidence{
		DisputeID: disputeID,
		UserID:    userID,
		MediaID:   mediaID,
	}

	if err := s.repo.AddEvidence(ctx, evidence); err != nil {
		return nil, err
	}

	return evidence, nil
}

// ListEvidence возвращает материалы спора.
func (s *DisputeService) ListEvidence(ctx context.Context, disputeID, userID uuid.UUID, role string) ([]models.DisputeEvidence, error) {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, dispute, userID, role); err != nil {
		return nil, err
	}

	return s.repo.ListEvidence(ctx, disputeID)
}

// authorize проверяет доступ к спору: стороны заказа и администраторы.
func (s *DisputeService) authorize(ctx context.Context, dispute *models.Dispute, userID uuid.UUID, role string) error {
	if role == models.RoleAdmin {
		return nil
	}

	order, err := s.orders.GetByID(ctx, dispute.OrderID)
	if err != nil {
		return err
	}

	if !order.IsParty(userID) {
		return apperror.ErrForbidden
	}

	return nil
}

// notify отправляет событие пользователю, не блокируя запрос.
func (s *DisputeService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}

	goroutine.SafeGo(func() {
		if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
			logger.Log.Errorf("dispute service: не удалось отправить уведомление: %v", err)
		}
	})
}

// notifyAdmins рассылает событие всем администраторам.
func (s *DisputeService) notifyAdmins(ctx context.Context, event string, data any) {
	if s.admins == nil {
		return
	}

	adminIDs, err := s.admins.ListAdmins(ctx)
	if err != nil {
		logger.Log.Errorf("dispute service: не удалось получить список администраторов: %v", err)
		return
	}

	for _, adminID := range adminIDs {
		s.notify(adminID, event, data)
	}
}

// clampPage нормализует параметры пагинации.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
