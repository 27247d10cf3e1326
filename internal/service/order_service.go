package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/goroutine"
	"github.com/mkuleshov/gigmarket-backend/internal/logger"
	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
	"github.com/mkuleshov/gigmarket-backend/internal/validation"
)

// Каждое продление сдвигает дедлайн на фиксированный срок.
const extensionDays = 7

// Коллизия случайного суффикса номера маловероятна, но возможна:
// на неё отвечаем повторной генерацией.
const orderNumberAttempts = 3

// OrderRepositoryIface описывает зависимости OrderService от слоя хранилища.
type OrderRepositoryIface interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Order, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, toStatus string, changedBy uuid.UUID, comment *string) (*models.Order, error)
	ExtendDelivery(ctx context.Context, orderID uuid.UUID, days int, requestedBy uuid.UUID, reason string) (*models.Order, error)
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
}

// OrderGigReader — доступ к услугам, нужный при создании заказа.
type OrderGigReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
}

// OrderService управляет жизненным циклом заказов.
type OrderService struct {
	repo     OrderRepositoryIface
	gigs     OrderGigReader
	notifier Notifier
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(repo OrderRepositoryIface, gigs OrderGigReader, notifier Notifier) *OrderService {
	return &OrderService{
		repo:     repo,
		gigs:     gigs,
		notifier: notifier,
	}
}

// CreateOrderInput содержит данные для создания заказа.
type CreateOrderInput struct {
	GigID         uuid.UUID
	Package       string
	IsUrgent      bool
	Requirements  *string
	CustomDetails json.RawMessage
}

// Create создаёт заказ. Цена рассчитывается по прайсингу услуги,
// номер заказа формируется из даты и случайного суффикса.
func (s *OrderService) Create(ctx context.Context, clientID uuid.UUID, in CreateOrderInput) (*models.Order, error) {
	gig, err := s.gigs.GetByID(ctx, in.GigID)
	if err != nil {
		return nil, err
	}

	if gig.FreelancerID == clientID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя заказать собственную услугу")
	}

	if in.Requirements != nil {
		if err := validation.ValidateLength("требования", *in.Requirements, 0, validation.MaxRequirementsLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	quote, err := ResolvePrice(gig, in.Package, in.IsUrgent)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	order := &models.Order{
		GigID:         gig.ID,
		ClientID:      clientID,
		FreelancerID:  gig.FreelancerID,
		Package:       in.Package,
		TotalPrice:    quote.TotalPrice,
		IsUrgent:      in.IsUrgent,
		PriorityFee:   quote.PriorityFee,
		Requirements:  in.Requirements,
		CustomDetails: in.CustomDetails,
		Status:        models.OrderStatusPending,
		DeliveryDate:  time.Now().AddDate(0, 0, gig.DeliveryDays),
	}

	if err := s.createWithNumber(ctx, order); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_price":  order.TotalPrice,
	}).Info("order service: заказ создан")

	s.notify(order.FreelancerID, EventOrderCreated, order)

	return order, nil
}

// GetByID возвращает заказ. Доступ имеют стороны заказа и администраторы.
func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID, role string) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParty(userID) && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	return order, nil
}

// GetByNumber возвращает заказ по человекочитаемому номеру.
func (s *OrderService) GetByNumber(ctx context.Context, orderNumber string, userID uuid.UUID, role string) (*models.Order, error) {
	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if !order.IsParty(userID) && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	return order, nil
}

// ListMine возвращает заказы пользователя.
func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Order, error) {
	if status != "" {
		if _, ok := models.ValidOrderStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("недопустимый статус %q", status))
		}
	}
	limit, offset = clampPage(limit, offset)

	return s.repo.ListByUser(ctx, userID, status, limit, offset)
}

// Transition переводит заказ в новый статус с проверкой прав стороны.
func (s *OrderService) Transition(ctx context.Context, orderID, userID uuid.UUID, role, toStatus string, comment *string) (*models.Order, error) {
	if _, ok := models.ValidOrderStatuses[toStatus]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("недопустимый статус %q", toStatus))
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeTransition(order, userID, role, toStatus); err != nil {
		return nil, err
	}

	updated, err := s.repo.TransitionStatus(ctx, orderID, toStatus, userID, comment)
	if err != nil {
		return nil, err
	}

	s.notifyParties(updated, userID, EventOrderStatus, updated)

	return updated, nil
}

// Cancel отменяет заказ с указанием причины.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID, role string, reason *string) (*models.Order, error) {
	return s.Transition(ctx, orderID, userID, role, models.OrderStatusCancelled, reason)
}

// ExtendDelivery продлевает срок выполнения на неделю.
// Статус заказа при этом не меняется.
func (s *OrderService) ExtendDelivery(ctx context.Context, orderID, userID uuid.UUID, role, reason string) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.FreelancerID != userID && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	if models.IsTerminalOrderStatus(order.Status) {
		return nil, apperror.New(apperror.ErrCodeValidation, "заказ уже завершён")
	}

	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина продления обязательна")
	}

	updated, err := s.repo.ExtendDelivery(ctx, orderID, extensionDays, userID, reason)
	if err != nil {
		return nil, err
	}

	s.notify(updated.ClientID, EventOrderExtended, updated)

	return updated, nil
}

// History возвращает журнал статусов заказа.
func (s *OrderService) History(ctx context.Context, orderID, userID uuid.UUID, role string) ([]models.OrderStatusHistory, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParty(userID) && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	return s.repo.ListHistory(ctx, orderID)
}

// authorizeTransition проверяет, что именно этот пользователь может
// выполнить переход. Таблица переходов проверяется репозиторием,
// здесь решается только вопрос «кто».
func (s *OrderService) authorizeTransition(order *models.Order, userID uuid.UUID, role, toStatus string) error {
	if role == models.RoleAdmin {
		return nil
	}

	if !order.IsParty(userID) {
		return apperror.ErrForbidden
	}

	switch toStatus {
	case models.OrderStatusAccepted, models.OrderStatusInProgress, models.OrderStatusDelivered:
		// Рабочие статусы проставляет исполнитель.
		if userID != order.FreelancerID {
			return apperror.New(apperror.ErrCodeForbidden, fmt.Sprintf("переход в %s доступен только исполнителю", toStatus))
		}
	case models.OrderStatusCompleted:
		// Приёмка работы — право клиента.
		if userID != order.ClientID {
			return apperror.New(apperror.ErrCodeForbidden, "подтвердить выполнение может только клиент")
		}
		if order.Status == models.OrderStatusDisputed {
			return apperror.New(apperror.ErrCodeForbidden, "спорный заказ закрывает только администратор")
		}
	case models.OrderStatusCancelled:
		if order.Status == models.OrderStatusDisputed {
			return apperror.New(apperror.ErrCodeForbidden, "спорный заказ закрывает только администратор")
		}
	case models.OrderStatusDisputed:
		return apperror.New(apperror.ErrCodeValidation, "спор открывается через сервис споров")
	default:
		return apperror.New(apperror.ErrCodeForbidden, fmt.Sprintf("переход в %s недоступен", toStatus))
	}

	return nil
}

// createWithNumber сохраняет заказ, перегенерируя номер при коллизии.
func (s *OrderService) createWithNumber(ctx context.Context, order *models.Order) error {
	for attempt := 1; ; attempt++ {
		order.OrderNumber = newOrderNumber()

		err := s.repo.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return err
		}
		if attempt >= orderNumberAttempts {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сгенерировать номер заказа")
		}
	}
}

// newOrderNumber формирует номер вида ORD-YYYYMMDD-XXXXXX
// со случайным base36 суффиксом.
func newOrderNumber() string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}

	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

// notify отправляет событие одному пользователю, не блокируя запрос.
func (s *OrderService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}

	goroutine.SafeGo(func() {
		if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
			logger.Log.Errorf("order service: не удалось отправить уведомление: %v", err)
		}
	})
}

// notifyParties уведомляет вторую сторону заказа о событии.
func (s *OrderService) notifyParties(order *models.Order, actorID uuid.UUID, event string, data any) {
	if order.ClientID != actorID {
		s.notify(order.ClientID, event, data)
	}
	if order.FreelancerID != actorID {
		s.notify(order.FreelancerID, event, data)
	}
}
