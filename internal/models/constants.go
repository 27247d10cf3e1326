package models

// Роли пользователей
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

// GigStatus константы статусов услуг
const (
	GigStatusDraft    = "DRAFT"
	GigStatusActive   = "ACTIVE"
	GigStatusPaused   = "PAUSED"
	GigStatusArchived = "ARCHIVED"
)

// OrderStatus константы статусов заказов
const (
	OrderStatusPending    = "PENDING"
	OrderStatusAccepted   = "ACCEPTED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusDisputed   = "DISPUTED"
	OrderStatusCancelled  = "CANCELLED"
)

// DisputeStatus константы статусов споров
const (
	DisputeStatusOpen     = "OPEN"
	DisputeStatusInReview = "IN_REVIEW"
	DisputeStatusResolved = "RESOLVED"
	DisputeStatusClosed   = "CLOSED"
)

// Типы транзакций
const (
	TransactionTypePayment = "PAYMENT"
	TransactionTypeRefund  = "REFUND"
	TransactionTypePayout  = "PAYOUT"
)

// Статусы транзакций
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

// ModerationStatus константы статусов модерации отзывов
const (
	ModerationStatusPending  = "PENDING"
	ModerationStatusApproved = "APPROVED"
	ModerationStatusRejected = "REJECTED"
)

// ValidOrderTransitions описывает допустимые переходы статусов заказа.
// COMPLETED и CANCELLED — терминальные состояния без исходящих переходов,
// DISPUTED — транзитный статус, который обязан завершиться в COMPLETED или CANCELLED.
var ValidOrderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:   {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusCompleted, OrderStatusDisputed},
	OrderStatusDisputed:   {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPending:    {},
	OrderStatusAccepted:   {},
	OrderStatusInProgress: {},
	OrderStatusDelivered:  {},
	OrderStatusCompleted:  {},
	OrderStatusDisputed:   {},
	OrderStatusCancelled:  {},
}

// ValidDisputeStatuses список валидных статусов споров
var ValidDisputeStatuses = map[string]struct{}{
	DisputeStatusOpen:     {},
	DisputeStatusInReview: {},
	DisputeStatusResolved: {},
	DisputeStatusClosed:   {},
}

// ValidGigStatuses список валидных статусов услуг
var ValidGigStatuses = map[string]struct{}{
	GigStatusDraft:    {},
	GigStatusActive:   {},
	GigStatusPaused:   {},
	GigStatusArchived: {},
}

// CanTransition проверяет, допустим ли переход статуса заказа из from в to.
func CanTransition(from, to string) bool {
	for _, allowed := range ValidOrderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminalOrderStatus сообщает, является ли статус заказа терминальным.
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}
