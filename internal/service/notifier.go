package service

import "github.com/google/uuid"

// Notifier доставляет событие пользователю через WebSocket и сохраняет
// уведомление в БД. Реализуется ws.Hub.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// События, отправляемые пользователям.
const (
	EventOrderCreated     = "order:created"
	EventOrderStatus      = "order:status_changed"
	EventOrderExtended    = "order:delivery_extended"
	EventPaymentCompleted = "payment:completed"
	EventPaymentRefunded  = "payment:refunded"
	EventDisputeOpened    = "dispute:opened"
	EventDisputeUpdated   = "dispute:updated"
	EventDisputeComment   = "dispute:comment"
	EventReviewCreated    = "review:created"
	EventReviewResponse   = "review:response"
	EventMessageReceived  = "message:received"
)
