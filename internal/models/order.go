package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Order описывает заказ услуги клиентом у фрилансера.
// Заказы никогда не удаляются: отмена фиксируется статусом CANCELLED.
type Order struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	OrderNumber        string          `db:"order_number" json:"order_number"`
	GigID              uuid.UUID       `db:"gig_id" json:"gig_id"`
	ClientID           uuid.UUID       `db:"client_id" json:"client_id"`
	FreelancerID       uuid.UUID       `db:"freelancer_id" json:"freelancer_id"`
	Package            string          `db:"package" json:"package"`
	TotalPrice         float64         `db:"total_price" json:"total_price"`
	IsUrgent           bool            `db:"is_urgent" json:"is_urgent"`
	PriorityFee        *float64        `db:"priority_fee" json:"priority_fee,omitempty"`
	Requirements       *string         `db:"requirements" json:"requirements,omitempty"`
	CustomDetails      json.RawMessage `db:"custom_details" json:"custom_details,omitempty"`
	Status             string          `db:"status" json:"status"`
	DeliveryDate       time.Time       `db:"delivery_date" json:"delivery_date"`
	ExtensionCount     int             `db:"extension_count" json:"extension_count"`
	CancellationReason *string         `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time      `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// IsParty сообщает, является ли пользователь стороной заказа.
func (o *Order) IsParty(userID uuid.UUID) bool {
	return userID == o.ClientID || userID == o.FreelancerID
}

// OrderStatusHistory — запись журнала смены статусов заказа.
// Журнал append-only: записи не изменяются и не удаляются.
type OrderStatusHistory struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	FromStatus *string   `db:"from_status" json:"from_status,omitempty"`
	ToStatus   string    `db:"to_status" json:"to_status"`
	ChangedBy  uuid.UUID `db:"changed_by" json:"changed_by"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
