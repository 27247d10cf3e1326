package models

import (
	"time"

	"github.com/google/uuid"
)

// Message — сообщение между сторонами заказа.
// Удаление мягкое: строка остаётся с флагом is_deleted.
type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
