package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute описывает спор по заказу. На заказ допускается только один спор.
type Dispute struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	OrderID     uuid.UUID  `db:"order_id" json:"order_id"`
	InitiatorID uuid.UUID  `db:"initiator_id" json:"initiator_id"`
	Reason      string     `db:"reason" json:"reason"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      string     `db:"status" json:"status"`
	Resolution  *string    `db:"resolution" json:"resolution,omitempty"`
	ResolvedBy  *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// DisputeComment — комментарий стороны или администратора в споре.
type DisputeComment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DisputeID uuid.UUID `db:"dispute_id" json:"dispute_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DisputeEvidence связывает загруженный файл с материалами спора.
type DisputeEvidence struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DisputeID uuid.UUID `db:"dispute_id" json:"dispute_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	MediaID   uuid.UUID `db:"media_id" json:"media_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
