package models

import (
	"time"

	"github.com/google/uuid"
)

// Review описывает отзыв клиента о выполненном заказе.
// На заказ допускается только один отзыв.
type Review struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	OrderID          uuid.UUID  `db:"order_id" json:"order_id"`
	GigID            uuid.UUID  `db:"gig_id" json:"gig_id"`
	ClientID         uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID     uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	Rating           int        `db:"rating" json:"rating"`
	Title            *string    `db:"title" json:"title,omitempty"`
	Comment          *string    `db:"comment" json:"comment,omitempty"`
	IsAnonymous      bool       `db:"is_anonymous" json:"is_anonymous"`
	ModerationStatus string     `db:"moderation_status" json:"moderation_status"`
	Response         *string    `db:"response" json:"response,omitempty"`
	RespondedAt      *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
