package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction описывает денежную операцию по заказу.
// Возврат хранится отдельной строкой типа REFUND с отрицательной суммой.
type Transaction struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	OrderID         uuid.UUID  `db:"order_id" json:"order_id"`
	PayerID         uuid.UUID  `db:"payer_id" json:"payer_id"`
	PayeeID         uuid.UUID  `db:"payee_id" json:"payee_id"`
	Type            string     `db:"type" json:"type"`
	Amount          float64    `db:"amount" json:"amount"`
	Currency        string     `db:"currency" json:"currency"`
	Status          string     `db:"status" json:"status"`
	PaymentIntentID *string    `db:"payment_intent_id" json:"payment_intent_id,omitempty"`
	RefundID        *string    `db:"refund_id" json:"refund_id,omitempty"`
	Description     *string    `db:"description" json:"description,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// MonthlyEarnings — сводка заработка фрилансера за месяц.
type MonthlyEarnings struct {
	Month  string  `db:"month" json:"month"`
	Total  float64 `db:"total" json:"total"`
	Orders int     `db:"orders" json:"orders"`
}
