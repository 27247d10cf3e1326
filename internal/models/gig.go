package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pricing хранит карту пакет -> цена. В базе лежит как JSONB.
type Pricing map[string]float64

// Value сериализует прайсинг для записи в БД.
func (p Pricing) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan читает прайсинг из JSONB колонки.
func (p *Pricing) Scan(src interface{}) error {
	if src == nil {
		*p = Pricing{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("pricing: неподдерживаемый тип %T", src)
	}

	return json.Unmarshal(raw, p)
}

// Validate проверяет, что все цены положительные.
func (p Pricing) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("прайсинг не может быть пустым")
	}
	for pkg, price := range p {
		if pkg == "" {
			return fmt.Errorf("название пакета не может быть пустым")
		}
		if price <= 0 {
			return fmt.Errorf("цена пакета %q должна быть положительной", pkg)
		}
	}
	return nil
}

// Gig описывает услугу, которую предлагает фрилансер.
type Gig struct {
	ID            uuid.UUID `db:"id" json:"id"`
	FreelancerID  uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Category      string    `db:"category" json:"category"`
	Tags          []string  `db:"tags" json:"tags"`
	Pricing       Pricing   `db:"pricing" json:"pricing"`
	DeliveryDays  int       `db:"delivery_days" json:"delivery_days"`
	RevisionCount int       `db:"revision_count" json:"revision_count"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
