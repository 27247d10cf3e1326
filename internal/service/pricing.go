package service

import (
	"fmt"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
)

// Наценка за срочность: итог равен полутора базовым ценам,
// из них половина базовой цены — приоритетный сбор.
const (
	urgentTotalMultiplier = 1.5
	urgentFeeMultiplier   = 0.5
)

// PriceQuote — результат расчёта стоимости заказа.
type PriceQuote struct {
	BasePrice   float64
	TotalPrice  float64
	PriorityFee *float64
}

// ResolvePrice вычисляет стоимость заказа по пакету услуги.
// Цена берётся только из прайсинга услуги, клиентскому вводу не доверяем.
func ResolvePrice(gig *models.Gig, packageName string, isUrgent bool) (*PriceQuote, error) {
	if gig.Status != models.GigStatusActive {
		return nil, fmt.Errorf("услуга недоступна для заказа")
	}

	base, ok := gig.Pricing[packageName]
	if !ok {
		return nil, fmt.Errorf("пакет %q отсутствует в услуге", packageName)
	}
	if base <= 0 {
		return nil, fmt.Errorf("пакет %q имеет некорректную цену", packageName)
	}

	quote := &PriceQuote{
		BasePrice:  base,
		TotalPrice: base,
	}

	if isUrgent {
		fee := base * urgentFeeMultiplier
		quote.TotalPrice = base * urgentTotalMultiplier
		quote.PriorityFee = &fee
	}

	return quote, nil
}
