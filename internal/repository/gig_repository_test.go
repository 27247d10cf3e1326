package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildGigSearchQuery_NoFilters(t *testing.T) {
	query, args := buildGigSearchQuery(GigSearchParams{Limit: 20, Offset: 0})

	assert.Contains(t, query, `WHERE status = 'ACTIVE'`)
	assert.Contains(t, query, `ORDER BY created_at DESC`)
	assert.Contains(t, query, `LIMIT $1 OFFSET $2`)
	assert.Equal(t, []interface{}{20, 0}, args)
}

func TestBuildGigSearchQuery_PriceBounds(t *testing.T) {
	minPrice := 50.0
	maxPrice := 500.0
	query, args := buildGigSearchQuery(GigSearchParams{
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
		Limit:    20,
		Offset:   0,
	})

	// Границы сравниваются с минимальной ценой пакета из JSONB прайсинга.
	assert.Contains(t, query, gigMinPriceExpr+` >= $1`)
	assert.Contains(t, query, gigMinPriceExpr+` <= $2`)
	assert.Contains(t, query, `LIMIT $3 OFFSET $4`)
	assert.Equal(t, []interface{}{minPrice, maxPrice, 20, 0}, args)
}

func TestBuildGigSearchQuery_AllFilters(t *testing.T) {
	freelancerID := uuid.New()
	minPrice := 100.0
	query, args := buildGigSearchQuery(GigSearchParams{
		Query:        "логотип",
		Category:     "design",
		Tags:         []string{"logo"},
		FreelancerID: &freelancerID,
		MinPrice:     &minPrice,
		Limit:        10,
		Offset:       20,
	})

	assert.Contains(t, query, `title ILIKE $1 OR description ILIKE $1`)
	assert.Contains(t, query, `category = $2`)
	assert.Contains(t, query, `tags && $3`)
	assert.Contains(t, query, `freelancer_id = $4`)
	assert.Contains(t, query, gigMinPriceExpr+` >= $5`)
	assert.Contains(t, query, `LIMIT $6 OFFSET $7`)
	assert.Len(t, args, 7)
	assert.Equal(t, "%логотип%", args[0])
	assert.Equal(t, minPrice, args[4])
}
