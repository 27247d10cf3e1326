package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
)

func activeGig() *models.Gig {
	return &models.Gig{
		Status: models.GigStatusActive,
		Pricing: models.Pricing{
			"basic":   100,
			"premium": 250,
		},
	}
}

func TestResolvePrice_Basic(t *testing.T) {
	quote, err := ResolvePrice(activeGig(), "basic", false)
	assert.NoError(t, err)
	assert.Equal(t, float64(100), quote.BasePrice)
	assert.Equal(t, float64(100), quote.TotalPrice)
	assert.Nil(t, quote.PriorityFee)
}

func TestResolvePrice_Urgent(t *testing.T) {
	quote, err := ResolvePrice(activeGig(), "premium", true)
	assert.NoError(t, err)
	assert.Equal(t, float64(250), quote.BasePrice)
	assert.Equal(t, float64(375), quote.TotalPrice)
	if assert.NotNil(t, quote.PriorityFee) {
		assert.Equal(t, float64(125), *quote.PriorityFee)
	}
}

func TestResolvePrice_InactiveGig(t *testing.T) {
	gig := activeGig()
	gig.Status = models.GigStatusPaused

	_, err := ResolvePrice(gig, "basic", false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "недоступна")
}

func TestResolvePrice_UnknownPackage(t *testing.T) {
	_, err := ResolvePrice(activeGig(), "enterprise", false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "отсутствует")
}

func TestResolvePrice_NonPositivePrice(t *testing.T) {
	gig := activeGig()
	gig.Pricing["free"] = 0

	_, err := ResolvePrice(gig, "free", false)
	assert.Error(t, err)
}
