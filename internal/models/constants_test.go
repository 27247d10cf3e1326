package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Lifecycle(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusAccepted))
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusCancelled))
	assert.True(t, CanTransition(OrderStatusAccepted, OrderStatusInProgress))
	assert.True(t, CanTransition(OrderStatusInProgress, OrderStatusDelivered))
	assert.True(t, CanTransition(OrderStatusDelivered, OrderStatusCompleted))
	assert.True(t, CanTransition(OrderStatusDelivered, OrderStatusDisputed))
	assert.True(t, CanTransition(OrderStatusDisputed, OrderStatusCompleted))
	assert.True(t, CanTransition(OrderStatusDisputed, OrderStatusCancelled))
}

func TestCanTransition_Forbidden(t *testing.T) {
	assert.False(t, CanTransition(OrderStatusPending, OrderStatusDelivered))
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusCompleted, OrderStatusDisputed))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusPending))
	assert.False(t, CanTransition("UNKNOWN", OrderStatusPending))
}

func TestCanTransition_TerminalStatesClosed(t *testing.T) {
	for _, terminal := range []string{OrderStatusCompleted, OrderStatusCancelled} {
		for status := range ValidOrderStatuses {
			assert.False(t, CanTransition(terminal, status), "из %s не должно быть перехода в %s", terminal, status)
		}
	}
}

func TestValidOrderTransitions_TargetsAreValid(t *testing.T) {
	for from, targets := range ValidOrderTransitions {
		_, ok := ValidOrderStatuses[from]
		assert.True(t, ok, "неизвестный статус %s", from)
		for _, to := range targets {
			_, ok := ValidOrderStatuses[to]
			assert.True(t, ok, "переход %s -> %s в неизвестный статус", from, to)
		}
	}
}

func TestIsTerminalOrderStatus(t *testing.T) {
	assert.True(t, IsTerminalOrderStatus(OrderStatusCompleted))
	assert.True(t, IsTerminalOrderStatus(OrderStatusCancelled))
	assert.False(t, IsTerminalOrderStatus(OrderStatusDisputed))
	assert.False(t, IsTerminalOrderStatus(OrderStatusPending))
}
