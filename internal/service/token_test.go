package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
)

func testTokenManager() *TokenManager {
	return NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestTokenManager_RoundTrip(t *testing.T) {
	manager := testTokenManager()
	user := &models.User{ID: uuid.New(), Role: models.RoleFreelancer}

	pair, accessExp, refreshExp, err := manager.GeneratePair(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, refreshExp.After(accessExp))

	userID, role, err := manager.ParseAccess(pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, models.RoleFreelancer, role)

	claims, err := manager.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_ParseAccess_WrongSecret(t *testing.T) {
	manager := testTokenManager()
	other := NewTokenManager("another-secret", "another-refresh", 15*time.Minute, 24*time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleClient}

	pair, _, _, err := manager.GeneratePair(user)
	assert.NoError(t, err)

	_, _, err = other.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenManager_ParseAccess_RefreshTokenRejected(t *testing.T) {
	manager := testTokenManager()
	user := &models.User{ID: uuid.New(), Role: models.RoleClient}

	pair, _, _, err := manager.GeneratePair(user)
	assert.NoError(t, err)

	// Refresh токен подписан другим секретом и не годится как access.
	_, _, err = manager.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
}

func TestTokenManager_ParseAccess_Expired(t *testing.T) {
	manager := NewTokenManager("test-access-secret", "test-refresh-secret", -time.Minute, 24*time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleClient}

	pair, _, _, err := manager.GeneratePair(user)
	assert.NoError(t, err)

	_, _, err = manager.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}
