package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/models"
)

// TokenPair — пара access/refresh токенов, выдаваемая клиенту.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

// accessClaims несёт роль пользователя поверх стандартных клеймов.
type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет JWT. Access и refresh токены
// подписываются разными секретами.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// GeneratePair выпускает новую пару токенов и возвращает времена их истечения.
func (m *TokenManager) GeneratePair(user *models.User) (*TokenPair, time.Time, time.Time, error) {
	now := time.Now()
	accessExp := now.Add(m.accessTTL)
	refreshExp := now.Add(m.refreshTTL)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	}).SignedString(m.accessSecret)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("token: не удалось подписать access токен: %w", err)
	}

	// jti нужен, чтобы refresh токены одной сессии были различимы.
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(refreshExp),
	}).SignedString(m.refreshSecret)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("token: не удалось подписать refresh токен: %w", err)
	}

	pair := &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    m.accessTTL,
	}
	return pair, accessExp, refreshExp, nil
}

// ParseAccess проверяет access токен и возвращает userID и роль.
func (m *TokenManager) ParseAccess(token string) (uuid.UUID, string, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, m.keyFunc(m.accessSecret))
	if err != nil {
		return uuid.Nil, "", err
	}
	if !parsed.Valid {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("token: некорректный subject: %w", err)
	}

	return userID, claims.Role, nil
}

// ParseRefresh проверяет refresh токен и возвращает его клеймы.
func (m *TokenManager) ParseRefresh(token string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, m.keyFunc(m.refreshSecret))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &claims, nil
}

func (m *TokenManager) keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token: неожиданный метод подписи %v", t.Header["alg"])
		}
		return secret, nil
	}
}
