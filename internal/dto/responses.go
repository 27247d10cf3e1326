package dto

import "github.com/mkuleshov/gigmarket-backend/internal/models"

// ErrorResponse — стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse — стандартный успешный ответ.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination — параметры страницы в ответах-списках.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// AuthResponse — ответ на регистрацию и вход.
type AuthResponse struct {
	User    *models.User              `json:"user"`
	Profile *models.FreelancerProfile `json:"profile,omitempty"`
	Tokens  interface{}               `json:"tokens"`
}

// ReviewListResponse — отзывы фрилансера с агрегатами рейтинга.
type ReviewListResponse struct {
	Reviews     []models.Review `json:"reviews"`
	Rating      float64         `json:"rating"`
	ReviewCount int             `json:"review_count"`
	Pagination  Pagination      `json:"pagination"`
}

// EarningsResponse — сводка заработка фрилансера.
type EarningsResponse struct {
	Months []models.MonthlyEarnings `json:"months"`
	Total  float64                  `json:"total"`
}
