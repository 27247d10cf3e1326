package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
)

// serveWithError прогоняет ошибку через цепочку с ErrorHandler
// и возвращает записанный ответ.
func serveWithError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/test", func(c *gin.Context) {
		c.Error(err)
		c.Abort()
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorHandler_AppError(t *testing.T) {
	w := serveWithError(apperror.New(apperror.ErrCodeValidation, "недопустимый пакет"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "недопустимый пакет")
}

func TestErrorHandler_InvalidTransition(t *testing.T) {
	err := fmt.Errorf("%w: PENDING -> COMPLETED", repository.ErrInvalidTransition)
	w := serveWithError(err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "недопустимый переход статуса заказа")
	assert.NotContains(t, w.Body.String(), "PENDING")
}

func TestErrorHandler_NotFoundSentinel(t *testing.T) {
	w := serveWithError(fmt.Errorf("order repository: get by id %w", repository.ErrOrderNotFound))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "заказ не найден")
}

func TestErrorHandler_MasksDatabaseErrors(t *testing.T) {
	raw := []error{
		errors.New(`pq: duplicate key value violates unique constraint "orders_order_number_key"`),
		errors.New("sql: no rows in result set"),
		errors.New("dial tcp 127.0.0.1:5432: connection refused"),
	}

	for _, err := range raw {
		w := serveWithError(err)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "внутренняя ошибка сервера")
		assert.NotContains(t, w.Body.String(), "pq:")
		assert.NotContains(t, w.Body.String(), "constraint")
	}
}
