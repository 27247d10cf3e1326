package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mkuleshov/gigmarket-backend/internal/logger"
	"github.com/mkuleshov/gigmarket-backend/internal/pkg/apperror"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
)

// notFoundMessages сопоставляет сентинельные ошибки репозиториев с
// сообщениями для клиента.
var notFoundMessages = map[error]string{
	repository.ErrUserNotFound:         "пользователь не найден",
	repository.ErrGigNotFound:          "услуга не найдена",
	repository.ErrOrderNotFound:        "заказ не найден",
	repository.ErrTransactionNotFound:  "транзакция не найдена",
	repository.ErrDisputeNotFound:      "спор не найден",
	repository.ErrReviewNotFound:       "отзыв не найден",
	repository.ErrNotificationNotFound: "уведомление не найдено",
	repository.ErrMessageNotFound:      "сообщение не найдено",
	repository.ErrMediaNotFound:        "файл не найден",
}

// conflictMessages — ошибки нарушения уникальности.
var conflictMessages = map[error]string{
	repository.ErrDuplicateDispute: "спор по этому заказу уже открыт",
	repository.ErrDuplicateReview:  "отзыв на этот заказ уже оставлен",
	repository.ErrDuplicatePayment: "заказ уже оплачен",
}

// ErrorHandler обрабатывает ошибки централизованно. Внутренние ошибки
// маскируются, клиенту уходит понятное сообщение с корректным статусом.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("ошибка обработки запроса")
		}

		statusCode, message := mapError(err)
		c.JSON(statusCode, gin.H{"error": message})
	}
}

// mapError переводит ошибку приложения в HTTP статус и сообщение.
func mapError(err error) (int, string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus, appErr.Message
	}

	for sentinel, message := range notFoundMessages {
		if errors.Is(err, sentinel) {
			return http.StatusNotFound, message
		}
	}

	for sentinel, message := range conflictMessages {
		if errors.Is(err, sentinel) {
			return http.StatusConflict, message
		}
	}

	if errors.Is(err, repository.ErrInvalidTransition) {
		illegal := apperror.ErrIllegalTransition
		return illegal.HTTPStatus, illegal.Message
	}

	// Понятное сообщение без внутренних деталей можно показать клиенту.
	if msg := err.Error(); msg != "" && !containsInternalKeywords(msg) {
		return http.StatusBadRequest, msg
	}

	return http.StatusInternalServerError, "внутренняя ошибка сервера"
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"pq:",
		"sqlstate",
		"duplicate key",
		"constraint",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	lower := strings.ToLower(s)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
