package ws

import (
	"context"

	"github.com/google/uuid"
)

// notificationCreator — часть сервиса уведомлений, нужная хабу для
// сохранения событий, отправленных по websocket.
type notificationCreator interface {
	CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}

// NotificationServiceAdapter подключает сервис уведомлений к хабу
// в роли NotificationSaver.
type NotificationServiceAdapter struct {
	notifications notificationCreator
}

func NewNotificationServiceAdapter(notifications notificationCreator) *NotificationServiceAdapter {
	return &NotificationServiceAdapter{notifications: notifications}
}

// CreateNotification реализует интерфейс NotificationSaver.
func (a *NotificationServiceAdapter) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	return a.notifications.CreateNotificationForWS(ctx, userID, event, data)
}
