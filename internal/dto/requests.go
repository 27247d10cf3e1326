package dto

import "encoding/json"

// RegisterRequest — тело запроса регистрации.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

// LoginRequest — тело запроса входа.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest — тело запроса обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest — тело запроса обновления профиля.
type UpdateProfileRequest struct {
	DisplayName string   `json:"display_name" binding:"required"`
	Bio         *string  `json:"bio"`
	Skills      []string `json:"skills"`
	HourlyRate  *float64 `json:"hourly_rate"`
}

// GigRequest — тело запроса создания или обновления услуги.
type GigRequest struct {
	Title         string             `json:"title" binding:"required"`
	Description   string             `json:"description" binding:"required"`
	Category      string             `json:"category" binding:"required"`
	Tags          []string           `json:"tags"`
	Pricing       map[string]float64 `json:"pricing" binding:"required"`
	DeliveryDays  int                `json:"delivery_days" binding:"required"`
	RevisionCount int                `json:"revision_count"`
	Status        string             `json:"status"`
}

// CreateOrderRequest — тело запроса создания заказа.
type CreateOrderRequest struct {
	GigID         string          `json:"gig_id" binding:"required"`
	Package       string          `json:"package" binding:"required"`
	IsUrgent      bool            `json:"is_urgent"`
	Requirements  *string         `json:"requirements"`
	CustomDetails json.RawMessage `json:"custom_details"`
}

// TransitionOrderRequest — тело запроса смены статуса заказа.
type TransitionOrderRequest struct {
	Status  string  `json:"status" binding:"required"`
	Comment *string `json:"comment"`
}

// CancelOrderRequest — тело запроса отмены заказа.
type CancelOrderRequest struct {
	Reason *string `json:"reason"`
}

// ExtendDeliveryRequest — тело запроса продления срока.
type ExtendDeliveryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CaptureRequest — тело запроса оплаты заказа.
type CaptureRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
}

// RefundRequest — тело запроса возврата средств.
// Без суммы возвращается оплата целиком.
type RefundRequest struct {
	Amount *float64 `json:"amount" binding:"omitempty,gt=0"`
	Reason string   `json:"reason"`
}

// OpenDisputeRequest — тело запроса открытия спора.
type OpenDisputeRequest struct {
	Reason      string  `json:"reason" binding:"required"`
	Description *string `json:"description"`
}

// UpdateDisputeRequest — тело запроса смены статуса спора.
type UpdateDisputeRequest struct {
	Status     string  `json:"status" binding:"required"`
	Resolution *string `json:"resolution"`
}

// DisputeCommentRequest — тело запроса комментария в споре.
type DisputeCommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// DisputeEvidenceRequest — тело запроса приложения файла к спору.
type DisputeEvidenceRequest struct {
	MediaID string `json:"media_id" binding:"required"`
}

// ReviewRequest — тело запроса создания или правки отзыва.
type ReviewRequest struct {
	Rating      int     `json:"rating" binding:"required"`
	Title       *string `json:"title"`
	Comment     *string `json:"comment"`
	IsAnonymous bool    `json:"is_anonymous"`
}

// ReviewResponseRequest — тело запроса ответа фрилансера на отзыв.
type ReviewResponseRequest struct {
	Response string `json:"response" binding:"required"`
}

// SendMessageRequest — тело запроса отправки сообщения.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}
