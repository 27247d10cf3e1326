package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkuleshov/gigmarket-backend/internal/dto"
	"github.com/mkuleshov/gigmarket-backend/internal/http/handlers/common"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
)

// MessageHandler предоставляет HTTP слой для переписки по заказам.
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler создаёт хэндлер.
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Send обрабатывает POST /orders/:id/messages.
func (h *MessageHandler) Send(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.SendMessageRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.messages.Send(c.Request.Context(), orderID, userID, req.Content)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, message)
}

// ListByOrder обрабатывает GET /orders/:id/messages.
func (h *MessageHandler) ListByOrder(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	limit, offset := common.PageParams(c)

	messages, err := h.messages.ListByOrder(c.Request.Context(), orderID, userID, role, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"messages": messages,
		"pagination": dto.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(messages),
		},
	})
}

// Delete обрабатывает DELETE /messages/:id.
func (h *MessageHandler) Delete(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	messageID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.messages.Delete(c.Request.Context(), messageID, userID, role); err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "сообщение удалено", nil)
}
