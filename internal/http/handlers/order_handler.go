package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/dto"
	"github.com/mkuleshov/gigmarket-backend/internal/http/handlers/common"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
)

// OrderHandler предоставляет HTTP слой для заказов.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler создаёт хэндлер.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// identity извлекает ID и роль текущего пользователя.
func identity(c *gin.Context) (uuid.UUID, string, bool) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return uuid.Nil, "", false
	}

	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return uuid.Nil, "", false
	}

	return userID, role, true
}

// Create обрабатывает POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	gigID, err := uuid.Parse(req.GigID)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "неверный формат gig_id")
		return
	}

	order, err := h.orders.Create(c.Request.Context(), userID, service.CreateOrderInput{
		GigID:         gigID,
		Package:       req.Package,
		IsUrgent:      req.IsUrgent,
		Requirements:  req.Requirements,
		CustomDetails: req.CustomDetails,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, order)
}

// Get обрабатывает GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), orderID, userID, role)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, order)
}

// GetByNumber обрабатывает GET /orders/number/:number.
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	number := c.Param("number")
	if number == "" {
		common.RespondError(c, http.StatusBadRequest, "номер заказа обязателен")
		return
	}

	order, err := h.orders.GetByNumber(c.Request.Context(), number, userID, role)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, order)
}

// ListMine обрабатывает GET /orders.
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.PageParams(c)

	orders, err := h.orders.ListMine(c.Request.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"orders": orders,
		"pagination": dto.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(orders),
		},
	})
}

// Transition обрабатывает PATCH /orders/:id/status.
func (h *OrderHandler) Transition(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.TransitionOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orders.Transition(c.Request.Context(), orderID, userID, role, req.Status, req.Comment)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, order)
}

// Cancel обрабатывает POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Тело отмены необязательно.
		req.Reason = nil
	}

	order, err := h.orders.Cancel(c.Request.Context(), orderID, userID, role, req.Reason)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, order)
}

// ExtendDelivery обрабатывает POST /orders/:id/extend.
func (h *OrderHandler) ExtendDelivery(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.ExtendDeliveryRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orders.ExtendDelivery(c.Request.Context(), orderID, userID, role, req.Reason)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, order)
}

// History обрабатывает GET /orders/:id/history.
func (h *OrderHandler) History(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	history, err := h.orders.History(c.Request.Context(), orderID, userID, role)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"history": history})
}
