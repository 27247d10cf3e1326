package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkuleshov/gigmarket-backend/internal/dto"
	"github.com/mkuleshov/gigmarket-backend/internal/http/handlers/common"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
)

// PaymentHandler предоставляет HTTP слой для платежей.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler создаёт хэндлер.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Capture обрабатывает POST /orders/:id/payment.
func (h *PaymentHandler) Capture(c *gin.Context) {
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

	var req dto.CaptureRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	transaction, err := h.payments.Capture(c.Request.Context(), orderID, userID, req.PaymentMethodID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, transaction)
}

// Process обрабатывает POST /payments/:id/process.
func (h *PaymentHandler) Process(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	transaction, err := h.payments.Process(c.Request.Context(), transactionID, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, transaction)
}

// Refund обрабатывает POST /orders/:id/refund.
func (h *PaymentHandler) Refund(c *gin.Context) {
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

	var req dto.RefundRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var amount float64
	if req.Amount != nil {
		amount = *req.Amount
	}

	transaction, err := h.payments.Refund(c.Request.Context(), orderID, userID, amount, req.Reason)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, transaction)
}

// Get обрабатывает GET /payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	transaction, err := h.payments.GetByID(c.Request.Context(), transactionID, userID, role)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, transaction)
}

// ListMine обрабатывает GET /payments.
func (h *PaymentHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.PageParams(c)

	transactions, err := h.payments.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"transactions": transactions,
		"pagination": dto.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(transactions),
		},
	})
}

// Earnings обрабатывает GET /payments/earnings.
func (h *PaymentHandler) Earnings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))

	earnings, err := h.payments.Earnings(c.Request.Context(), userID, months)
	if err != nil {
		common.Fail(c, err)
		return
	}

	var total float64
	for _, month := range earnings {
		total += month.Total
	}

	common.RespondJSON(c, http.StatusOK, dto.EarningsResponse{
		Months: earnings,
		Total:  total,
	})
}
