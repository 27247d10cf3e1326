package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/dto"
	"github.com/mkuleshov/gigmarket-backend/internal/http/handlers/common"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
)

// DisputeHandler предоставляет HTTP слой для споров.
type DisputeHandler struct {
	disputes *service.DisputeService
}

// NewDisputeHandler создаёт хэндлер.
func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// Open обрабатывает POST /orders/:id/dispute.
func (h *DisputeHandler) Open(c *gin.Context) {
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

	var req dto.OpenDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	dispute, err := h.disputes.Open(c.Request.Context(), userID, service.OpenDisputeInput{
		OrderID:     orderID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dispute)
}

// Get обрабатывает GET /disputes/:id.
func (h *DisputeHandler) Get(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	dispute, err := h.disputes.GetByID(c.Request.Context(), disputeID, userID, role)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dispute)
}

// GetByOrder обрабатывает GET /orders/:id/dispute.
func (h *DisputeHandler) GetByOrder(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	dispute, err := h.disputes.GetByOrder(c.Request.Context(), orderID, userID, role)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dispute)
}

// ListMine обрабатывает GET /disputes.
func (h *DisputeHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.PageParams(c)

	disputes, err := h.disputes.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"disputes": disputes,
		"pagination": dto.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(disputes),
		},
	})
}

// ListAll обрабатывает GET /admin/disputes.
func (h *DisputeHandler) ListAll(c *gin.Context) {
	_, role, ok := identity(c)
	if !ok {
		return
	}

	limit, offset := common.PageParams(c)

	disputes, err := h.disputes.ListAll(c.Request.Context(), role, c.Query("status"), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"disputes": disputes,
		"pagination": dto.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(disputes),
		},
	})
}

// UpdateStatus обрабатывает PATCH /admin/disputes/:id.
func (h *DisputeHandler) UpdateStatus(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.UpdateDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	dispute, err := h.disputes.UpdateStatus(c.Request.Context(), disputeID, userID, role, req.Status, req.Resolution)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dispute)
}

// AddComment обрабатывает POST /disputes/:id/comments.
func (h *DisputeHandler) AddComment(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.DisputeCommentRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.disputes.AddComment(c.Request.Context(), disputeID, userID, role, req.Comment)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, comment)
}

// ListComments обрабатывает GET /disputes/:id/comments.
func (h *DisputeHandler) ListComments(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	comments, err := h.disputes.ListComments(c.Request.Context(), disputeID, userID, role)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"comments": comments})
}

// AddEvidence обрабатывает POST /disputes/:id/evidence.
func (h *DisputeHandler) AddEvidence(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.DisputeEvidenceRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	mediaID, err := uuid.Parse(req.MediaID)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "неверный формат media_id")
		return
	}

	evidence, err := h.disputes.AddEvidence(c.Request.Context(), disputeID, userID, mediaID, role)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, evidence)
}

// ListEvidence обрабатывает GET /disputes/:id/evidence.
func (h *DisputeHandler) ListEvidence(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	evidence, err := h.disputes.ListEvidence(c.Request.Context(), disputeID, userID, role)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"evidence": evidence})
}
