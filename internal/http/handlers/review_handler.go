package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkuleshov/gigmarket-backend/internal/dto"
	"github.com/mkuleshov/gigmarket-backend/internal/http/handlers/common"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
)

// ReviewHandler предоставляет HTTP слой для отзывов.
type ReviewHandler struct {
	reviews  *service.ReviewService
	profiles *service.ProfileService
}

// NewReviewHandler создаёт хэндлер.
func NewReviewHandler(reviews *service.ReviewService, profiles *service.ProfileService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, profiles: profiles}
}

// reviewInputFromRequest переводит DTO в входные данные сервиса.
func reviewInputFromRequest(req dto.ReviewRequest) service.ReviewInput {
	return service.ReviewInput{
		Rating:      req.Rating,
		Title:       req.Title,
		Comment:     req.Comment,
		IsAnonymous: req.IsAnonymous,
	}
}

// Create обрабатывает POST /orders/:id/review.
func (h *ReviewHandler) Create(c *gin.Context) {
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

	var req dto.ReviewRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), orderID, userID, reviewInputFromRequest(req))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, review)
}

// Get обрабатывает GET /reviews/:id.
func (h *ReviewHandler) Get(c *gin.Context) {
	reviewID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviews.GetByID(c.Request.Context(), reviewID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, review)
}

// Update обрабатывает PUT /reviews/:id.
func (h *ReviewHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	reviewID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.ReviewRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviews.Update(c.Request.Context(), reviewID, userID, reviewInputFromRequest(req))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, review)
}

// Delete обрабатывает DELETE /reviews/:id.
func (h *ReviewHandler) Delete(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	reviewID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.reviews.Delete(c.Request.Context(), reviewID, userID, role); err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "отзыв удалён", nil)
}

// Respond обрабатывает POST /reviews/:id/response.
func (h *ReviewHandler) Respond(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	reviewID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.ReviewResponseRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviews.Respond(c.Request.Context(), reviewID, userID, req.Response)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, review)
}

// ListByFreelancer обрабатывает GET /freelancers/:id/reviews.
func (h *ReviewHandler) ListByFreelancer(c *gin.Context) {
	freelancerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	limit, offset := common.PageParams(c)

	reviews, err := h.reviews.ListByFreelancer(c.Request.Context(), freelancerID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	response := dto.ReviewListResponse{
		Reviews: reviews,
		Pagination: dto.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(reviews),
		},
	}

	// Агрегаты рейтинга берём из профиля; его отсутствие список не ломает.
	if profile, err := h.profiles.Get(c.Request.Context(), freelancerID); err == nil {
		response.Rating = profile.Rating
		response.ReviewCount = profile.ReviewCount
	}

	common.RespondJSON(c, http.StatusOK, response)
}
