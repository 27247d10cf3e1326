package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/dto"
	"github.com/mkuleshov/gigmarket-backend/internal/http/handlers/common"
	"github.com/mkuleshov/gigmarket-backend/internal/models"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
)

// GigHandler предоставляет HTTP слой для каталога услуг.
type GigHandler struct {
	gigs *service.GigService
}

// NewGigHandler создаёт хэндлер.
func NewGigHandler(gigs *service.GigService) *GigHandler {
	return &GigHandler{gigs: gigs}
}

// Create обрабатывает POST /gigs.
func (h *GigHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.GigRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	gig, err := h.gigs.Create(c.Request.Context(), userID, gigInputFromRequest(req))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, gig)
}

// Get обрабатывает GET /gigs/:id.
func (h *GigHandler) Get(c *gin.Context) {
	gigID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	gig, err := h.gigs.GetByID(c.Request.Context(), gigID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gig)
}

// Update обрабатывает PUT /gigs/:id.
func (h *GigHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	gigID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.GigRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	gig, err := h.gigs.Update(c.Request.Context(), gigID, userID, gigInputFromRequest(req))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gig)
}

// Archive обрабатывает DELETE /gigs/:id.
func (h *GigHandler) Archive(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	gigID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.gigs.Archive(c.Request.Context(), gigID, userID); err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "услуга архивирована", nil)
}

// Search обрабатывает GET /gigs.
func (h *GigHandler) Search(c *gin.Context) {
	limit, offset := common.PageParams(c)

	params := repository.GigSearchParams{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	}

	if tags := c.Query("tags"); tags != "" {
		params.Tags = strings.Split(tags, ",")
	}
	if raw := c.Query("min_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.MinPrice = &v
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.MaxPrice = &v
		}
	}
	if raw := c.Query("freelancer_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			params.FreelancerID = &id
		}
	}

	gigs, err := h.gigs.Search(c.Request.Context(), params)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"gigs": gigs,
		"pagination": dto.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(gigs),
		},
	})
}

// ListMine обрабатывает GET /gigs/my.
func (h *GigHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.PageParams(c)

	gigs, err := h.gigs.ListByFreelancer(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"gigs": gigs,
		"pagination": dto.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(gigs),
		},
	})
}

// gigInputFromRequest переводит DTO в входные данные сервиса.
func gigInputFromRequest(req dto.GigRequest) service.GigInput {
	return service.GigInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Tags:          req.Tags,
		Pricing:       models.Pricing(req.Pricing),
		DeliveryDays:  req.DeliveryDays,
		RevisionCount: req.RevisionCount,
		Status:        req.Status,
	}
}
