package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkuleshov/gigmarket-backend/internal/dto"
	"github.com/mkuleshov/gigmarket-backend/internal/http/handlers/common"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
)

// ProfileHandler предоставляет HTTP слой для профилей фрилансеров.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get обрабатывает GET /freelancers/:id/profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	freelancerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), freelancerID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, profile)
}

// UpdateMine обрабатывает PUT /profile.
func (h *ProfileHandler) UpdateMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), userID, service.ProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Skills:      req.Skills,
		HourlyRate:  req.HourlyRate,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, profile)
}
