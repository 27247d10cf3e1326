package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkuleshov/gigmarket-backend/internal/http/handlers/common"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
)

// MediaHandler предоставляет HTTP слой для загрузки файлов.
type MediaHandler struct {
	media *service.MediaService
}

// NewMediaHandler создаёт хэндлер.
func NewMediaHandler(media *service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Upload обрабатывает POST /media.
func (h *MediaHandler) Upload(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "файл обязателен")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	isPublic := c.DefaultPostForm("is_public", "true") == "true"

	media, err := h.media.Upload(c.Request.Context(), userID, fileHeader.Filename, file, isPublic)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, media)
}

// Get обрабатывает GET /media/:id.
func (h *MediaHandler) Get(c *gin.Context) {
	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	media, err := h.media.GetByID(c.Request.Context(), mediaID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, media)
}

// Delete обрабатывает DELETE /media/:id.
func (h *MediaHandler) Delete(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.media.Delete(c.Request.Context(), mediaID, userID, role); err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "файл удалён", nil)
}
