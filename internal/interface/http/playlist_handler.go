package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	userapp "videotube/internal/application"
	"videotube/pkg/apperr"
	"videotube/pkg/response"
	"videotube/pkg/validation"
)

type PlaylistHandler struct {
	Svc *userapp.PlaylistService
}

func NewPlaylistHandler(svc *userapp.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{Svc: svc}
}

type createPlaylistRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	VideoID     string `json:"video_id"`
}

func (h *PlaylistHandler) Create(c *gin.Context) {
	var req createPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Create(c.Request.Context(), c.GetString("userID"), req.Name, req.Description, req.VideoID)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			response.Error[any](c, ae.Status, ae.Message, nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusCreated, p, "playlist created", nil)
}

func (h *PlaylistHandler) List(c *gin.Context) {
	out, err := h.Svc.ListByOwner(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusOK, out, "playlists", nil)
}
