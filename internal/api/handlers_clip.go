package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateClipRequest struct {
	Title  *string `json:"title"`
	Reason *string `json:"reason"`
}

// PATCH /api/projects/:id/clips/:clip_id {title?, reason?}
func (h *Handler) UpdateClip(c *gin.Context) {
	var req updateClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	clip, err := h.Pipeline.UpdateClip(c.Param("id"), c.Param("clip_id"), req.Title, req.Reason)
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	RespondOK(c, clip)
}
