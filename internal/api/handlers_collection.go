package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createCollectionRequest struct {
	Title   string   `json:"title" binding:"required"`
	Summary string   `json:"summary"`
	ClipIDs []string `json:"clip_ids"`
}

// POST /api/projects/:id/collections {title, summary, clip_ids}
func (h *Handler) CreateCollection(c *gin.Context) {
	var req createCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	coll, err := h.Pipeline.CreateCollection(c.Param("id"), req.Title, req.Summary, req.ClipIDs)
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	RespondOK(c, coll)
}

type updateCollectionRequest struct {
	Title   *string  `json:"title"`
	Summary *string  `json:"summary"`
	ClipIDs []string `json:"clip_ids"`
}

// PATCH /api/projects/:id/collections/:cid {title?, summary?, clip_ids?}
func (h *Handler) UpdateCollection(c *gin.Context) {
	var req updateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	coll, err := h.Pipeline.UpdateCollection(c.Param("id"), c.Param("cid"), req.Title, req.Summary, req.ClipIDs)
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	RespondOK(c, coll)
}

// DELETE /api/projects/:id/collections/:cid
func (h *Handler) DeleteCollection(c *gin.Context) {
	if err := h.Pipeline.DeleteCollection(c.Param("id"), c.Param("cid")); err != nil {
		RespondAppErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/projects/:id/collections/:cid/generate
func (h *Handler) GenerateCollection(c *gin.Context) {
	if err := h.Pipeline.RegenerateCollection(c.Request.Context(), c.Param("id"), c.Param("cid")); err != nil {
		RespondAppErr(c, err)
		return
	}
	coll, err := h.Pipeline.ReadCollections(c.Param("id"))
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	for _, entry := range coll.Collections {
		if entry.ID == c.Param("cid") {
			RespondOK(c, entry)
			return
		}
	}
	RespondOK(c, gin.H{"collection_id": c.Param("cid"), "status": "generated"})
}
