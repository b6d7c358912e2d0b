package api

import (
	"github.com/gin-gonic/gin"

	"github.com/zsunny6658/clipforge/internal/config"
	"github.com/zsunny6658/clipforge/internal/scheduler"
)

var videoCategories = []config.Category{
	config.CategoryDefault,
	config.CategoryKnowledge,
	config.CategoryBusiness,
	config.CategoryOpinion,
	config.CategoryExperience,
	config.CategorySpeech,
	config.CategoryContentReview,
	config.CategoryEntertainment,
}

// GET /api/video-categories
func (h *Handler) ListVideoCategories(c *gin.Context) {
	RespondOK(c, gin.H{
		"categories":      videoCategories,
		"default_category": config.CategoryDefault,
	})
}

// GET /api/system/status
func (h *Handler) SystemStatus(c *gin.Context) {
	projects, err := h.Store.ListProjects()
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	running := 0
	for _, p := range projects {
		if st, ok := h.Scheduler.Status(p.ID); ok && st.State == scheduler.RunRunning {
			running++
		}
	}
	RespondOK(c, gin.H{
		"total_projects":   len(projects),
		"running_projects": running,
	})
}
