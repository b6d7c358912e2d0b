package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter builds the gin engine for the HTTP surface in spec.md §6.
// Grounded on the teacher's internal/http/router.go: otelgin tracing and
// CORS are process-wide middleware, routes are grouped under /api, and
// there is no auth layer here (unlike the teacher) since clipforge has no
// user/session concept in scope.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("clipforge"))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  false,
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	r.GET("/healthcheck", func(c *gin.Context) { RespondOK(c, gin.H{"ok": true}) })

	api := r.Group("/api")
	{
		api.GET("/video-categories", h.ListVideoCategories)
		api.GET("/system/status", h.SystemStatus)

		api.POST("/upload", h.Upload)

		api.GET("/projects", h.ListProjects)
		api.GET("/projects/:id", h.GetProject)
		api.DELETE("/projects/:id", h.DeleteProject)

		api.POST("/projects/:id/process", h.Process)
		api.POST("/projects/:id/retry", h.Retry)
		api.POST("/projects/:id/restart-step", h.RestartStep)
		api.GET("/projects/:id/status", h.Status)
		api.GET("/projects/:id/logs", h.Logs)
		api.GET("/projects/:id/download", h.Download)

		api.PATCH("/projects/:id/clips/:clip_id", h.UpdateClip)

		api.POST("/projects/:id/collections", h.CreateCollection)
		api.PATCH("/projects/:id/collections/:cid", h.UpdateCollection)
		api.DELETE("/projects/:id/collections/:cid", h.DeleteCollection)
		api.POST("/projects/:id/collections/:cid/generate", h.GenerateCollection)
	}

	return r
}
