package api

import (
	"github.com/gin-gonic/gin"

	"github.com/bimaega15/translate-video/config"
	"github.com/bimaega15/translate-video/job"
)

func SetupRouter(m *job.Manager, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20
	h := NewHandler(m, cfg)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(cfg))
	{
		v1.POST("/jobs", h.handleCreateJob)
		v1.GET("/jobs", h.handleListJobs)
		v1.GET("/jobs/:jobId", h.handleGetJobStatus)
		v1.PATCH("/jobs/:jobId/cancel", h.handleCancelJob)

		// Download endpoints (job IDs are unguessable, but kept behind
		// auth for consistency).
		v1.GET("/jobs/:jobId/download", h.handleDownload)
		v1.GET("/jobs/:jobId/subtitle", h.handleDownloadSubtitle)

		v1.GET("/languages", h.handleListLanguages)
	}
	return r
}
