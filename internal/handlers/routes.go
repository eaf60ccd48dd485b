package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/govjobalert/govjobalert/internal/auth"
	"github.com/govjobalert/govjobalert/internal/middleware"
)

// RouteOptions configures the automation endpoints.
type RouteOptions struct {
	AutomationSecret string
	Limiter          middleware.Limiter
	BulkPerMinute    int
}

// RegisterRoutes mounts the API under /api/v1.
func RegisterRoutes(r gin.IRouter, h *JobHandler, opts RouteOptions) {
	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck)
		api.GET("/meta", h.Meta)

		api.GET("/jobs", h.ListJobs)
		api.GET("/jobs/:id", h.GetJob)

		automation := api.Group("/jobs",
			middleware.RateLimit(opts.Limiter, "automation", opts.BulkPerMinute, time.Minute),
			auth.RequireBearer(opts.AutomationSecret),
		)
		automation.POST("/bulk", h.BulkImport)
		automation.POST("/extract", h.ExtractJobs)
	}
}
