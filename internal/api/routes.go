package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/infobox/infrastructure/jwt"
)

// RouteOptions carries what the routes need besides the handler.
type RouteOptions struct {
	JWTSecret string
	AdminRole string
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// SetupServiceRoutes configures service-specific API routes (not health routes).
// Health routes are handled by the infrastructure gin package.
func SetupServiceRoutes(router *gin.Engine, handler *Handler, opts RouteOptions) {
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Search endpoints
		search := v1.Group("/search")
		search.GET("", handler.Search)  // GET for simple searches
		search.POST("", handler.Search) // POST for complex searches
		search.GET("/suggest", handler.Suggest)

		content := v1.Group("/content")
		content.GET("/:id", handler.GetContent)
		content.GET("/slug/:slug", handler.GetContentBySlug)
		content.POST("/:id/views", handler.RecordView)

		admin := v1.Group("/admin", jwt.Middleware(opts.JWTSecret), jwt.RequireRole(opts.AdminRole))
		admin.POST("/content", handler.CreateContent)
		admin.PUT("/content/:id", handler.UpdateContent)
		admin.DELETE("/content/:id", handler.DeleteContent)
		admin.POST("/sanitize", handler.SanitizePreview)
	}
}
