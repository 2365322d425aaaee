package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cuetable/backend/internal/api/handlers"
	"github.com/cuetable/backend/internal/config"
	"github.com/cuetable/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config) {
	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Table session endpoints
		table := v1.Group("/table")
		{
			table.POST("", handlers.CreateTable(cfg))
			table.GET("/:token", handlers.GetTable)
			table.GET("/:token/shots", handlers.GetTableShots)
			table.GET("/:token/ws", ws.HandleSessionSocket(cfg))
		}

		// Operator endpoints
		admin := v1.Group("/admin")
		{
			admin.POST("/table/:token/reset", handlers.AdminResetTable(cfg))
			admin.DELETE("/table/:token", handlers.AdminDeleteTable(cfg))
		}
	}
}
