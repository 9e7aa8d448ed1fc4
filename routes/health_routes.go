package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"goeta/internal/handlers"
)

// SetupHealthRoutes sets up liveness, readiness and metrics endpoints on the
// engine root, outside the versioned API group.
func SetupHealthRoutes(r *gin.Engine, healthHandler *handlers.HealthHandler) {
	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	r.GET("/health/live", healthHandler.Live)
	r.GET("/health/ready", healthHandler.Ready)
	r.GET("/health/detailed", healthHandler.Detailed)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
