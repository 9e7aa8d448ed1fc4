package routes

import (
	"github.com/gin-gonic/gin"

	"goeta/internal/handlers"
)

// SetupExperimentRoutes sets up the A/B experiment endpoints
func SetupExperimentRoutes(r *gin.RouterGroup, experimentHandler *handlers.ExperimentHandler) {
	experiments := r.Group("/experiments")
	{
		experiments.POST("", experimentHandler.CreateExperiment)
		experiments.GET("", experimentHandler.ListExperiments)
		experiments.GET("/:id", experimentHandler.GetExperiment)
		experiments.POST("/:id/stop", experimentHandler.StopExperiment)
		experiments.POST("/:id/record", experimentHandler.RecordOutcome)
		experiments.GET("/:id/results", experimentHandler.GetResults)
	}
}
