package routes

import (
	"github.com/gin-gonic/gin"

	"goeta/internal/handlers"
)

// SetupPredictionRoutes sets up the prediction serving endpoints
func SetupPredictionRoutes(r *gin.RouterGroup, predictionHandler *handlers.PredictionHandler, trainingHandler *handlers.TrainingHandler) {
	predictions := r.Group("/predictions")
	{
		predictions.POST("/eta", predictionHandler.PredictETA)
		predictions.POST("/eta/batch", predictionHandler.PredictBatch)
		predictions.POST("/completion", trainingHandler.RecordCompletion)
		predictions.GET("/accuracy", trainingHandler.GetAccuracy)
	}
}
