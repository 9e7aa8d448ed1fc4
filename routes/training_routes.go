package routes

import (
	"github.com/gin-gonic/gin"

	"goeta/internal/handlers"
)

// SetupTrainingRoutes sets up the model training endpoints
func SetupTrainingRoutes(r *gin.RouterGroup, trainingHandler *handlers.TrainingHandler) {
	training := r.Group("/training")
	{
		training.POST("/trigger", trainingHandler.TriggerTraining)
		training.GET("/status", trainingHandler.GetStatus)
		training.GET("/model/metrics", trainingHandler.GetModelMetrics)
		training.GET("/model/features", trainingHandler.GetModelFeatures)
		training.POST("/model/reload", trainingHandler.ReloadModel)
	}

	r.GET("/training-data/stats", trainingHandler.GetDataStats)
}
