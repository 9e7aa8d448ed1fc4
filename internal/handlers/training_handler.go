package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"goeta/internal/models"
	"goeta/internal/services"
	"goeta/internal/utils"
	"goeta/internal/validators"
	"goeta/pkg/logger"
)

type TrainingHandler struct {
	trainingService *services.TrainingService
	logger          *logger.Logger
}

func NewTrainingHandler(trainingService *services.TrainingService, log *logger.Logger) *TrainingHandler {
	return &TrainingHandler{
		trainingService: trainingService,
		logger:          log,
	}
}

// RecordCompletion ingests a finished trip into the training store.
func (h *TrainingHandler) RecordCompletion(c *gin.Context) {
	var rec models.TripCompletionRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if errs := validators.ValidateCompletionRecord(&rec); errs != nil {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	ack, err := h.trainingService.RecordCompletion(c.Request.Context(), &rec)
	if err != nil {
		h.logger.WithError(err).WithTripID(rec.TripID).Error("Failed to record trip completion")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Completion recorded", ack)
}

func (h *TrainingHandler) GetAccuracy(c *gin.Context) {
	report, err := h.trainingService.Accuracy(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute accuracy")
		utils.InternalServerErrorResponse(c)
		return
	}
	utils.SuccessResponse(c, "Accuracy computed", report)
}

func (h *TrainingHandler) GetDataStats(c *gin.Context) {
	stats, err := h.trainingService.DataStats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to read training data stats")
		utils.InternalServerErrorResponse(c)
		return
	}
	utils.SuccessResponse(c, "Training data stats", stats)
}

// TriggerTraining kicks off an asynchronous retraining run. A run already in
// flight is a conflict, not an error.
func (h *TrainingHandler) TriggerTraining(c *gin.Context) {
	force := c.Query("force") == "true"

	trigger, err := h.trainingService.Trigger(c.Request.Context(), force)
	if err != nil {
		if errors.Is(err, services.ErrTrainingInProgress) {
			utils.ConflictResponse(c, "Training already in progress")
			return
		}
		h.logger.WithError(err).Error("Failed to trigger training")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Training trigger processed", trigger)
}

func (h *TrainingHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, "Training status", h.trainingService.Status())
}

// ReloadModel swaps in the artifact currently on disk.
func (h *TrainingHandler) ReloadModel(c *gin.Context) {
	result, err := h.trainingService.ReloadModel()
	if err != nil {
		h.logger.WithError(err).Error("Failed to reload model artifact")
		utils.InternalServerErrorResponse(c)
		return
	}
	utils.SuccessResponse(c, "Model reloaded", result)
}

func (h *TrainingHandler) GetModelFeatures(c *gin.Context) {
	info, err := h.trainingService.ModelFeatures()
	if err != nil {
		if errors.Is(err, services.ErrModelNotLoaded) {
			utils.ServiceUnavailableResponse(c, "Model not loaded")
			return
		}
		h.logger.WithError(err).Error("Failed to read model features")
		utils.InternalServerErrorResponse(c)
		return
	}
	utils.SuccessResponse(c, "Model features", info)
}

func (h *TrainingHandler) GetModelMetrics(c *gin.Context) {
	m, err := h.trainingService.ModelMetrics(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoModelMetrics) {
			utils.NotFoundResponse(c, "Model metrics")
			return
		}
		h.logger.WithError(err).Error("Failed to read model metrics")
		utils.InternalServerErrorResponse(c)
		return
	}
	utils.SuccessResponse(c, "Model metrics", m)
}
