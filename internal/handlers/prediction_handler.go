package handlers

import (
	"github.com/gin-gonic/gin"

	"goeta/internal/models"
	"goeta/internal/services"
	"goeta/internal/utils"
	"goeta/internal/validators"
	"goeta/pkg/logger"
)

type PredictionHandler struct {
	predictionService *services.PredictionService
	logger            *logger.Logger
}

func NewPredictionHandler(predictionService *services.PredictionService, log *logger.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictionService: predictionService,
		logger:            log,
	}
}

// PredictETA serves a single ETA prediction.
func (h *PredictionHandler) PredictETA(c *gin.Context) {
	var req models.ETAPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if errs := validators.ValidatePredictionRequest(&req); errs != nil {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	resp, err := h.predictionService.Predict(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithError(err).WithRequestID(req.RequestID).Error("Prediction failed")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "ETA predicted", resp)
}

// PredictBatch serves up to 50 predictions in one call.
func (h *PredictionHandler) PredictBatch(c *gin.Context) {
	var batch models.BatchPredictionRequest
	if err := c.ShouldBindJSON(&batch); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if errs := validators.ValidateBatchRequest(&batch); errs != nil {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	responses, err := h.predictionService.PredictBatch(c.Request.Context(), &batch)
	if err != nil {
		h.logger.WithError(err).Error("Batch prediction failed")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Batch predicted", gin.H{
		"predictions": responses,
		"count":       len(responses),
	})
}
