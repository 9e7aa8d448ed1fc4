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

type ExperimentHandler struct {
	experimentService *services.ExperimentService
	logger            *logger.Logger
}

func NewExperimentHandler(experimentService *services.ExperimentService, log *logger.Logger) *ExperimentHandler {
	return &ExperimentHandler{
		experimentService: experimentService,
		logger:            log,
	}
}

func (h *ExperimentHandler) CreateExperiment(c *gin.Context) {
	var cfg models.ExperimentConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if errs := validators.ValidateExperimentConfig(&cfg); errs != nil {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	created, err := h.experimentService.Create(c.Request.Context(), &cfg)
	if err != nil {
		if errors.Is(err, services.ErrExperimentExists) {
			utils.ConflictResponse(c, "Experiment already exists")
			return
		}
		h.logger.WithError(err).Error("Failed to create experiment")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.CreatedResponse(c, "Experiment created", created)
}

func (h *ExperimentHandler) ListExperiments(c *gin.Context) {
	experiments := h.experimentService.List()
	utils.SuccessResponse(c, "Experiments retrieved", gin.H{
		"experiments": experiments,
		"count":       len(experiments),
	})
}

func (h *ExperimentHandler) GetExperiment(c *gin.Context) {
	cfg, err := h.experimentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "Experiment")
		return
	}
	utils.SuccessResponse(c, "Experiment retrieved", cfg)
}

func (h *ExperimentHandler) StopExperiment(c *gin.Context) {
	cfg, err := h.experimentService.Stop(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "Experiment")
		return
	}
	utils.SuccessResponse(c, "Experiment stopped", cfg)
}

// RecordOutcome accumulates one observed trip outcome into an experiment arm.
func (h *ExperimentHandler) RecordOutcome(c *gin.Context) {
	var req models.ExperimentRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if errs := validators.ValidateExperimentRecord(&req); errs != nil {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	ack, err := h.experimentService.Record(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, services.ErrExperimentNotFound) {
			utils.NotFoundResponse(c, "Experiment")
			return
		}
		h.logger.WithError(err).Error("Failed to record experiment outcome")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Outcome recorded", ack)
}

func (h *ExperimentHandler) GetResults(c *gin.Context) {
	result, err := h.experimentService.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrExperimentNotFound) {
			utils.NotFoundResponse(c, "Experiment")
			return
		}
		h.logger.WithError(err).Error("Failed to compute experiment results")
		utils.InternalServerErrorResponse(c)
		return
	}
	utils.SuccessResponse(c, "Results computed", result)
}
