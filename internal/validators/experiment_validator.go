package validators

import (
	"goeta/internal/models"
)

// ValidateExperimentConfig checks a new experiment definition.
func ValidateExperimentConfig(cfg *models.ExperimentConfig) map[string]string {
	errors := make(map[string]string)

	if cfg.Name == "" {
		errors["name"] = "name is required"
	}
	if cfg.TrafficPercentage < 0 || cfg.TrafficPercentage > 100 {
		errors["traffic_percentage"] = "Traffic percentage must be between 0 and 100"
	}
	if cfg.EndTime != nil && !cfg.StartTime.IsZero() && cfg.EndTime.Before(cfg.StartTime) {
		errors["end_time"] = "End time must be after start time"
	}

	if len(errors) == 0 {
		return nil
	}
	return errors
}

// ValidateExperimentRecord checks an outcome submission.
func ValidateExperimentRecord(req *models.ExperimentRecordRequest) map[string]string {
	errors := make(map[string]string)

	if req.Method != models.MethodMLModel && req.Method != models.MethodSimpleCalculation {
		errors["method"] = "Method must be ml_model or simple_calculation"
	}
	if req.PredictedSeconds <= 0 {
		errors["predicted_seconds"] = "Predicted seconds must be positive"
	}
	if req.ActualSeconds <= 0 {
		errors["actual_seconds"] = "Actual seconds must be positive"
	}

	if len(errors) == 0 {
		return nil
	}
	return errors
}
