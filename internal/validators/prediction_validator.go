package validators

import (
	"goeta/internal/models"
	"goeta/internal/utils"
)

// ValidatePredictionRequest checks a single ETA request beyond JSON binding:
// coordinate ranges, vehicle type and rating bounds.
func ValidatePredictionRequest(req *models.ETAPredictionRequest) map[string]string {
	errors := make(map[string]string)

	if !utils.IsValidCoordinates(req.PickupLocation.Latitude, req.PickupLocation.Longitude) {
		errors["pickup_location"] = "Pickup coordinates out of range"
	}
	if !utils.IsValidCoordinates(req.DropoffLocation.Latitude, req.DropoffLocation.Longitude) {
		errors["dropoff_location"] = "Dropoff coordinates out of range"
	}
	if req.VehicleType != "" {
		if verrs := ValidateStruct(struct {
			VehicleType string `validate:"vehicle_type"`
		}{req.VehicleType}); len(verrs) > 0 {
			errors["vehicle_type"] = verrs[0].Message
		}
	}
	if req.DriverRating != 0 && (req.DriverRating < 1 || req.DriverRating > 5) {
		errors["driver_rating"] = "Driver rating must be between 1.0 and 5.0"
	}

	if len(errors) == 0 {
		return nil
	}
	return errors
}

// ValidateBatchRequest bounds the batch size and validates every entry.
func ValidateBatchRequest(batch *models.BatchPredictionRequest) map[string]string {
	if len(batch.Requests) == 0 {
		return map[string]string{"requests": "Batch must contain at least one request"}
	}
	if len(batch.Requests) > utils.MaxBatchSize {
		return map[string]string{"requests": "Batch size exceeds the maximum of 50 requests"}
	}

	for i := range batch.Requests {
		if errs := ValidatePredictionRequest(&batch.Requests[i]); errs != nil {
			return errs
		}
	}
	return nil
}

// ValidateCompletionRecord checks a trip completion before it enters the
// training store.
func ValidateCompletionRecord(rec *models.TripCompletionRecord) map[string]string {
	errors := make(map[string]string)

	if rec.TripID == "" {
		errors["trip_id"] = "trip_id is required"
	}
	if rec.ActualDurationSeconds <= 0 {
		errors["actual_duration_seconds"] = "Actual duration must be positive"
	}
	if rec.PredictedDurationSeconds <= 0 {
		errors["predicted_duration_seconds"] = "Predicted duration must be positive"
	}
	if !utils.IsValidCoordinates(rec.PickupLocation.Latitude, rec.PickupLocation.Longitude) {
		errors["pickup_location"] = "Pickup coordinates out of range"
	}
	if !utils.IsValidCoordinates(rec.DropoffLocation.Latitude, rec.DropoffLocation.Longitude) {
		errors["dropoff_location"] = "Dropoff coordinates out of range"
	}

	if len(errors) == 0 {
		return nil
	}
	return errors
}
