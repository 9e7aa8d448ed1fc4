package models

import (
	"time"
)

type PredictionMethod string

const (
	MethodMLModel           PredictionMethod = "ml_model"
	MethodSimpleCalculation PredictionMethod = "simple_calculation"
)

// Location is a geographic coordinate. Latitude must be in [-90,90] and
// longitude in [-180,180]; validation happens at the request boundary.
type Location struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

type ETAPredictionRequest struct {
	RequestID       string     `json:"request_id,omitempty"`
	PickupLocation  Location   `json:"pickup_location"`
	DropoffLocation Location   `json:"dropoff_location"`
	RequestedTime   *time.Time `json:"requested_time,omitempty"` // defaults to now
	VehicleType     string     `json:"vehicle_type,omitempty"`
	DriverID        string     `json:"driver_id,omitempty"`
	DriverRating    float64    `json:"driver_rating,omitempty"`
	TripID          string     `json:"trip_id,omitempty"`
	ExperimentID    string     `json:"experiment_id,omitempty"`
}

type ConfidenceInterval struct {
	LowerBoundMinutes float64 `json:"lower_bound_minutes"`
	UpperBoundMinutes float64 `json:"upper_bound_minutes"`
	ConfidenceLevel   float64 `json:"confidence_level"`
}

type ETAPredictionResponse struct {
	RequestID          string                 `json:"request_id,omitempty"`
	ETASeconds         int                    `json:"eta_seconds"`
	ETAMinutes         float64                `json:"eta_minutes"`
	ConfidenceInterval *ConfidenceInterval    `json:"confidence_interval,omitempty"`
	DisplayText        string                 `json:"display_text"`
	PredictionMethod   PredictionMethod       `json:"prediction_method"`
	ModelVersion       string                 `json:"model_version,omitempty"`
	Factors            map[string]interface{} `json:"factors,omitempty"`
	Timestamp          time.Time              `json:"timestamp"`
	Cached             bool                   `json:"cached"`
}

type BatchPredictionRequest struct {
	Requests []ETAPredictionRequest `json:"requests" binding:"required"`
}

type AccuracyReport struct {
	TotalPredictions int64   `json:"total_predictions"`
	Within3MinCount  int64   `json:"within_3min_count"`
	AccuracyPercent  float64 `json:"accuracy_percent"`
	TargetAccuracy   float64 `json:"target_accuracy"`
	MeetsTarget      bool    `json:"meets_target"`
	PeriodHours      int     `json:"period_hours"`
}
