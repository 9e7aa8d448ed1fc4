package models

import (
	"time"

	"goeta/pkg/traffic"
	"goeta/pkg/weather"
)

// TripCompletionRecord captures the actual outcome of a finished trip. Records
// accumulate in the completion store and feed model retraining.
type TripCompletionRecord struct {
	TripID                   string              `json:"trip_id" binding:"required"`
	DriverID                 string              `json:"driver_id,omitempty"`
	PickupLocation           Location            `json:"pickup_location"`
	DropoffLocation          Location            `json:"dropoff_location"`
	PredictedDurationSeconds int                 `json:"predicted_duration_seconds"`
	ActualDurationSeconds    int                 `json:"actual_duration_seconds"`
	DistanceMeters           float64             `json:"distance_meters,omitempty"`
	StartTime                time.Time           `json:"start_time"`
	EndTime                  time.Time           `json:"end_time"`
	VehicleType              string              `json:"vehicle_type,omitempty"`
	WeatherConditions        *weather.Conditions `json:"weather_conditions,omitempty"`
	TrafficConditions        *traffic.Conditions `json:"traffic_conditions,omitempty"`
	DriverRating             float64             `json:"driver_rating,omitempty"`
	ErrorMinutes             float64             `json:"error_minutes,omitempty"`
	Within3Min               bool                `json:"within_3min,omitempty"`
}

type CompletionAck struct {
	Status       string  `json:"status"`
	TripID       string  `json:"trip_id"`
	ErrorMinutes float64 `json:"error_minutes"`
	Within3Min   bool    `json:"within_3min"`
}

type ModelMetrics struct {
	ModelVersion          string             `json:"model_version"`
	AccuracyWithin3Min    float64            `json:"accuracy_within_3min"`
	AccuracyWithin5Min    float64            `json:"accuracy_within_5min"`
	MeanAbsoluteErrorSecs float64            `json:"mean_absolute_error_seconds"`
	MeanAbsoluteErrorMins float64            `json:"mean_absolute_error_minutes"`
	R2Score               float64            `json:"r2_score"`
	TotalPredictions      int                `json:"total_predictions"`
	FeatureImportance     map[string]float64 `json:"feature_importance,omitempty"`
	TrainedAt             *time.Time         `json:"trained_at,omitempty"`
	TrainingSamples       int                `json:"training_samples"`
}

type TrainingDataStats struct {
	TotalRecords        int     `json:"total_records"`
	ReadyForTraining    bool    `json:"ready_for_training"`
	CurrentAccuracy     float64 `json:"current_accuracy"`
	AverageErrorMinutes float64 `json:"average_error_minutes"`
	OldestRecord        string  `json:"oldest_record,omitempty"`
	NewestRecord        string  `json:"newest_record,omitempty"`
	RequiredSamples     int     `json:"required_samples"`
}

type TrainingTrigger struct {
	Status       string `json:"status"` // started, skipped
	Message      string `json:"message,omitempty"`
	Reason       string `json:"reason,omitempty"`
	StartedAt    string `json:"started_at,omitempty"`
	NextTraining string `json:"next_training,omitempty"`
}

type TrainingOutcome struct {
	Status              string  `json:"status"` // success, failed
	Reason              string  `json:"reason,omitempty"`
	Samples             int     `json:"samples,omitempty"`
	TrainingTimeSeconds float64 `json:"training_time_seconds,omitempty"`
	Accuracy            float64 `json:"accuracy,omitempty"`
}

type ModelReloadResult struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	IsReady bool   `json:"is_ready"`
}

type ModelFeatureInfo struct {
	FeatureCount int      `json:"feature_count"`
	Features     []string `json:"features"`
	ModelType    string   `json:"model_type"`
	Target       string   `json:"target"`
}

type TrainingStatus struct {
	IsTraining  bool             `json:"is_training"`
	LastTrained *time.Time       `json:"last_trained,omitempty"`
	LastResult  *TrainingOutcome `json:"last_result,omitempty"`
}
