package utils

import "time"

// Application Constants
const (
	AppName    = "eta-ml-service"
	AppVersion = "1.0.0"

	// Response statuses
	StatusSuccess = "success"
	StatusError   = "error"

	// Error messages
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"

	// Geography
	EarthRadiusKM = 6371.0
	RoadFactor    = 1.3 // urban detour factor over straight-line distance

	// Cache TTLs
	PredictionCacheTTL  = 30 * time.Second
	TrafficCacheTTL     = 30 * time.Second
	WeatherCacheTTL     = 5 * time.Minute
	ExperimentTTL       = 30 * 24 * time.Hour
	CompletionRetention = 7 * 24 * time.Hour
	ModelMetricsTTL     = 7 * 24 * time.Hour

	// External providers
	ProviderTimeout = 5 * time.Second

	// Prediction bounds
	MinETASeconds   = 60.0
	MaxBatchSize    = 50
	ConfidenceLevel = 0.90

	// Accuracy
	TargetAccuracyPercent = 80.0
	Within3MinSeconds     = 180.0

	// Training thresholds
	RequiredTrainingSamples = 1000
	MinTrainingSamples      = 100

	// Experiments
	MinSamplesPerArm          = 100
	MinSamplesForRecommending = 200
)
