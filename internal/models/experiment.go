package models

import (
	"time"
)

type ExperimentStatus string

const (
	ExperimentActive  ExperimentStatus = "active"
	ExperimentStopped ExperimentStatus = "stopped"
)

// Cohort is the arm a subject is assigned to for an A/B experiment.
type Cohort string

const (
	CohortTreatment Cohort = "treatment" // ML model arm
	CohortControl   Cohort = "control"   // heuristic arm
	CohortNone      Cohort = "none"
)

type ExperimentConfig struct {
	ExperimentID      string           `json:"experiment_id,omitempty"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	TrafficPercentage int              `json:"traffic_percentage"` // % of subjects on the ML arm
	StartTime         time.Time        `json:"start_time"`
	EndTime           *time.Time       `json:"end_time,omitempty"`
	Status            ExperimentStatus `json:"status"`
}

type ExperimentGroupStats struct {
	Name               string  `json:"name"`
	SampleSize         int64   `json:"sample_size"`
	AccuracyWithin3Min float64 `json:"accuracy_within_3min"`
}

type ExperimentResult struct {
	ExperimentID               string               `json:"experiment_id"`
	Status                     ExperimentStatus     `json:"status"`
	StartTime                  time.Time            `json:"start_time"`
	EndTime                    *time.Time           `json:"end_time,omitempty"`
	ControlGroup               ExperimentGroupStats `json:"control_group"`
	TreatmentGroup             ExperimentGroupStats `json:"treatment_group"`
	ImprovementPercent         float64              `json:"improvement_percent"`
	IsStatisticallySignificant bool                 `json:"is_statistically_significant"`
	Recommendation             string               `json:"recommendation"`
}

type ExperimentRecordRequest struct {
	Method           PredictionMethod `json:"method"`
	PredictedSeconds float64          `json:"predicted_seconds"`
	ActualSeconds    float64          `json:"actual_seconds"`
}

type ExperimentRecordAck struct {
	Recorded     bool             `json:"recorded"`
	Method       PredictionMethod `json:"method"`
	ErrorMinutes float64          `json:"error_minutes"`
	Within3Min   bool             `json:"within_3min"`
}
