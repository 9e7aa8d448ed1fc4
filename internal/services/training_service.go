package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"goeta/internal/features"
	"goeta/internal/metrics"
	"goeta/internal/models"
	"goeta/internal/utils"
	"goeta/pkg/logger"
	"goeta/pkg/ml"
	"goeta/pkg/traffic"
	"goeta/pkg/weather"
)

const (
	completionsKey      = "eta:training:completions"
	totalPredictionsKey = "eta:metrics:total_predictions"
	within3MinKey       = "eta:metrics:within_3min"
	modelMetricsKey     = "model:metrics"
)

// ErrTrainingInProgress is returned when a trigger races an active run.
var ErrTrainingInProgress = errors.New("training already in progress")

// ErrNoModelMetrics is returned when no training run has produced metrics yet.
var ErrNoModelMetrics = errors.New("no model metrics available")

// ErrModelNotLoaded is returned when an operation needs a loaded model artifact.
var ErrModelNotLoaded = errors.New("model not loaded")

// TrainingService accumulates trip completions and retrains the model from
// them. At most one training run executes at a time; the gate is a
// compare-and-swap so concurrent triggers cannot both start a run.
type TrainingService struct {
	cache           Cache
	extractor       *features.Extractor
	predictor       *ml.Predictor
	modelPath       string
	retrainInterval time.Duration
	logger          *logger.Logger

	training atomic.Bool

	mu          sync.RWMutex
	lastTrained *time.Time
	lastResult  *models.TrainingOutcome
}

func NewTrainingService(cache Cache, extractor *features.Extractor, predictor *ml.Predictor, modelPath string, retrainInterval time.Duration, log *logger.Logger) *TrainingService {
	if retrainInterval <= 0 {
		retrainInterval = 24 * time.Hour
	}
	return &TrainingService{
		cache:           cache,
		extractor:       extractor,
		predictor:       predictor,
		modelPath:       modelPath,
		retrainInterval: retrainInterval,
		logger:          log,
	}
}

// RecordCompletion stores a finished trip for future training and folds it
// into the rolling accuracy counters.
func (s *TrainingService) RecordCompletion(ctx context.Context, rec *models.TripCompletionRecord) (*models.CompletionAck, error) {
	errorSeconds := math.Abs(float64(rec.PredictedDurationSeconds - rec.ActualDurationSeconds))
	rec.ErrorMinutes = errorSeconds / 60
	rec.Within3Min = errorSeconds <= utils.Within3MinSeconds

	length, err := s.cache.PushList(ctx, completionsKey, rec, utils.CompletionRetention)
	if err != nil {
		return nil, err
	}
	metrics.TrainingSamples.Set(float64(length))

	if _, err := s.cache.Increment(ctx, totalPredictionsKey); err != nil {
		s.logger.WithError(err).Warn("Failed to update accuracy counters")
	} else if rec.Within3Min {
		if _, err := s.cache.Increment(ctx, within3MinKey); err != nil {
			s.logger.WithError(err).Warn("Failed to update accuracy counters")
		}
	}
	metrics.ObserveCompletion(rec.ErrorMinutes)

	s.logger.WithTripID(rec.TripID).WithFields(map[string]interface{}{
		"error_minutes": math.Round(rec.ErrorMinutes*10) / 10,
		"within_3min":   rec.Within3Min,
	}).Debug("Trip completion recorded")

	return &models.CompletionAck{
		Status:       utils.StatusSuccess,
		TripID:       rec.TripID,
		ErrorMinutes: rec.ErrorMinutes,
		Within3Min:   rec.Within3Min,
	}, nil
}

// Accuracy reports the rolling within-3-minutes rate against the target.
func (s *TrainingService) Accuracy(ctx context.Context) (*models.AccuracyReport, error) {
	total, err := s.cache.GetCounter(ctx, totalPredictionsKey)
	if err != nil {
		return nil, err
	}
	within, err := s.cache.GetCounter(ctx, within3MinKey)
	if err != nil {
		return nil, err
	}

	accuracy := 0.0
	if total > 0 {
		accuracy = float64(within) / float64(total) * 100
	}

	return &models.AccuracyReport{
		TotalPredictions: total,
		Within3MinCount:  within,
		AccuracyPercent:  accuracy,
		TargetAccuracy:   utils.TargetAccuracyPercent,
		MeetsTarget:      accuracy >= utils.TargetAccuracyPercent,
		PeriodHours:      24,
	}, nil
}

// DataStats summarizes the accumulated training data.
func (s *TrainingService) DataStats(ctx context.Context) (*models.TrainingDataStats, error) {
	records, err := s.loadCompletions(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.TrainingDataStats{
		TotalRecords:     len(records),
		ReadyForTraining: len(records) >= utils.RequiredTrainingSamples,
		RequiredSamples:  utils.RequiredTrainingSamples,
	}
	if len(records) == 0 {
		return stats, nil
	}

	var errSum float64
	var within int
	oldest, newest := records[0].EndTime, records[0].EndTime
	for _, rec := range records {
		errSum += rec.ErrorMinutes
		if rec.Within3Min {
			within++
		}
		if rec.EndTime.Before(oldest) {
			oldest = rec.EndTime
		}
		if rec.EndTime.After(newest) {
			newest = rec.EndTime
		}
	}

	stats.AverageErrorMinutes = errSum / float64(len(records))
	stats.CurrentAccuracy = float64(within) / float64(len(records)) * 100
	stats.OldestRecord = oldest.UTC().Format(time.RFC3339)
	stats.NewestRecord = newest.UTC().Format(time.RFC3339)
	return stats, nil
}

// Trigger starts an asynchronous training run. force bypasses the retrain
// interval but never the minimum sample count or the single-run gate.
func (s *TrainingService) Trigger(ctx context.Context, force bool) (*models.TrainingTrigger, error) {
	count, err := s.cache.ListLength(ctx, completionsKey)
	if err != nil {
		return nil, err
	}
	if count < utils.MinTrainingSamples {
		return &models.TrainingTrigger{
			Status:  "skipped",
			Reason:  "insufficient_data",
			Message: "Not enough completion records to train",
		}, nil
	}

	if !force {
		s.mu.RLock()
		last := s.lastTrained
		s.mu.RUnlock()
		if last != nil && time.Since(*last) < s.retrainInterval {
			return &models.TrainingTrigger{
				Status:       "skipped",
				Reason:       "recently_trained",
				NextTraining: last.Add(s.retrainInterval).UTC().Format(time.RFC3339),
			}, nil
		}
	}

	if !s.training.CompareAndSwap(false, true) {
		return nil, ErrTrainingInProgress
	}

	started := time.Now().UTC()
	go s.run()

	return &models.TrainingTrigger{
		Status:    "started",
		Message:   "Training started in the background",
		StartedAt: started.Format(time.RFC3339),
	}, nil
}

func (s *TrainingService) Status() *models.TrainingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.TrainingStatus{
		IsTraining:  s.training.Load(),
		LastTrained: s.lastTrained,
		LastResult:  s.lastResult,
	}
}

// ModelMetrics returns the evaluation of the last trained model.
func (s *TrainingService) ModelMetrics(ctx context.Context) (*models.ModelMetrics, error) {
	var m models.ModelMetrics
	if err := s.cache.Get(ctx, modelMetricsKey, &m); err != nil {
		return nil, ErrNoModelMetrics
	}
	return &m, nil
}

// ReloadModel re-reads the model artifact from disk and swaps it into the
// predictor, so a model trained out of process can be picked up live.
func (s *TrainingService) ReloadModel() (*models.ModelReloadResult, error) {
	if err := s.predictor.Reload(); err != nil {
		return nil, err
	}
	metrics.ModelLoaded.Set(1)
	return &models.ModelReloadResult{
		Status:  "reloaded",
		Version: s.predictor.ModelVersion(),
		IsReady: s.predictor.IsReady(),
	}, nil
}

// ModelFeatures describes the feature set the loaded model scores on.
func (s *TrainingService) ModelFeatures() (*models.ModelFeatureInfo, error) {
	model := s.predictor.CurrentModel()
	if model == nil {
		return nil, ErrModelNotLoaded
	}

	names := model.FeatureNames
	if len(names) == 0 {
		names = features.ModelFeatureNames()
	}
	return &models.ModelFeatureInfo{
		FeatureCount: len(names),
		Features:     names,
		ModelType:    "ridge_regression",
		Target:       "trip_duration_seconds",
	}, nil
}

// run executes one training pass. It owns the training gate and releases it
// on every path. The request context does not apply here; the run outlives
// the HTTP request that triggered it.
func (s *TrainingService) run() {
	defer s.training.Store(false)

	metrics.TrainingInProgress.Set(1)
	defer metrics.TrainingInProgress.Set(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	started := time.Now()
	s.logger.LogTrainingEvent("started", nil)

	outcome := s.train(ctx)
	outcome.TrainingTimeSeconds = time.Since(started).Seconds()

	s.mu.Lock()
	if outcome.Status == "success" {
		now := time.Now().UTC()
		s.lastTrained = &now
	}
	s.lastResult = outcome
	s.mu.Unlock()

	metrics.TrainingRuns.WithLabelValues(outcome.Status).Inc()
	metrics.TrainingDuration.Observe(outcome.TrainingTimeSeconds)
	s.logger.LogTrainingEvent("finished", map[string]interface{}{
		"status":   outcome.Status,
		"reason":   outcome.Reason,
		"samples":  outcome.Samples,
		"accuracy": outcome.Accuracy,
	})
}

func (s *TrainingService) train(ctx context.Context) *models.TrainingOutcome {
	records, err := s.loadCompletions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load training data")
		return &models.TrainingOutcome{Status: "failed", Reason: "load_data_failed"}
	}
	if len(records) < utils.MinTrainingSamples {
		return &models.TrainingOutcome{Status: "failed", Reason: "insufficient_data", Samples: len(records)}
	}

	samples := make([]ml.Sample, 0, len(records))
	for _, rec := range records {
		samples = append(samples, ml.Sample{
			Features:      s.recordVector(rec),
			ActualSeconds: float64(rec.ActualDurationSeconds),
		})
	}

	model, report, err := ml.Train(samples)
	if err != nil {
		s.logger.WithError(err).Error("Model training failed")
		return &models.TrainingOutcome{Status: "failed", Reason: "training_failed", Samples: len(samples)}
	}

	if err := model.Save(s.modelPath); err != nil {
		s.logger.WithError(err).Error("Failed to persist model artifact")
		return &models.TrainingOutcome{Status: "failed", Reason: "save_failed", Samples: len(samples)}
	}
	if err := s.predictor.Reload(); err != nil {
		s.logger.WithError(err).Error("Failed to reload trained model")
		return &models.TrainingOutcome{Status: "failed", Reason: "reload_failed", Samples: len(samples)}
	}
	metrics.ModelLoaded.Set(1)

	trainedAt := model.TrainedAt
	modelMetrics := &models.ModelMetrics{
		ModelVersion:          model.Version,
		AccuracyWithin3Min:    report.AccuracyWithin3Min,
		AccuracyWithin5Min:    report.AccuracyWithin5Min,
		MeanAbsoluteErrorSecs: report.MAESeconds,
		MeanAbsoluteErrorMins: report.MAESeconds / 60,
		R2Score:               report.R2,
		TotalPredictions:      int(s.predictor.PredictionCount()),
		FeatureImportance:     report.FeatureImportance,
		TrainedAt:             &trainedAt,
		TrainingSamples:       report.SampleCount,
	}
	if err := s.cache.Set(ctx, modelMetricsKey, modelMetrics, utils.ModelMetricsTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to persist model metrics")
	}

	return &models.TrainingOutcome{
		Status:   "success",
		Samples:  report.SampleCount,
		Accuracy: report.AccuracyWithin3Min,
	}
}

// recordVector rebuilds the feature vector a completion would have been
// scored with, using the conditions captured at completion time.
func (s *TrainingService) recordVector(rec *models.TripCompletionRecord) *features.Vector {
	v := s.extractor.Extract(rec.PickupLocation, rec.DropoffLocation, rec.StartTime, rec.VehicleType, rec.DriverRating)

	trafficConditions := rec.TrafficConditions
	if trafficConditions == nil {
		trafficConditions = traffic.DefaultConditions()
	}
	weatherConditions := rec.WeatherConditions
	if weatherConditions == nil {
		weatherConditions = weather.DefaultConditions()
	}
	features.ApplyTraffic(v, trafficConditions)
	features.ApplyWeather(v, weatherConditions)
	return v
}

func (s *TrainingService) loadCompletions(ctx context.Context) ([]*models.TripCompletionRecord, error) {
	raw, err := s.cache.GetList(ctx, completionsKey)
	if err != nil {
		return nil, err
	}

	records := make([]*models.TripCompletionRecord, 0, len(raw))
	for _, entry := range raw {
		var rec models.TripCompletionRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			s.logger.WithError(err).Warn("Skipping malformed completion record")
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}
