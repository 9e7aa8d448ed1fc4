package services

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goeta/internal/features"
	"goeta/internal/models"
	"goeta/internal/utils"
	"goeta/pkg/ml"
	"goeta/pkg/traffic"
	"goeta/pkg/weather"
)

func newTrainingService(t *testing.T, cache Cache) (*TrainingService, *ml.Predictor, string) {
	t.Helper()
	modelPath := filepath.Join(t.TempDir(), "eta_model.json")
	predictor := ml.NewPredictor(modelPath, mustMLLogger(t))
	svc := NewTrainingService(cache, testExtractor(), predictor, modelPath, 24*time.Hour, testLogger(t))
	return svc, predictor, modelPath
}

func completionRecord(i int, rng *rand.Rand) *models.TripCompletionRecord {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
	actual := 600 + rng.Intn(1200)
	return &models.TripCompletionRecord{
		TripID:                   fmt.Sprintf("trip-%d", i),
		PickupLocation:           models.Location{Latitude: -1.28 - rng.Float64()*0.05, Longitude: 36.80 + rng.Float64()*0.05},
		DropoffLocation:          models.Location{Latitude: -1.25 - rng.Float64()*0.05, Longitude: 36.78 + rng.Float64()*0.05},
		PredictedDurationSeconds: actual + rng.Intn(240) - 120,
		ActualDurationSeconds:    actual,
		StartTime:                start,
		EndTime:                  start.Add(time.Duration(actual) * time.Second),
		VehicleType:              "standard",
		TrafficConditions:        traffic.DefaultConditions(),
		WeatherConditions:        weather.DefaultConditions(),
		DriverRating:             4.0 + rng.Float64(),
	}
}

func TestRecordCompletionComputesError(t *testing.T) {
	svc, _, _ := newTrainingService(t, newMemCache())

	ack, err := svc.RecordCompletion(context.Background(), &models.TripCompletionRecord{
		TripID:                   "trip-1",
		PickupLocation:           testPickup,
		DropoffLocation:          testDropoff,
		PredictedDurationSeconds: 600,
		ActualDurationSeconds:    840,
		StartTime:                time.Now(),
		EndTime:                  time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "trip-1", ack.TripID)
	assert.InDelta(t, 4.0, ack.ErrorMinutes, 1e-9)
	assert.False(t, ack.Within3Min)

	ack2, err := svc.RecordCompletion(context.Background(), &models.TripCompletionRecord{
		TripID:                   "trip-2",
		PredictedDurationSeconds: 600,
		ActualDurationSeconds:    700,
	})
	require.NoError(t, err)
	assert.True(t, ack2.Within3Min)
}

func TestAccuracyReport(t *testing.T) {
	svc, _, _ := newTrainingService(t, newMemCache())
	ctx := context.Background()

	// 8 accurate, 2 not
	for i := 0; i < 10; i++ {
		actual := 660
		if i >= 8 {
			actual = 1200
		}
		_, err := svc.RecordCompletion(ctx, &models.TripCompletionRecord{
			TripID:                   fmt.Sprintf("trip-%d", i),
			PredictedDurationSeconds: 600,
			ActualDurationSeconds:    actual,
		})
		require.NoError(t, err)
	}

	report, err := svc.Accuracy(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), report.TotalPredictions)
	assert.Equal(t, int64(8), report.Within3MinCount)
	assert.InDelta(t, 80.0, report.AccuracyPercent, 1e-9)
	assert.True(t, report.MeetsTarget)
}

func TestAccuracyReportEmpty(t *testing.T) {
	svc, _, _ := newTrainingService(t, newMemCache())

	report, err := svc.Accuracy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.TotalPredictions)
	assert.Equal(t, 0.0, report.AccuracyPercent)
	assert.False(t, report.MeetsTarget)
}

func TestDataStats(t *testing.T) {
	svc, _, _ := newTrainingService(t, newMemCache())
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 20; i++ {
		_, err := svc.RecordCompletion(ctx, completionRecord(i, rng))
		require.NoError(t, err)
	}

	stats, err := svc.DataStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.TotalRecords)
	assert.False(t, stats.ReadyForTraining)
	assert.Equal(t, utils.RequiredTrainingSamples, stats.RequiredSamples)
	assert.NotEmpty(t, stats.OldestRecord)
	assert.NotEmpty(t, stats.NewestRecord)
	assert.LessOrEqual(t, stats.OldestRecord, stats.NewestRecord)
}

func TestTriggerSkipsWithoutData(t *testing.T) {
	svc, _, _ := newTrainingService(t, newMemCache())

	trigger, err := svc.Trigger(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "skipped", trigger.Status)
	assert.Equal(t, "insufficient_data", trigger.Reason)
}

func waitForTraining(t *testing.T, svc *TrainingService) *models.TrainingStatus {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		status := svc.Status()
		if !status.IsTraining && status.LastResult != nil {
			return status
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("training did not finish in time")
	return nil
}

func TestTriggerTrainsAndReloadsModel(t *testing.T) {
	cache := newMemCache()
	svc, predictor, modelPath := newTrainingService(t, cache)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	require.False(t, predictor.IsReady())

	for i := 0; i < 150; i++ {
		_, err := svc.RecordCompletion(ctx, completionRecord(i, rng))
		require.NoError(t, err)
	}

	trigger, err := svc.Trigger(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "started", trigger.Status)
	assert.NotEmpty(t, trigger.StartedAt)

	status := waitForTraining(t, svc)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, "success", status.LastResult.Status)
	assert.Equal(t, 150, status.LastResult.Samples)
	require.NotNil(t, status.LastTrained)

	assert.True(t, predictor.IsReady())
	assert.NotEqual(t, "fallback", predictor.ModelVersion())

	loaded, err := ml.LoadModel(modelPath)
	require.NoError(t, err)
	assert.Equal(t, predictor.ModelVersion(), loaded.Version)

	// Evaluation blob is persisted for the metrics endpoint
	modelMetrics, err := svc.ModelMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, loaded.Version, modelMetrics.ModelVersion)
	assert.Equal(t, 150, modelMetrics.TrainingSamples)

	// Retriggering inside the retrain window is skipped
	again, err := svc.Trigger(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "skipped", again.Status)
	assert.Equal(t, "recently_trained", again.Reason)
	assert.NotEmpty(t, again.NextTraining)
}

func TestModelMetricsBeforeTraining(t *testing.T) {
	svc, _, _ := newTrainingService(t, newMemCache())
	_, err := svc.ModelMetrics(context.Background())
	assert.ErrorIs(t, err, ErrNoModelMetrics)
}

func TestTriggerConflictsWhileRunning(t *testing.T) {
	svc, _, _ := newTrainingService(t, newMemCache())
	ctx := context.Background()
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < utils.MinTrainingSamples; i++ {
		_, err := svc.RecordCompletion(ctx, completionRecord(i, rng))
		require.NoError(t, err)
	}

	// Hold the gate as a run in flight would
	require.True(t, svc.training.CompareAndSwap(false, true))
	defer svc.training.Store(false)

	_, err := svc.Trigger(ctx, true)
	assert.ErrorIs(t, err, ErrTrainingInProgress)
	assert.True(t, svc.Status().IsTraining)
}

func TestModelFeaturesRequiresLoadedModel(t *testing.T) {
	svc, _, _ := newTrainingService(t, newMemCache())
	_, err := svc.ModelFeatures()
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}

func TestReloadModelMissingArtifact(t *testing.T) {
	svc, _, _ := newTrainingService(t, newMemCache())
	_, err := svc.ReloadModel()
	assert.Error(t, err)
}

func TestReloadAndFeaturesAfterTraining(t *testing.T) {
	cache := newMemCache()
	svc, predictor, _ := newTrainingService(t, cache)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 120; i++ {
		_, err := svc.RecordCompletion(ctx, completionRecord(i, rng))
		require.NoError(t, err)
	}
	_, err := svc.Trigger(ctx, true)
	require.NoError(t, err)
	waitForTraining(t, svc)

	reload, err := svc.ReloadModel()
	require.NoError(t, err)
	assert.Equal(t, "reloaded", reload.Status)
	assert.True(t, reload.IsReady)
	assert.Equal(t, predictor.ModelVersion(), reload.Version)

	info, err := svc.ModelFeatures()
	require.NoError(t, err)
	assert.Equal(t, len(features.ModelFeatureNames()), info.FeatureCount)
	assert.Equal(t, features.ModelFeatureNames(), info.Features)
	assert.Equal(t, "trip_duration_seconds", info.Target)
}
