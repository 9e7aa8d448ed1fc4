package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goeta/internal/features"
	"goeta/internal/handlers"
	"goeta/internal/models"
	"goeta/internal/services"
	"goeta/pkg/logger"
	"goeta/pkg/ml"
	"goeta/pkg/traffic"
	"goeta/routes"
)

// memCache is a minimal in-memory services.Cache for handler tests.
type memCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	counters map[string]int64
	lists    map[string][][]byte
}

func newMemCache() *memCache {
	return &memCache{
		data:     make(map[string][]byte),
		counters: make(map[string]int64),
		lists:    make(map[string][][]byte),
	}
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = data
	m.mu.Unlock()
	return nil
}

func (m *memCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	data, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return errors.New("cache: key not found")
	}
	return json.Unmarshal(data, dest)
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *memCache) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	m.counters[key]++
	v := m.counters[key]
	m.mu.Unlock()
	return v, nil
}

func (m *memCache) GetCounter(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key], nil
}

func (m *memCache) PushList(_ context.Context, key string, value interface{}, _ time.Duration) (int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.lists[key] = append(m.lists[key], data)
	n := int64(len(m.lists[key]))
	m.mu.Unlock()
	return n, nil
}

func (m *memCache) GetList(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.lists[key]))
	for _, e := range m.lists[key] {
		out = append(out, string(e))
	}
	return out, nil
}

func (m *memCache) ListLength(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

func (m *memCache) Ping(context.Context) error { return nil }

type testApp struct {
	router      *gin.Engine
	experiments *services.ExperimentService
	predictor   *ml.Predictor
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	require.NoError(t, err)

	cache := newMemCache()
	extractor := features.NewExtractor()
	modelPath := filepath.Join(t.TempDir(), "model.json")
	predictor := ml.NewPredictor(modelPath, log)

	trafficService := services.NewTrafficService(cache, nil, traffic.NewPatternEstimator(extractor.Timezone()), log)
	weatherService := services.NewWeatherService(cache, nil, log)
	experimentService := services.NewExperimentService(cache, log)
	predictionService := services.NewPredictionService(cache, extractor, predictor, trafficService, weatherService, experimentService, log)
	trainingService := services.NewTrainingService(cache, extractor, predictor, modelPath, 24*time.Hour, log)

	trainingHandler := handlers.NewTrainingHandler(trainingService, log)

	router := gin.New()
	routes.SetupHealthRoutes(router, handlers.NewHealthHandler(cache, predictor))
	v1 := router.Group("/api/v1")
	routes.SetupPredictionRoutes(v1, handlers.NewPredictionHandler(predictionService, log), trainingHandler)
	routes.SetupExperimentRoutes(v1, handlers.NewExperimentHandler(experimentService, log))
	routes.SetupTrainingRoutes(v1, trainingHandler)

	return &testApp{router: router, experiments: experimentService, predictor: predictor}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "success", envelope.Status)
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func validPredictionBody() map[string]interface{} {
	return map[string]interface{}{
		"pickup_location":  map[string]float64{"latitude": -1.2850, "longitude": 36.8200},
		"dropoff_location": map[string]float64{"latitude": -1.2630, "longitude": 36.8030},
		"vehicle_type":     "standard",
	}
}

func TestPredictEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/predictions/eta", validPredictionBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ETAPredictionResponse
	decodeData(t, w, &resp)
	assert.GreaterOrEqual(t, resp.ETASeconds, 60)
	assert.Equal(t, models.MethodSimpleCalculation, resp.PredictionMethod)
	assert.Contains(t, resp.DisplayText, "Arriving in")
}

func TestPredictEndpointValidation(t *testing.T) {
	app := newTestApp(t)

	body := validPredictionBody()
	body["pickup_location"] = map[string]float64{"latitude": 95, "longitude": 36.82}
	w := app.do(t, http.MethodPost, "/api/v1/predictions/eta", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/predictions/eta", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchEndpointLimit(t *testing.T) {
	app := newTestApp(t)

	requests := make([]map[string]interface{}, 51)
	for i := range requests {
		requests[i] = validPredictionBody()
	}
	w := app.do(t, http.MethodPost, "/api/v1/predictions/eta/batch", map[string]interface{}{"requests": requests})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/predictions/eta/batch", map[string]interface{}{
		"requests": []map[string]interface{}{validPredictionBody(), validPredictionBody()},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Count int `json:"count"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, 2, data.Count)
}

func TestCompletionAndAccuracyEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/predictions/completion", map[string]interface{}{
		"trip_id":                    "trip-1",
		"pickup_location":            map[string]float64{"latitude": -1.2850, "longitude": 36.8200},
		"dropoff_location":           map[string]float64{"latitude": -1.2630, "longitude": 36.8030},
		"predicted_duration_seconds": 600,
		"actual_duration_seconds":    700,
		"start_time":                 time.Now().Add(-12 * time.Minute).Format(time.RFC3339),
		"end_time":                   time.Now().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var ack models.CompletionAck
	decodeData(t, w, &ack)
	assert.Equal(t, "trip-1", ack.TripID)
	assert.True(t, ack.Within3Min)

	w = app.do(t, http.MethodGet, "/api/v1/predictions/accuracy", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.AccuracyReport
	decodeData(t, w, &report)
	assert.Equal(t, int64(1), report.TotalPredictions)
}

func TestCompletionEndpointValidation(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/predictions/completion", map[string]interface{}{
		"trip_id":                 "trip-1",
		"actual_duration_seconds": -5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExperimentLifecycleEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/experiments", map[string]interface{}{
		"name":               "ml-rollout",
		"traffic_percentage": 50,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.ExperimentConfig
	decodeData(t, w, &created)
	require.NotEmpty(t, created.ExperimentID)

	w = app.do(t, http.MethodGet, "/api/v1/experiments", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/experiments/"+created.ExperimentID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/experiments/%s/record", created.ExperimentID), map[string]interface{}{
		"method":            "ml_model",
		"predicted_seconds": 600,
		"actual_seconds":    700,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/experiments/%s/results", created.ExperimentID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.ExperimentResult
	decodeData(t, w, &result)
	assert.Equal(t, int64(1), result.TreatmentGroup.SampleSize)

	w = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/experiments/%s/stop", created.ExperimentID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stopped models.ExperimentConfig
	decodeData(t, w, &stopped)
	assert.Equal(t, models.ExperimentStopped, stopped.Status)
}

func TestExperimentNotFound(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/api/v1/experiments/exp_missing1", nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/api/v1/experiments/exp_missing1/results", nil).Code)
}

func TestExperimentValidation(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/experiments", map[string]interface{}{
		"name":               "bad",
		"traffic_percentage": 150,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrainingEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/training/trigger", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var trigger models.TrainingTrigger
	decodeData(t, w, &trigger)
	assert.Equal(t, "skipped", trigger.Status)
	assert.Equal(t, "insufficient_data", trigger.Reason)

	w = app.do(t, http.MethodGet, "/api/v1/training/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status models.TrainingStatus
	decodeData(t, w, &status)
	assert.False(t, status.IsTraining)

	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/api/v1/training/model/metrics", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, app.do(t, http.MethodGet, "/api/v1/training/model/features", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, app.do(t, http.MethodPost, "/api/v1/training/model/reload", nil).Code)

	w = app.do(t, http.MethodGet, "/api/v1/training-data/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.TrainingDataStats
	decodeData(t, w, &stats)
	assert.Equal(t, 0, stats.TotalRecords)
	assert.False(t, stats.ReadyForTraining)
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eta-ml-service")

	w = app.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = app.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
	assert.Contains(t, w.Body.String(), "uptime_seconds")

	// Cache is reachable, so the instance is ready even without a model
	w = app.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"model_loaded\":false")

	w = app.do(t, http.MethodGet, "/health/detailed", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"not_loaded\"")
	assert.Contains(t, w.Body.String(), "\"connected\"")

	w = app.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
