package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"goeta/internal/features"
	"goeta/internal/metrics"
	"goeta/internal/models"
	"goeta/internal/utils"
	"goeta/pkg/logger"
	"goeta/pkg/ml"
)

// PredictionService is the serving path: memoized lookup, concurrent
// condition fetch, feature extraction, model-or-heuristic scoring and
// response shaping.
type PredictionService struct {
	cache       Cache
	extractor   *features.Extractor
	predictor   *ml.Predictor
	traffic     *TrafficService
	weather     *WeatherService
	experiments *ExperimentService
	logger      *logger.Logger
	now         func() time.Time
}

func NewPredictionService(
	cache Cache,
	extractor *features.Extractor,
	predictor *ml.Predictor,
	trafficSvc *TrafficService,
	weatherSvc *WeatherService,
	experiments *ExperimentService,
	log *logger.Logger,
) *PredictionService {
	return &PredictionService{
		cache:       cache,
		extractor:   extractor,
		predictor:   predictor,
		traffic:     trafficSvc,
		weather:     weatherSvc,
		experiments: experiments,
		logger:      log,
		now:         time.Now,
	}
}

// predictionCacheKey buckets the requested time to five minutes so nearby
// requests for the same route share one entry.
func predictionCacheKey(req *models.ETAPredictionRequest, ts time.Time) string {
	bucket := ts.UTC().Truncate(5 * time.Minute).Format(time.RFC3339)
	return fmt.Sprintf("eta:%.4f,%.4f:%.4f,%.4f:%s",
		req.PickupLocation.Latitude, req.PickupLocation.Longitude,
		req.DropoffLocation.Latitude, req.DropoffLocation.Longitude,
		bucket)
}

func (s *PredictionService) Predict(ctx context.Context, req *models.ETAPredictionRequest) (*models.ETAPredictionResponse, error) {
	started := s.now()

	ts := started
	if req.RequestedTime != nil {
		ts = *req.RequestedTime
	}

	key := predictionCacheKey(req, ts)
	var cached models.ETAPredictionResponse
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		metrics.CacheHits.WithLabelValues("prediction").Inc()
		cached.Cached = true
		cached.RequestID = req.RequestID
		return &cached, nil
	}
	metrics.CacheMisses.WithLabelValues("prediction").Inc()

	trafficResult, weatherResult := s.fetchConditions(ctx, req)

	vector := s.extractor.Extract(req.PickupLocation, req.DropoffLocation, ts, req.VehicleType, req.DriverRating)
	features.ApplyTraffic(vector, trafficResult.Conditions)
	features.ApplyWeather(vector, weatherResult.Conditions)

	result := s.score(ctx, req, vector)
	response := s.buildResponse(req, result, vector, trafficResult, weatherResult)

	if err := s.cache.Set(ctx, key, response, utils.PredictionCacheTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to memoize prediction")
	}

	metrics.ObservePrediction(string(result.Method), s.now().Sub(started))
	return response, nil
}

// PredictBatch serves up to the batch limit of requests. A failing request
// never fails the batch; it degrades to a zero-confidence placeholder entry.
// Size validation happens at the request boundary.
func (s *PredictionService) PredictBatch(ctx context.Context, batch *models.BatchPredictionRequest) ([]*models.ETAPredictionResponse, error) {
	responses := make([]*models.ETAPredictionResponse, 0, len(batch.Requests))
	for i := range batch.Requests {
		resp, err := s.Predict(ctx, &batch.Requests[i])
		if err != nil {
			s.logger.WithError(err).WithField("request_id", batch.Requests[i].RequestID).Warn("Batch prediction failed, returning placeholder")
			resp = s.unableToCalculate(&batch.Requests[i])
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// unableToCalculate is the zero-confidence entry a failed batch item degrades
// to, so callers always get one response per request.
func (s *PredictionService) unableToCalculate(req *models.ETAPredictionRequest) *models.ETAPredictionResponse {
	return &models.ETAPredictionResponse{
		RequestID:          req.RequestID,
		ETASeconds:         0,
		ETAMinutes:         0,
		ConfidenceInterval: &models.ConfidenceInterval{},
		DisplayText:        "Unable to calculate ETA",
		PredictionMethod:   models.MethodSimpleCalculation,
		Timestamp:          s.now().UTC(),
		Cached:             false,
	}
}

// fetchConditions pulls traffic and weather in parallel. Both services
// degrade internally, so there are no errors to join.
func (s *PredictionService) fetchConditions(ctx context.Context, req *models.ETAPredictionRequest) (*TrafficResult, *WeatherResult) {
	var (
		wg            sync.WaitGroup
		trafficResult *TrafficResult
		weatherResult *WeatherResult
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		trafficResult = s.traffic.GetConditions(ctx,
			req.PickupLocation.Latitude, req.PickupLocation.Longitude,
			req.DropoffLocation.Latitude, req.DropoffLocation.Longitude)
	}()
	go func() {
		defer wg.Done()
		weatherResult = s.weather.GetConditions(ctx,
			req.PickupLocation.Latitude, req.PickupLocation.Longitude)
	}()
	wg.Wait()

	return trafficResult, weatherResult
}

// score runs the predictor, forcing the heuristic arm when the request is
// assigned to an experiment's control cohort.
func (s *PredictionService) score(ctx context.Context, req *models.ETAPredictionRequest, vector *features.Vector) *ml.Result {
	if req.ExperimentID != "" {
		cohort := s.experiments.Assign(ctx, req.ExperimentID, experimentSubject(req))
		if cohort == models.CohortControl {
			return s.predictor.Fallback(vector)
		}
	}
	return s.predictor.Predict(vector)
}

// experimentSubject picks the identity cohort assignment hashes on. Trip ID
// keeps all predictions for one trip on the same arm.
func experimentSubject(req *models.ETAPredictionRequest) string {
	switch {
	case req.TripID != "":
		return req.TripID
	case req.DriverID != "":
		return req.DriverID
	default:
		return req.RequestID
	}
}

func (s *PredictionService) buildResponse(
	req *models.ETAPredictionRequest,
	result *ml.Result,
	vector *features.Vector,
	trafficResult *TrafficResult,
	weatherResult *WeatherResult,
) *models.ETAPredictionResponse {
	etaMinutes := result.ETASeconds / 60

	lower := etaMinutes * (1 - result.Uncertainty)
	if lower < 1 {
		lower = 1
	}
	interval := &models.ConfidenceInterval{
		LowerBoundMinutes: math.Round(lower*10) / 10,
		UpperBoundMinutes: math.Round(etaMinutes*(1+result.Uncertainty)*10) / 10,
		ConfidenceLevel:   utils.ConfidenceLevel,
	}

	return &models.ETAPredictionResponse{
		RequestID:          req.RequestID,
		ETASeconds:         int(math.Round(result.ETASeconds)),
		ETAMinutes:         math.Round(etaMinutes*10) / 10,
		ConfidenceInterval: interval,
		DisplayText:        displayText(etaMinutes, interval),
		PredictionMethod:   result.Method,
		ModelVersion:       result.ModelVersion,
		Factors: map[string]interface{}{
			"distance_km":       math.Round(vector.Get(features.EstimatedRoadDistanceKM)*100) / 100,
			"traffic_level":     string(trafficResult.Conditions.Level),
			"traffic_source":    string(trafficResult.Source),
			"weather_condition": weatherResult.Conditions.Condition,
			"weather_source":    string(weatherResult.Source),
			"weather_impact":    math.Round(weatherResult.Conditions.ImpactMultiplier()*100) / 100,
			"is_rush_hour":      vector.Get(features.IsRushHourMorning) > 0 || vector.Get(features.IsRushHourEvening) > 0,
		},
		Timestamp: s.now().UTC(),
		Cached:    false,
	}
}

// displayText renders the rider-facing arrival estimate.
func displayText(etaMinutes float64, interval *models.ConfidenceInterval) string {
	if etaMinutes >= 60 {
		hours := int(etaMinutes) / 60
		mins := int(etaMinutes) % 60
		return fmt.Sprintf("Arriving in %d hr %d min", hours, mins)
	}

	lower := int(math.Floor(interval.LowerBoundMinutes))
	upper := int(math.Ceil(interval.UpperBoundMinutes))
	if lower < 1 {
		lower = 1
	}
	if upper <= lower {
		upper = lower + 1
	}
	return fmt.Sprintf("Arriving in %d-%d min", lower, upper)
}
