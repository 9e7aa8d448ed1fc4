package ml

import (
	"math"
	"sync"
	"sync/atomic"

	"goeta/internal/features"
	"goeta/internal/models"
	"goeta/pkg/logger"
)

const (
	minETASeconds = 60.0

	fallbackBaseSpeedKMH = 25.0
	fallbackDistanceKM   = 5.0
	fallbackUncertainty  = 0.25
	baseUncertainty      = 0.10
	maxUncertainty       = 0.30
	longTripThresholdKM  = 10.0
)

// Result is a single scored prediction before response shaping.
type Result struct {
	ETASeconds   float64
	Method       models.PredictionMethod
	ModelVersion string
	Uncertainty  float64 // relative, drives the confidence interval
}

// Predictor serves ETA scores from the current model artifact and degrades to
// a heuristic calculation when no model is loaded or scoring misbehaves.
// Reload swaps the model under a write lock so in-flight predictions always
// see a consistent artifact.
type Predictor struct {
	mu        sync.RWMutex
	model     *Model
	modelPath string

	predictions atomic.Int64
	log         *logger.Logger
}

func NewPredictor(modelPath string, log *logger.Logger) *Predictor {
	p := &Predictor{
		modelPath: modelPath,
		log:       log,
	}

	if modelPath != "" {
		if err := p.Reload(); err != nil {
			log.WithError(err).Warn("No model artifact loaded, serving heuristic predictions")
		}
	}
	return p
}

// Reload re-reads the model artifact from disk and swaps it in.
func (p *Predictor) Reload() error {
	model, err := LoadModel(p.modelPath)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.model = model
	p.mu.Unlock()

	p.log.WithFields(map[string]interface{}{
		"model_version": model.Version,
		"features":      len(model.Weights),
		"samples":       model.SampleCount,
	}).Info("Model artifact loaded")
	return nil
}

func (p *Predictor) IsReady() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model != nil
}

func (p *Predictor) ModelVersion() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model == nil {
		return "fallback"
	}
	return p.model.Version
}

// CurrentModel returns the loaded artifact, or nil.
func (p *Predictor) CurrentModel() *Model {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// PredictionCount reports how many predictions this process has served.
func (p *Predictor) PredictionCount() int64 {
	return p.predictions.Load()
}

// Predict scores a feature vector. A non-finite or non-positive model score
// falls back to the heuristic instead of surfacing an error.
func (p *Predictor) Predict(v *features.Vector) *Result {
	p.predictions.Add(1)

	p.mu.RLock()
	model := p.model
	p.mu.RUnlock()

	if model == nil {
		return p.Fallback(v)
	}

	seconds := model.Score(v)
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		p.log.WithFields(map[string]interface{}{
			"model_version": model.Version,
			"score":         seconds,
		}).Warn("Model produced unusable score, using heuristic")
		return p.Fallback(v)
	}

	if seconds < minETASeconds {
		seconds = minETASeconds
	}

	baseline := ComparisonETA(v.Get(features.EstimatedRoadDistanceKM),
		vehicleTypeForCode(int(v.Get(features.VehicleTypeEncoded))), trafficMultiplier(v))
	if seconds > 3*baseline || seconds*3 < baseline {
		p.log.WithFields(map[string]interface{}{
			"model_version":    model.Version,
			"score_seconds":    seconds,
			"baseline_seconds": baseline,
		}).Debug("Model score far from baseline speed calculation")
	}

	return &Result{
		ETASeconds:   seconds,
		Method:       models.MethodMLModel,
		ModelVersion: model.Version,
		Uncertainty:  predictionUncertainty(v),
	}
}

// Fallback computes the heuristic ETA: road distance over an average urban
// speed degraded by traffic level and time of day.
func (p *Predictor) Fallback(v *features.Vector) *Result {
	distanceKM := v.Get(features.EstimatedRoadDistanceKM)
	if distanceKM <= 0 {
		distanceKM = fallbackDistanceKM
	}

	speedKMH := fallbackBaseSpeedKMH / (trafficMultiplier(v) * timeMultiplier(v))
	seconds := distanceKM / speedKMH * 3600

	if seconds < minETASeconds {
		seconds = minETASeconds
	}

	return &Result{
		ETASeconds:   seconds,
		Method:       models.MethodSimpleCalculation,
		ModelVersion: "fallback",
		Uncertainty:  fallbackUncertainty,
	}
}

func trafficMultiplier(v *features.Vector) float64 {
	// Without traffic data, assume moderate rather than free-flowing
	if !v.Has(features.TrafficLevelEncoded) {
		return 1.3
	}
	switch int(v.Get(features.TrafficLevelEncoded)) {
	case 0:
		return 1.0
	case 2:
		return 1.8
	case 3:
		return 2.5
	default:
		return 1.3
	}
}

func timeMultiplier(v *features.Vector) float64 {
	if v.Get(features.IsRushHourMorning) > 0 || v.Get(features.IsRushHourEvening) > 0 {
		return 1.4
	}
	if v.Get(features.IsNight) > 0 {
		return 0.8
	}
	return 1.0
}

// predictionUncertainty widens the confidence band for conditions the model
// sees less of: rain, heavy congestion, rush hour, long trips.
func predictionUncertainty(v *features.Vector) float64 {
	u := baseUncertainty

	if v.Get(features.IsRaining) > 0 {
		u += 0.05
	}
	if v.Get(features.TrafficLevelEncoded) >= 2 {
		u += 0.08
	}
	if v.Get(features.IsRushHourMorning) > 0 || v.Get(features.IsRushHourEvening) > 0 {
		u += 0.05
	}
	if v.Get(features.EstimatedRoadDistanceKM) > longTripThresholdKM {
		u += 0.05
	}

	if u > maxUncertainty {
		u = maxUncertainty
	}
	return u
}
