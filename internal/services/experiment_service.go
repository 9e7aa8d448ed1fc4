package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"goeta/internal/models"
	"goeta/internal/utils"
	"goeta/pkg/logger"
)

var (
	ErrExperimentNotFound = errors.New("experiment not found")
	ErrExperimentExists   = errors.New("experiment already exists")
	ErrExperimentStopped  = errors.New("experiment is not active")
)

// ExperimentService runs A/B experiments comparing the model arm against the
// heuristic arm. Configs live in memory with a cache copy for restarts;
// outcome counters live in the cache only.
type ExperimentService struct {
	mu          sync.RWMutex
	experiments map[string]*models.ExperimentConfig

	cache  Cache
	logger *logger.Logger
}

func NewExperimentService(cache Cache, log *logger.Logger) *ExperimentService {
	return &ExperimentService{
		experiments: make(map[string]*models.ExperimentConfig),
		cache:       cache,
		logger:      log,
	}
}

func experimentConfigKey(id string) string {
	return "experiment:" + id
}

func experimentCounterKey(id, arm, metric string) string {
	return fmt.Sprintf("exp:%s:%s:%s", id, arm, metric)
}

// Create registers a new experiment. An empty ID gets a generated one.
func (s *ExperimentService) Create(ctx context.Context, cfg *models.ExperimentConfig) (*models.ExperimentConfig, error) {
	if cfg.ExperimentID == "" {
		cfg.ExperimentID = "exp_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}
	cfg.Status = models.ExperimentActive
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now().UTC()
	}

	s.mu.Lock()
	if _, exists := s.experiments[cfg.ExperimentID]; exists {
		s.mu.Unlock()
		return nil, ErrExperimentExists
	}
	stored := *cfg
	s.experiments[cfg.ExperimentID] = &stored
	s.mu.Unlock()

	if err := s.cache.Set(ctx, experimentConfigKey(cfg.ExperimentID), cfg, utils.ExperimentTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to persist experiment config")
	}

	s.logger.WithExperimentID(cfg.ExperimentID).WithField("traffic_percentage", cfg.TrafficPercentage).Info("Experiment created")
	return cfg, nil
}

// List returns copies of every registered config, so callers can read and
// marshal them without holding the registry lock.
func (s *ExperimentService) List() []*models.ExperimentConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ExperimentConfig, 0, len(s.experiments))
	for _, cfg := range s.experiments {
		cp := *cfg
		out = append(out, &cp)
	}
	return out
}

// Get returns a copy of an experiment config, falling back to the cache copy
// when the in-memory registry was lost to a restart. Registry entries are
// only ever mutated under the write lock, so handing out copies keeps reads
// safe against a concurrent Stop.
func (s *ExperimentService) Get(ctx context.Context, id string) (*models.ExperimentConfig, error) {
	s.mu.RLock()
	cfg, ok := s.experiments[id]
	if ok {
		cp := *cfg
		s.mu.RUnlock()
		return &cp, nil
	}
	s.mu.RUnlock()

	var stored models.ExperimentConfig
	if err := s.cache.Get(ctx, experimentConfigKey(id), &stored); err != nil {
		return nil, ErrExperimentNotFound
	}

	s.mu.Lock()
	s.experiments[id] = &stored
	cp := stored
	s.mu.Unlock()
	return &cp, nil
}

// Stop ends an experiment. Stopping twice is a no-op.
func (s *ExperimentService) Stop(ctx context.Context, id string) (*models.ExperimentConfig, error) {
	// Rehydrates the registry from the cache if needed
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	cfg := s.experiments[id]
	if cfg.Status == models.ExperimentActive {
		now := time.Now().UTC()
		cfg.Status = models.ExperimentStopped
		cfg.EndTime = &now
	}
	cp := *cfg
	s.mu.Unlock()

	if err := s.cache.Set(ctx, experimentConfigKey(id), &cp, utils.ExperimentTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to persist stopped experiment")
	}

	s.logger.WithExperimentID(id).Info("Experiment stopped")
	return &cp, nil
}

// Assign places a subject in a cohort. The assignment is a stable hash, so a
// subject always lands on the same arm for a given experiment.
func (s *ExperimentService) Assign(ctx context.Context, experimentID, subject string) models.Cohort {
	cfg, err := s.Get(ctx, experimentID)
	if err != nil || cfg.Status != models.ExperimentActive || subject == "" {
		return models.CohortNone
	}

	bucket := xxhash.Sum64String(subject+":"+experimentID) % 100
	if int(bucket) < cfg.TrafficPercentage {
		return models.CohortTreatment
	}
	return models.CohortControl
}

// Record accumulates one observed outcome into the experiment's counters.
func (s *ExperimentService) Record(ctx context.Context, id string, req *models.ExperimentRecordRequest) (*models.ExperimentRecordAck, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	arm := "simple"
	if req.Method == models.MethodMLModel {
		arm = "ml"
	}

	errorSeconds := math.Abs(req.PredictedSeconds - req.ActualSeconds)
	within3 := errorSeconds <= utils.Within3MinSeconds

	if _, err := s.cache.Increment(ctx, experimentCounterKey(id, arm, "total")); err != nil {
		return nil, fmt.Errorf("record experiment outcome: %w", err)
	}
	if within3 {
		if _, err := s.cache.Increment(ctx, experimentCounterKey(id, arm, "within_3min")); err != nil {
			return nil, fmt.Errorf("record experiment outcome: %w", err)
		}
	}

	return &models.ExperimentRecordAck{
		Recorded:     true,
		Method:       req.Method,
		ErrorMinutes: errorSeconds / 60,
		Within3Min:   within3,
	}, nil
}

// Results reads both arms' counters and derives accuracy, significance and a
// recommendation.
func (s *ExperimentService) Results(ctx context.Context, id string) (*models.ExperimentResult, error) {
	cfg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	treatment, err := s.armStats(ctx, id, "ml", "ml_model")
	if err != nil {
		return nil, err
	}
	control, err := s.armStats(ctx, id, "simple", "simple_calculation")
	if err != nil {
		return nil, err
	}

	// Improvement is the percentage-point gap between the arms' accuracy
	// rates, not a relative change.
	improvement := treatment.AccuracyWithin3Min - control.AccuracyWithin3Min

	significant := treatment.SampleSize >= utils.MinSamplesPerArm && control.SampleSize >= utils.MinSamplesPerArm

	return &models.ExperimentResult{
		ExperimentID:               id,
		Status:                     cfg.Status,
		StartTime:                  cfg.StartTime,
		EndTime:                    cfg.EndTime,
		ControlGroup:               *control,
		TreatmentGroup:             *treatment,
		ImprovementPercent:         improvement,
		IsStatisticallySignificant: significant,
		Recommendation:             recommendation(treatment.SampleSize+control.SampleSize, significant, improvement),
	}, nil
}

func (s *ExperimentService) armStats(ctx context.Context, id, arm, name string) (*models.ExperimentGroupStats, error) {
	total, err := s.cache.GetCounter(ctx, experimentCounterKey(id, arm, "total"))
	if err != nil {
		return nil, fmt.Errorf("read experiment counters: %w", err)
	}
	within, err := s.cache.GetCounter(ctx, experimentCounterKey(id, arm, "within_3min"))
	if err != nil {
		return nil, fmt.Errorf("read experiment counters: %w", err)
	}

	accuracy := 0.0
	if total > 0 {
		accuracy = float64(within) / float64(total) * 100
	}
	return &models.ExperimentGroupStats{
		Name:               name,
		SampleSize:         total,
		AccuracyWithin3Min: accuracy,
	}, nil
}

func recommendation(totalSamples int64, significant bool, improvement float64) string {
	switch {
	case totalSamples < utils.MinSamplesForRecommending:
		return "Collect more data before deciding"
	case !significant:
		return "Not enough samples in each arm yet, keep the experiment running"
	case improvement >= 20:
		return "Strong improvement, roll the model out to all traffic"
	case improvement >= 10:
		return "Clear improvement, increase the model's traffic share"
	case improvement >= 0:
		return "Marginal improvement, keep the experiment running"
	default:
		return "Model underperforms the heuristic, roll back"
	}
}
