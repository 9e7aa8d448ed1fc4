package services

import (
	"context"
	"fmt"

	"goeta/internal/metrics"
	"goeta/internal/utils"
	"goeta/pkg/logger"
	"goeta/pkg/traffic"
)

// ConditionSource tells callers where a conditions value came from.
type ConditionSource string

const (
	SourceLive    ConditionSource = "live"
	SourceCache   ConditionSource = "cache"
	SourcePattern ConditionSource = "pattern"
	SourceDefault ConditionSource = "default"
)

// TrafficService resolves traffic conditions for a route: cached value first,
// then the live provider, then historical patterns. It never returns an
// error; degraded sources are reported through Source.
type TrafficService struct {
	cache    Cache
	provider traffic.Provider
	patterns *traffic.PatternEstimator
	logger   *logger.Logger
}

type TrafficResult struct {
	Conditions *traffic.Conditions
	Source     ConditionSource
}

func NewTrafficService(cache Cache, provider traffic.Provider, patterns *traffic.PatternEstimator, log *logger.Logger) *TrafficService {
	return &TrafficService{
		cache:    cache,
		provider: provider,
		patterns: patterns,
		logger:   log,
	}
}

func trafficCacheKey(originLat, originLng, destLat, destLng float64) string {
	return fmt.Sprintf("traffic:%.4f,%.4f:%.4f,%.4f", originLat, originLng, destLat, destLng)
}

func (s *TrafficService) GetConditions(ctx context.Context, originLat, originLng, destLat, destLng float64) *TrafficResult {
	key := trafficCacheKey(originLat, originLng, destLat, destLng)

	var cached traffic.Conditions
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		metrics.CacheHits.WithLabelValues("traffic").Inc()
		return &TrafficResult{Conditions: &cached, Source: SourceCache}
	}
	metrics.CacheMisses.WithLabelValues("traffic").Inc()

	if s.provider != nil {
		providerCtx, cancel := context.WithTimeout(ctx, utils.ProviderTimeout)
		conditions, err := s.provider.GetConditions(providerCtx, originLat, originLng, destLat, destLng)
		cancel()
		if err == nil {
			if err := s.cache.Set(ctx, key, conditions, utils.TrafficCacheTTL); err != nil {
				s.logger.WithError(err).Warn("Failed to cache traffic conditions")
			}
			return &TrafficResult{Conditions: conditions, Source: SourceLive}
		}
		metrics.ProviderErrors.WithLabelValues("traffic").Inc()
		s.logger.WithError(err).Warn("Traffic provider failed, using historical patterns")
	}

	if s.patterns != nil {
		return &TrafficResult{
			Conditions: s.patterns.Estimate(originLat, originLng, destLat, destLng),
			Source:     SourcePattern,
		}
	}

	return &TrafficResult{Conditions: traffic.DefaultConditions(), Source: SourceDefault}
}
