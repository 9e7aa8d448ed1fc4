package services

import (
	"context"
	"fmt"

	"goeta/internal/metrics"
	"goeta/internal/utils"
	"goeta/pkg/logger"
	"goeta/pkg/weather"
)

// WeatherService resolves weather conditions at the pickup point. Same
// degradation ladder as traffic, minus patterns: cache, provider, default.
type WeatherService struct {
	cache    Cache
	provider weather.Provider
	logger   *logger.Logger
}

type WeatherResult struct {
	Conditions *weather.Conditions
	Source     ConditionSource
}

func NewWeatherService(cache Cache, provider weather.Provider, log *logger.Logger) *WeatherService {
	return &WeatherService{
		cache:    cache,
		provider: provider,
		logger:   log,
	}
}

// Weather varies slowly over space, so keys round to ~1km.
func weatherCacheKey(lat, lng float64) string {
	return fmt.Sprintf("weather:%.2f,%.2f", lat, lng)
}

func (s *WeatherService) GetConditions(ctx context.Context, lat, lng float64) *WeatherResult {
	key := weatherCacheKey(lat, lng)

	var cached weather.Conditions
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		metrics.CacheHits.WithLabelValues("weather").Inc()
		return &WeatherResult{Conditions: &cached, Source: SourceCache}
	}
	metrics.CacheMisses.WithLabelValues("weather").Inc()

	if s.provider != nil {
		providerCtx, cancel := context.WithTimeout(ctx, utils.ProviderTimeout)
		conditions, err := s.provider.GetCurrent(providerCtx, lat, lng)
		cancel()
		if err == nil {
			if err := s.cache.Set(ctx, key, conditions, utils.WeatherCacheTTL); err != nil {
				s.logger.WithError(err).Warn("Failed to cache weather conditions")
			}
			return &WeatherResult{Conditions: conditions, Source: SourceLive}
		}
		metrics.ProviderErrors.WithLabelValues("weather").Inc()
		s.logger.WithError(err).Warn("Weather provider failed, using defaults")
	}

	return &WeatherResult{Conditions: weather.DefaultConditions(), Source: SourceDefault}
}
