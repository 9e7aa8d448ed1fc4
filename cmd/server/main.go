package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"goeta/internal/config"
	"goeta/internal/features"
	"goeta/internal/handlers"
	"goeta/internal/metrics"
	"goeta/internal/middleware"
	"goeta/internal/services"
	"goeta/pkg/cache"
	"goeta/pkg/logger"
	"goeta/pkg/ml"
	"goeta/pkg/traffic"
	"goeta/pkg/weather"
	"goeta/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	extractor := features.NewExtractor()
	predictor := ml.NewPredictor(cfg.Model.Path, log)
	if predictor.IsReady() {
		metrics.ModelLoaded.Set(1)
	}

	trafficProvider := buildTrafficProvider(cfg, log)
	weatherProvider := buildWeatherProvider(cfg)

	trafficService := services.NewTrafficService(
		redisCache,
		trafficProvider,
		traffic.NewPatternEstimator(extractor.Timezone()),
		log,
	)
	weatherService := services.NewWeatherService(redisCache, weatherProvider, log)
	experimentService := services.NewExperimentService(redisCache, log)
	predictionService := services.NewPredictionService(
		redisCache,
		extractor,
		predictor,
		trafficService,
		weatherService,
		experimentService,
		log,
	)
	trainingService := services.NewTrainingService(redisCache, extractor, predictor, cfg.Model.Path, cfg.Model.RetrainInterval, log)

	predictionHandler := handlers.NewPredictionHandler(predictionService, log)
	experimentHandler := handlers.NewExperimentHandler(experimentService, log)
	trainingHandler := handlers.NewTrainingHandler(trainingService, log)
	healthHandler := handlers.NewHealthHandler(redisCache, predictor)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))

	routes.SetupHealthRoutes(router, healthHandler)

	v1 := router.Group("/api/v1")
	{
		routes.SetupPredictionRoutes(v1, predictionHandler, trainingHandler)
		routes.SetupExperimentRoutes(v1, experimentHandler)
		routes.SetupTrainingRoutes(v1, trainingHandler)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr":         srv.Addr,
			"model_loaded": predictor.IsReady(),
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
}

func buildTrafficProvider(cfg *config.Config, log *logger.Logger) traffic.Provider {
	if cfg.Providers.GoogleMapsAPIKey == "" {
		log.Warn("No Google Maps API key, traffic falls back to historical patterns")
		return nil
	}
	provider, err := traffic.NewGoogleProvider(cfg.Providers.GoogleMapsAPIKey)
	if err != nil {
		log.WithError(err).Warn("Failed to create traffic provider, using patterns")
		return nil
	}
	return provider
}

func buildWeatherProvider(cfg *config.Config) weather.Provider {
	if cfg.Providers.OpenWeatherAPIKey == "" {
		return nil
	}
	return weather.NewOpenWeatherProvider(cfg.Providers.OpenWeatherAPIKey, cfg.Providers.OpenWeatherBaseURL)
}
