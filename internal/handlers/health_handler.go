package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"goeta/internal/services"
	"goeta/internal/utils"
	"goeta/pkg/ml"
)

type HealthHandler struct {
	cache     services.Cache
	predictor *ml.Predictor
	startedAt time.Time
}

func NewHealthHandler(cache services.Cache, predictor *ml.Predictor) *HealthHandler {
	return &HealthHandler{
		cache:     cache,
		predictor: predictor,
		startedAt: time.Now(),
	}
}

// Root identifies the service.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": utils.AppName,
		"version": utils.AppVersion,
		"status":  "running",
	})
}

// Health is the basic health check.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   utils.AppName,
		"timestamp": time.Now().UTC(),
	})
}

// Live reports process liveness only.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "alive",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// Ready reports whether the service can serve useful predictions: the cache
// is reachable or a model is loaded. With neither, predictions still work
// but every request pays full cost on the weakest heuristic, so the instance
// reports unready.
func (h *HealthHandler) Ready(c *gin.Context) {
	cacheUp := h.cache.Ping(c.Request.Context()) == nil
	modelUp := h.predictor.IsReady()

	status := http.StatusOK
	state := "ready"
	if !cacheUp && !modelUp {
		status = http.StatusServiceUnavailable
		state = "unavailable"
	}

	c.JSON(status, gin.H{
		"status": state,
		"checks": gin.H{
			"cache":        cacheUp,
			"model_loaded": modelUp,
		},
		"model_version": h.predictor.ModelVersion(),
	})
}

// Detailed reports per-component health: the model artifact and the cache.
func (h *HealthHandler) Detailed(c *gin.Context) {
	modelComponent := gin.H{"status": "not_loaded"}
	if model := h.predictor.CurrentModel(); model != nil {
		modelComponent = gin.H{
			"status":        "loaded",
			"version":       model.Version,
			"feature_count": len(model.FeatureNames),
		}
	}

	cacheStatus := "connected"
	if err := h.cache.Ping(c.Request.Context()); err != nil {
		cacheStatus = "error: " + err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"service":        utils.AppName,
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"components": gin.H{
			"ml_model": modelComponent,
			"cache":    gin.H{"status": cacheStatus},
		},
	})
}
