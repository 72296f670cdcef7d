package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-docs/internal/models"
	"github.com/nexconsult/cnpj-docs/internal/services"
	"github.com/sirupsen/logrus"
)

const bytesPerMB = 1024 * 1024

// MetricsHandler handles metrics requests
type MetricsHandler struct {
	services *services.Container
	logger   *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(services *services.Container, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		services: services,
		logger:   logger,
	}
}

// GetMetrics handles metrics request
// @Summary Get application metrics
// @Description Outcome counters, session usage, cache counters and runtime statistics
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.MetricsResponse
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting application metrics")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := models.MetricsResponse{
		System: models.SystemMetrics{
			MemoryAllocMB: float64(m.Alloc) / bytesPerMB,
			MemorySysMB:   float64(m.Sys) / bytesPerMB,
			Goroutines:    runtime.NumGoroutine(),
			NumGC:         m.NumGC,
		},
		Timestamp: time.Now(),
	}

	if svc := h.services.ConsultService; svc != nil {
		response.Backend = svc.Backend()
	}

	if h.services.Stats != nil {
		snap := h.services.Stats.Snapshot()
		response.Consultations = models.ConsultationMetrics{
			Total:          snap.Total,
			Success:        snap.Success,
			Challenge:      snap.Challenge,
			Failure:        snap.Failure,
			RosterMissing:  snap.RosterMissing,
			FailuresByKind: snap.FailuresByKind,
			SuccessRate:    snap.SuccessRate,
		}
		response.Performance = models.PerformanceMetrics{
			AvgDurationMs: snap.AvgDurationMs,
			MaxDurationMs: snap.MaxDurationMs,
		}
	}

	if cache := h.services.CacheService; cache != nil {
		hits, misses := cache.Counters()
		response.Cache = models.CacheMetrics{
			Hits:    hits,
			Misses:  misses,
			HitRate: hitRate(hits, misses),
			Size:    int64(cache.Size()),
		}
	}

	if h.services.Limiter != nil {
		ls := h.services.Limiter.Stats()
		response.Sessions = &models.SessionMetrics{
			Capacity: ls.Capacity,
			InFlight: ls.InFlight,
			Waiting:  ls.Waiting,
			Rejected: ls.Rejected,
		}
	}

	c.JSON(http.StatusOK, response)
}

func hitRate(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses) * 100
}
