package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-docs/internal/models"
	"github.com/nexconsult/cnpj-docs/internal/services"
	"github.com/nexconsult/cnpj-docs/internal/utils"
	"github.com/sirupsen/logrus"
)

// CacheHandler handles cache management requests
type CacheHandler struct {
	cacheService services.CacheServiceInterface
	logger       *logrus.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cacheService services.CacheServiceInterface, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
		logger:       logger,
	}
}

// GetStats handles cache statistics request
// @Summary Get cache statistics
// @Description Redis availability, memory tier size and hit counters of the registry payload cache
// @Tags Cache
// @Produce json
// @Param X-Admin-Token header string false "Admin token, required when ADMIN_TOKEN is set"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/cache/stats [get]
func (h *CacheHandler) GetStats(c *gin.Context) {
	stats, err := h.cacheService.GetStats(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "CACHE_STATS_ERROR", "Failed to retrieve cache statistics", err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"stats":     stats,
		"timestamp": time.Now(),
		"health":    h.cacheService.Health(),
	})
}

// Clear handles cache clear request
// @Summary Clear all cache
// @Description Remove every cached registry payload
// @Tags Cache
// @Produce json
// @Param X-Admin-Token header string false "Admin token, required when ADMIN_TOKEN is set"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/cache/clear [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	if err := h.cacheService.Clear(c.Request.Context()); err != nil {
		h.fail(c, http.StatusInternalServerError, "CACHE_CLEAR_ERROR", "Failed to clear cache", err)
		return
	}

	h.logger.WithField("request_id", c.GetString("request_id")).Info("Cache cleared")

	c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Cache cleared successfully",
		"timestamp": time.Now(),
		"success":   true,
	})
}

// Delete handles specific cache entry deletion
// @Summary Delete specific CNPJ from cache
// @Description Forget the cached registry payload of one CNPJ
// @Tags Cache
// @Param cnpj path string true "CNPJ number"
// @Param X-Admin-Token header string false "Admin token, required when ADMIN_TOKEN is set"
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/cache/{cnpj} [delete]
func (h *CacheHandler) Delete(c *gin.Context) {
	cnpj, ok := utils.NormalizeCNPJ(c.Param("cnpj"))
	if !ok {
		h.fail(c, http.StatusBadRequest, "INVALID_CNPJ", "CNPJ must contain 14 digits with valid check digits", nil)
		return
	}

	key := services.CacheKey(cnpj)
	exists, err := h.cacheService.Exists(c.Request.Context(), key)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "CACHE_CHECK_ERROR", "Failed to check cache", err)
		return
	}
	if !exists {
		h.fail(c, http.StatusNotFound, "CNPJ_NOT_IN_CACHE", "CNPJ not found in cache", nil)
		return
	}

	if err := h.cacheService.Delete(c.Request.Context(), key); err != nil {
		h.fail(c, http.StatusInternalServerError, "CACHE_DELETE_ERROR", "Failed to delete from cache", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"cnpj":       cnpj,
	}).Info("CNPJ deleted from cache")

	c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "CNPJ deleted from cache successfully",
		"cnpj":      utils.FormatCNPJ(cnpj),
		"timestamp": time.Now(),
		"success":   true,
	})
}

func (h *CacheHandler) fail(c *gin.Context, status int, code, message string, err error) {
	entry := h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"code":       code,
	})
	if err != nil {
		entry.WithError(err).Error(message)
	} else {
		entry.Debug(message)
	}

	c.JSON(status, models.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: c.GetString("request_id"),
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
