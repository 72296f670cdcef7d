package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-docs/internal/models"
	"github.com/nexconsult/cnpj-docs/internal/services"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	services  *services.Container
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(services *services.Container, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		services:  services,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetAPIHealth is the lightweight ping used by the front end
// @Summary Ping
// @Description Reports that the backend is running and which acquisition backend it uses
// @Tags Health
// @Produce json
// @Success 200 {object} models.PingResponse
// @Router /api/health [get]
func (h *HealthHandler) GetAPIHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.PingResponse{
		Status:  "ok",
		Message: "Backend rodando! (" + h.backend() + ")",
	})
}

// GetHealth handles general health check
// @Summary Health check
// @Description Get the health status of the API and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	checkStart := time.Now()
	servicesHealth := h.services.Health()
	elapsed := time.Since(checkStart).Milliseconds()

	status := overallStatus(servicesHealth)

	response := models.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   Version,
		Backend:   h.backend(),
		Services:  make(map[string]models.ServiceInfo, len(servicesHealth)),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	for serviceName, serviceHealth := range servicesHealth {
		healthMap, ok := serviceHealth.(map[string]interface{})
		if !ok {
			continue
		}
		info := models.ServiceInfo{
			LastCheck:      checkStart,
			ResponseTimeMs: elapsed,
		}
		if s, ok := healthMap["status"].(string); ok {
			info.Status = s
		}
		if e, ok := healthMap["error"].(string); ok {
			info.Error = e
		}
		response.Services[serviceName] = info
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetReadiness handles readiness probe
// @Summary Readiness check
// @Description Check if the API is ready to serve requests
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	servicesHealth := h.services.Health()

	ready := true
	issues := make([]string, 0)

	// Only the consult service is critical; cache and archive degrade gracefully.
	if h.services.ConsultService == nil {
		ready = false
		issues = append(issues, "consult service is not configured")
	} else if serviceStatus(servicesHealth["consult"]) == "unhealthy" {
		ready = false
		issues = append(issues, "consult service is unhealthy")
	}

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now(),
		"services":  servicesHealth,
	}

	if len(issues) > 0 {
		response["issues"] = issues
	}

	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetLiveness handles liveness probe
// @Summary Liveness check
// @Description Check if the API is alive and responding
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"version":   Version,
	})
}

func (h *HealthHandler) backend() string {
	if h.services.ConsultService == nil {
		return "none"
	}
	return h.services.ConsultService.Backend()
}

// overallStatus is unhealthy if any service is, else degraded if any service is.
func overallStatus(servicesHealth map[string]interface{}) string {
	status := "healthy"
	for _, serviceHealth := range servicesHealth {
		switch serviceStatus(serviceHealth) {
		case "unhealthy":
			return "unhealthy"
		case "degraded":
			status = "degraded"
		}
	}
	return status
}

func serviceStatus(serviceHealth interface{}) string {
	if healthMap, ok := serviceHealth.(map[string]interface{}); ok {
		if s, ok := healthMap["status"].(string); ok {
			return s
		}
	}
	return ""
}
