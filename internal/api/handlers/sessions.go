package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-docs/internal/services"
	"github.com/sirupsen/logrus"
)

// SessionsHandler reports the browser session cap
type SessionsHandler struct {
	limiter *services.Limiter
	backend string
	logger  *logrus.Logger
}

// NewSessionsHandler creates a sessions handler. limiter is nil for the API backend.
func NewSessionsHandler(limiter *services.Limiter, backend string, logger *logrus.Logger) *SessionsHandler {
	return &SessionsHandler{
		limiter: limiter,
		backend: backend,
		logger:  logger,
	}
}

// GetStats handles session statistics request
// @Summary Get browser session statistics
// @Description Concurrency cap, in-flight and queued consultations of the browser backends
// @Tags Sessions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sessions/stats [get]
func (h *SessionsHandler) GetStats(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting session statistics")

	response := map[string]interface{}{
		"backend":   h.backend,
		"timestamp": time.Now(),
	}

	if h.limiter == nil {
		response["enabled"] = false
		response["message"] = "The API backend does not open browser sessions"
	} else {
		response["enabled"] = true
		response["stats"] = h.limiter.Stats()
	}

	c.JSON(http.StatusOK, response)
}
