package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/nexconsult/cnpj-docs/docs"
	"github.com/nexconsult/cnpj-docs/internal/api/handlers"
	"github.com/nexconsult/cnpj-docs/internal/api/middleware"
	"github.com/nexconsult/cnpj-docs/internal/config"
	"github.com/nexconsult/cnpj-docs/internal/models"
	"github.com/nexconsult/cnpj-docs/internal/services"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *logrus.Logger
	services    *services.Container
	rateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.setupRouter()
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	s.Router = gin.New()

	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	// Only consultations are rate limited; each one may open a browser.
	s.rateLimiter = middleware.NewRateLimiter(s.config.Security.RateLimit)
	limited := s.rateLimiter.Middleware()

	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	s.Router.GET("/metrics", handlers.NewMetricsHandler(s.services, s.logger).GetMetrics)

	if s.config.Server.Environment != "production" {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	consultHandler := handlers.NewConsultHandler(s.services.ConsultService, s.services.Packager, s.logger)

	apiGroup := s.Router.Group("/api")
	{
		apiGroup.GET("/health", healthHandler.GetAPIHealth)
		apiGroup.POST("/consult", limited, consultHandler.PostConsult)
	}

	v1 := s.Router.Group("/api/v1")
	{
		v1.GET("/consult/:cnpj", limited, consultHandler.GetConsult)

		sessionsHandler := handlers.NewSessionsHandler(s.services.Limiter, s.services.ConsultService.Backend(), s.logger)
		v1.GET("/sessions/stats", sessionsHandler.GetStats)

		cache := v1.Group("/cache")
		cache.Use(middleware.AdminAuth(s.config.Security.AdminToken))
		{
			cacheHandler := handlers.NewCacheHandler(s.services.CacheService, s.logger)
			cache.GET("/stats", cacheHandler.GetStats)
			cache.DELETE("/clear", cacheHandler.Clear)
			cache.DELETE("/:cnpj", cacheHandler.Delete)
		}
	}

	s.Router.HandleMethodNotAllowed = true

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:     "Not Found",
			Message:   "The requested resource was not found",
			Code:      "NOT_FOUND",
			RequestID: c.GetString(middleware.RequestIDKey),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	})

	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{
			Error:     "Method Not Allowed",
			Message:   c.Request.Method + " is not allowed for this resource",
			Code:      "METHOD_NOT_ALLOWED",
			RequestID: c.GetString(middleware.RequestIDKey),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	})
}

// Close stops background work owned by the router
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
