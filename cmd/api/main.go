package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nexconsult/cnpj-docs/internal/api"
	"github.com/nexconsult/cnpj-docs/internal/config"
	"github.com/nexconsult/cnpj-docs/internal/consultation"
	"github.com/nexconsult/cnpj-docs/internal/logger"
	"github.com/nexconsult/cnpj-docs/internal/services"
	"github.com/sirupsen/logrus"
)

// @title CNPJ Documents API
// @version 1.0
// @description Downloads the CNPJ registration card and partner roster (QSA) of Brazilian companies as a ZIP archive

// @contact.name API Support
// @contact.email support@nexconsult.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.Log.Level, cfg.Log.Format)
	logger.WithFields(logrus.Fields{
		"backend":       cfg.Consult.Backend,
		"roster_policy": cfg.Consult.RosterPolicy,
	}).Info("Starting CNPJ documents server...")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	serviceContainer, err := services.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize services: %v", err)
	}

	server := api.NewServer(cfg, logger, serviceContainer)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// A consultation can outlive the write timeout if every stage runs long.
	if budget := cfg.Timeouts.Total(len(consultation.DefaultChallengeSelectors)) + cfg.Consult.AcquireTimeout; httpServer.WriteTimeout < budget {
		logger.WithFields(logrus.Fields{
			"write_timeout":      httpServer.WriteTimeout.String(),
			"consultation_worst": budget.String(),
		}).Warn("WRITE_TIMEOUT is shorter than the worst-case consultation")
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Server.Environment,
		}).Info("Server starting...")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	server.Close()

	if err := serviceContainer.Close(); err != nil {
		logger.Errorf("Failed to close services: %v", err)
	}

	logger.Info("Server exited")
}
