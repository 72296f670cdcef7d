package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexconsult/cnpj-docs/internal/config"
	"github.com/nexconsult/cnpj-docs/internal/consultation"
	"github.com/nexconsult/cnpj-docs/internal/receitaws"
	"github.com/nexconsult/cnpj-docs/internal/render"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Container holds all service dependencies
type Container struct {
	config         *config.Config
	logger         *logrus.Logger
	redisClient    *redis.Client
	ConsultService ConsultService
	CacheService   *CacheService
	ArchiveStore   ArchiveStore
	Packager       *Packager
	Limiter        *Limiter
	Stats          *Stats
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
		Stats:  NewStats(),
	}

	container.initRedis()

	if err := container.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return container, nil
}

// initRedis connects to Redis; the cache runs from memory when it is unreachable.
func (c *Container) initRedis() {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, running with memory cache")
		_ = client.Close()
		return
	}
	c.redisClient = client
	c.logger.Info("Redis connection established")
}

func (c *Container) initServices() error {
	c.CacheService = NewCacheService(c.redisClient, c.config.Consult.CacheTTL, c.logger)
	c.CacheService.StartCleanupRoutine(c.config.Consult.CacheTTL)

	if bucket := c.config.Consult.ArchiveBucket; bucket != "" {
		store, err := NewGCSArchiveStore(context.Background(), bucket, c.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize archive store: %w", err)
		}
		c.ArchiveStore = store
		c.logger.WithField("bucket", bucket).Info("Archive store enabled")
	}
	c.Packager = NewPackager(c.ArchiveStore, c.logger)

	if !c.config.IsBrowserBackend() {
		client := receitaws.NewClient(c.config.Consult.APIBaseURL, c.config.Consult.APITimeout, c.config.Consult.APIRatePerMin, c.logger)
		c.ConsultService = NewAPIConsultService(client, c.CacheService, render.New(), c.Stats, c.logger)
		return nil
	}

	launcher, err := NewLauncher(c.config)
	if err != nil {
		return err
	}
	wc, err := WorkflowConfig(c.config)
	if err != nil {
		return err
	}
	c.Limiter = NewLimiter(c.config.Consult.MaxConcurrent, c.config.Consult.AcquireTimeout)
	workflow := consultation.NewWorkflow(launcher, wc, c.logger)
	c.ConsultService = NewBrowserConsultService(workflow, c.Limiter, c.Stats, c.logger)
	return nil
}

// Close waits for background uploads and closes connections
func (c *Container) Close() error {
	var errs []error

	if c.Packager != nil {
		c.Packager.Wait()
	}
	if c.ArchiveStore != nil {
		if err := c.ArchiveStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close archive store: %w", err))
		}
	}
	if c.CacheService != nil {
		_ = c.CacheService.Close()
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.CacheService != nil {
		health["cache"] = c.CacheService.Health()
	}
	if c.ConsultService != nil {
		health["consult"] = c.ConsultService.Health()
	}
	if c.ArchiveStore != nil {
		health["archive"] = c.ArchiveStore.Health()
	}

	return health
}

// GetRedisClient returns the Redis client
func (c *Container) GetRedisClient() *redis.Client {
	return c.redisClient
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
