package services

import (
	"context"

	"github.com/nexconsult/cnpj-docs/internal/consultation"
)

// ConsultService produces the documents for one CNPJ
type ConsultService interface {
	// Consult validates raw and runs one consultation. It never returns
	// a nil outcome; failures are reported through Outcome.Err.
	Consult(ctx context.Context, raw string) consultation.Outcome

	// Backend names the acquisition backend
	Backend() string

	// Health returns service health status
	Health() map[string]interface{}
}

// CacheServiceInterface defines the interface for cache service
type CacheServiceInterface interface {
	// Get retrieves a value from cache, or ErrCacheMiss
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value string) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear clears all cache entries
	Clear(ctx context.Context) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// GetStats returns cache statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Health returns cache service health status
	Health() map[string]interface{}
}

// ArchiveStore keeps a copy of every delivered archive
type ArchiveStore interface {
	// Store writes data and returns the object name
	Store(ctx context.Context, cnpj string, data []byte) (string, error)

	// Health returns store health status
	Health() map[string]interface{}

	// Close releases the underlying client
	Close() error
}
