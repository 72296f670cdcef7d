package models

import (
	"time"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Invalid CNPJ"`
	Message   string    `json:"message" example:"CNPJ must have 14 digits, got 9"`
	Code      string    `json:"code,omitempty" example:"INVALID_CNPJ"`
	Stage     string    `json:"stage,omitempty" example:"input"`
	RequestID string    `json:"request_id,omitempty" example:"5f0c2d3e-1f7a-4b8e-9c1d-2a3b4c5d6e7f"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/consult"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Backend   string                 `json:"backend" example:"chromedp"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents individual service health
type ServiceInfo struct {
	Status         string    `json:"status" example:"healthy"`
	LastCheck      time.Time `json:"last_check" example:"2024-01-15T10:30:00Z"`
	ResponseTimeMs int64     `json:"response_time_ms" example:"2"`
	Error          string    `json:"error,omitempty"`
}

// PingResponse is the lightweight liveness answer of /api/health
type PingResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"Backend rodando! (chromedp)"`
}

// MetricsResponse represents metrics response
type MetricsResponse struct {
	Consultations ConsultationMetrics `json:"consultations"`
	Performance   PerformanceMetrics  `json:"performance"`
	Cache         CacheMetrics        `json:"cache"`
	Sessions      *SessionMetrics     `json:"sessions,omitempty"`
	System        SystemMetrics       `json:"system"`
	Backend       string              `json:"backend" example:"chromedp"`
	Timestamp     time.Time           `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// ConsultationMetrics counts outcomes per variant
type ConsultationMetrics struct {
	Total          int64            `json:"total" example:"150"`
	Success        int64            `json:"success" example:"140"`
	Challenge      int64            `json:"challenge_required" example:"6"`
	Failure        int64            `json:"failure" example:"4"`
	RosterMissing  int64            `json:"roster_missing" example:"3"`
	FailuresByKind map[string]int64 `json:"failures_by_kind"`
	SuccessRate    float64          `json:"success_rate" example:"93.33"`
}

// PerformanceMetrics represents performance metrics
type PerformanceMetrics struct {
	AvgDurationMs int64 `json:"avg_duration_ms" example:"8500"`
	MaxDurationMs int64 `json:"max_duration_ms" example:"31000"`
}

// CacheMetrics represents cache metrics
type CacheMetrics struct {
	HitRate float64 `json:"hit_rate" example:"85.5"`
	Hits    int64   `json:"hits" example:"120"`
	Misses  int64   `json:"misses" example:"21"`
	Size    int64   `json:"size" example:"40"`
}

// SessionMetrics describes the browser session cap
type SessionMetrics struct {
	Capacity int64 `json:"capacity" example:"4"`
	InFlight int64 `json:"in_flight" example:"2"`
	Waiting  int64 `json:"waiting" example:"0"`
	Rejected int64 `json:"rejected" example:"1"`
}

// SystemMetrics represents system metrics
type SystemMetrics struct {
	MemoryAllocMB float64 `json:"memory_alloc_mb" example:"48.2"`
	MemorySysMB   float64 `json:"memory_sys_mb" example:"96.5"`
	Goroutines    int     `json:"goroutines" example:"25"`
	NumGC         uint32  `json:"num_gc" example:"12"`
}
