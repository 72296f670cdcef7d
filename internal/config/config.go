package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Consultation backends.
const (
	BackendChromedp   = "chromedp"
	BackendRod        = "rod"
	BackendPlaywright = "playwright"
	BackendAPI        = "api"
)

// Roster policies.
const (
	RosterTolerant = "tolerant"
	RosterStrict   = "strict"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Consult  ConsultConfig  `json:"consult"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
	Browser  BrowserConfig  `json:"browser"`
	Timeouts TimeoutConfig  `json:"timeouts"`
	PDF      PDFConfig      `json:"pdf"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// ConsultConfig selects the acquisition backend and its boundary limits.
type ConsultConfig struct {
	Backend        string        `json:"backend"`
	PortalURL      string        `json:"portal_url"`
	RosterPolicy   string        `json:"roster_policy"`
	MaxConcurrent  int           `json:"max_concurrent"`
	AcquireTimeout time.Duration `json:"acquire_timeout"`
	APIBaseURL     string        `json:"api_base_url"`
	APITimeout     time.Duration `json:"api_timeout"`
	APIRatePerMin  int           `json:"api_rate_per_minute"`
	CacheTTL       time.Duration `json:"cache_ttl"`
	ArchiveBucket  string        `json:"archive_bucket"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit  RateLimitConfig `json:"rate_limit"`
	CORS       CORSConfig      `json:"cors"`
	AdminToken string          `json:"-"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// BrowserConfig holds browser session configuration
type BrowserConfig struct {
	Headless       bool   `json:"headless"`
	NoSandbox      bool   `json:"no_sandbox"`
	ViewportWidth  int    `json:"viewport_width"`
	ViewportHeight int    `json:"viewport_height"`
	UserAgent      string `json:"user_agent"`
	ExecPath       string `json:"exec_path"`
	DriverPath     string `json:"driver_path"`
}

// PDFConfig holds print-to-PDF options for captured pages.
type PDFConfig struct {
	MarginCM        float64 `json:"margin_cm"`
	PrintBackground bool    `json:"print_background"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 240),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
		},
		Consult: ConsultConfig{
			Backend:        strings.ToLower(getEnv("CONSULT_BACKEND", BackendChromedp)),
			PortalURL:      getEnv("PORTAL_URL", "https://solucoes.receita.fazenda.gov.br/servicos/cnpjreva/cnpjreva_solicitacao.asp"),
			RosterPolicy:   strings.ToLower(getEnv("ROSTER_POLICY", RosterTolerant)),
			MaxConcurrent:  getEnvAsInt("MAX_CONCURRENT_SESSIONS", 4),
			AcquireTimeout: getEnvAsDuration("ACQUIRE_TIMEOUT", 30*time.Second),
			APIBaseURL:     getEnv("API_BASE_URL", "https://www.receitaws.com.br/v1/cnpj"),
			APITimeout:     getEnvAsDuration("API_TIMEOUT", 10*time.Second),
			APIRatePerMin:  getEnvAsInt("API_RATE_PER_MINUTE", 3),
			CacheTTL:       getEnvAsDuration("CACHE_TTL", time.Hour),
			ArchiveBucket:  getEnv("ARCHIVE_BUCKET", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 30),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 5),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
				AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "X-Request-ID", "X-Admin-Token"},
				ExposedHeaders:   []string{"Content-Disposition", "X-Company-Name", "X-Roster-Available", "X-Backend", "X-Request-ID"},
				AllowCredentials: false,
			},
			AdminToken: getEnv("ADMIN_TOKEN", ""),
		},
		Browser: BrowserConfig{
			Headless:       getEnvAsBool("BROWSER_HEADLESS", true),
			NoSandbox:      getEnvAsBool("BROWSER_NO_SANDBOX", true),
			ViewportWidth:  getEnvAsInt("VIEWPORT_WIDTH", 1366),
			ViewportHeight: getEnvAsInt("VIEWPORT_HEIGHT", 768),
			UserAgent:      getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"),
			ExecPath:       getEnv("CHROME_PATH", os.Getenv("CHROME_BIN")),
			DriverPath:     getEnv("PLAYWRIGHT_DRIVER_PATH", ""),
		},
		Timeouts: LoadTimeoutConfig(),
		PDF: PDFConfig{
			MarginCM:        getEnvAsFloat("PDF_MARGIN_CM", 1.0),
			PrintBackground: getEnvAsBool("PDF_PRINT_BACKGROUND", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Consult.Backend {
	case BackendChromedp, BackendRod, BackendPlaywright, BackendAPI:
	default:
		return fmt.Errorf("unknown CONSULT_BACKEND %q", c.Consult.Backend)
	}

	switch c.Consult.RosterPolicy {
	case RosterTolerant, RosterStrict:
	default:
		return fmt.Errorf("unknown ROSTER_POLICY %q", c.Consult.RosterPolicy)
	}

	if c.Consult.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT_SESSIONS must be at least 1, got %d", c.Consult.MaxConcurrent)
	}
	if err := c.Timeouts.Validate(); err != nil {
		return err
	}
	if c.PDF.MarginCM < 0 {
		return fmt.Errorf("PDF_MARGIN_CM must not be negative, got %v", c.PDF.MarginCM)
	}
	return nil
}

// IsBrowserBackend reports whether the configured backend drives a browser.
func (c *Config) IsBrowserBackend() bool {
	return c.Consult.Backend != BackendAPI
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("45s") or plain seconds ("45").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
