package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-docs/internal/config"
	"github.com/nexconsult/cnpj-docs/internal/consultation"
	"github.com/nexconsult/cnpj-docs/internal/logger"
	"github.com/nexconsult/cnpj-docs/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubConsultService struct{}

func (stubConsultService) Consult(_ context.Context, raw string) consultation.Outcome {
	return consultation.Succeeded(raw, "ACME", []byte("%PDF-card"), nil)
}

func (stubConsultService) Backend() string { return "stub" }

func (stubConsultService) Health() map[string]interface{} {
	return map[string]interface{}{"status": "healthy"}
}

func testConfig(env, adminToken string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: env},
		Security: config.SecurityConfig{
			RateLimit: config.RateLimitConfig{RequestsPerMinute: 60, BurstSize: 10},
			CORS: config.CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			},
			AdminToken: adminToken,
		},
	}
}

func testServer(t *testing.T, env, adminToken string) *Server {
	t.Helper()
	log := logger.Discard()
	container := &services.Container{
		ConsultService: stubConsultService{},
		CacheService:   services.NewCacheService(nil, time.Minute, log),
		Packager:       services.NewPackager(nil, log),
		Stats:          services.NewStats(),
	}
	s := NewServer(testConfig(env, adminToken), log, container)
	t.Cleanup(s.Close)
	return s
}

func request(s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	s := testServer(t, "development", "")

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodGet, "/health/live", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/sessions/stats", "", http.StatusOK},
		{http.MethodGet, "/api/v1/cache/stats", "", http.StatusOK},
		{http.MethodPost, "/api/consult", `{"cnpj":"11222333000181"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/consult/11222333000181", "", http.StatusOK},
		{http.MethodGet, "/swagger/doc.json", "", http.StatusOK},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
		{http.MethodPut, "/api/consult", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := request(s, tt.method, tt.path, tt.body, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}

func TestConsultDownloadHeaders(t *testing.T) {
	s := testServer(t, "development", "")

	w := request(s, http.MethodPost, "/api/consult", `{"cnpj":"11222333000181"}`, map[string]string{"Origin": "https://app.example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("X-Backend"); got != "stub" {
		t.Errorf("X-Backend = %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "60" {
		t.Errorf("X-RateLimit-Limit = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestSwaggerDisabledInProduction(t *testing.T) {
	s := testServer(t, "production", "")

	if w := request(s, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCacheRoutesRequireAdminToken(t *testing.T) {
	s := testServer(t, "production", "s3cret")

	if w := request(s, http.MethodDelete, "/api/v1/cache/clear", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want 401", w.Code)
	}
	w := request(s, http.MethodDelete, "/api/v1/cache/clear", "", map[string]string{"X-Admin-Token": "s3cret"})
	if w.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want 200", w.Code)
	}
	if w := request(s, http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", w.Code)
	}
}
