package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Consult.Backend != BackendChromedp {
		t.Errorf("Backend = %q, want %q", cfg.Consult.Backend, BackendChromedp)
	}
	if cfg.Consult.RosterPolicy != RosterTolerant {
		t.Errorf("RosterPolicy = %q, want %q", cfg.Consult.RosterPolicy, RosterTolerant)
	}
	if cfg.PDF.MarginCM != 1.0 || !cfg.PDF.PrintBackground {
		t.Errorf("PDF = %+v, want 1cm margins with background", cfg.PDF)
	}
	if !cfg.Browser.Headless || !cfg.Browser.NoSandbox {
		t.Errorf("Browser = %+v, want headless without sandbox", cfg.Browser)
	}
	if cfg.Timeouts.Navigation != 30*time.Second {
		t.Errorf("Navigation timeout = %v, want 30s", cfg.Timeouts.Navigation)
	}
	if !cfg.IsBrowserBackend() {
		t.Error("chromedp should be a browser backend")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CONSULT_BACKEND", "API")
	t.Setenv("ROSTER_POLICY", "strict")
	t.Setenv("MAX_CONCURRENT_SESSIONS", "2")
	t.Setenv("NAV_TIMEOUT", "45s")
	t.Setenv("LINK_TIMEOUT", "7")
	t.Setenv("PDF_MARGIN_CM", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ADMIN_TOKEN", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Consult.Backend != BackendAPI || cfg.IsBrowserBackend() {
		t.Errorf("Backend = %q, want api", cfg.Consult.Backend)
	}
	if cfg.Consult.RosterPolicy != RosterStrict {
		t.Errorf("RosterPolicy = %q", cfg.Consult.RosterPolicy)
	}
	if cfg.Consult.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d", cfg.Consult.MaxConcurrent)
	}
	if cfg.Timeouts.Navigation != 45*time.Second {
		t.Errorf("Navigation = %v, want 45s", cfg.Timeouts.Navigation)
	}
	if cfg.Timeouts.Link != 7*time.Second {
		t.Errorf("Link = %v, want 7s", cfg.Timeouts.Link)
	}
	if cfg.PDF.MarginCM != 0 {
		t.Errorf("MarginCM = %v, want 0", cfg.PDF.MarginCM)
	}
	origins := cfg.Security.CORS.AllowedOrigins
	if len(origins) != 2 || origins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", origins)
	}
	if cfg.Security.AdminToken != "s3cret" {
		t.Errorf("AdminToken = %q", cfg.Security.AdminToken)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown backend", "CONSULT_BACKEND", "selenium"},
		{"unknown roster policy", "ROSTER_POLICY", "lenient"},
		{"zero concurrency", "MAX_CONCURRENT_SESSIONS", "0"},
		{"negative margin", "PDF_MARGIN_CM", "-1"},
		{"zero navigation timeout", "NAV_TIMEOUT", "0"},
		{"negative start timeout", "BROWSER_START_TIMEOUT", "-5s"},
		{"zero element timeout", "ELEMENT_TIMEOUT", "0s"},
		{"zero submit timeout", "SUBMIT_TIMEOUT", "0"},
		{"zero link timeout", "LINK_TIMEOUT", "0"},
		{"zero capture timeout", "CAPTURE_TIMEOUT", "0"},
		{"zero probe timeout", "PROBE_TIMEOUT", "0"},
		{"negative settle delay", "SETTLE_DELAY", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestTimeoutValidateAllowsNoSettleDelay(t *testing.T) {
	tc := DefaultTimeoutConfig()
	tc.SettleDelay = 0
	if err := tc.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestTimeoutTotal(t *testing.T) {
	tc := TimeoutConfig{Start: 1, Navigation: 2, Element: 3, Submit: 4, Link: 5, Capture: 6, Probe: 8, SettleDelay: 7}

	// start, open, fill, two detections over 6 selectors plus one screenshot,
	// submit, settle, name read, card, link search, follow, roster.
	want := time.Duration(1 + 2 + 3 + (2*6*8 + 6) + 4 + 7 + 3 + 6 + 5 + 2 + 6)
	if got := tc.Total(6); got != want {
		t.Errorf("Total(6) = %v, want %v", got, want)
	}
	if tc.Total(6) <= tc.Total(0) {
		t.Error("probes do not count towards the total")
	}
}
