package services

import (
	"context"
	"fmt"

	"github.com/nexconsult/cnpj-docs/internal/browser"
	"github.com/nexconsult/cnpj-docs/internal/config"
	"github.com/nexconsult/cnpj-docs/internal/consultation"
	"github.com/sirupsen/logrus"
)

// NewLauncher builds the browser launcher named by cfg.Consult.Backend.
func NewLauncher(cfg *config.Config) (browser.Launcher, error) {
	opts := browser.Options{
		Headless:     cfg.Browser.Headless,
		NoSandbox:    cfg.Browser.NoSandbox,
		Width:        cfg.Browser.ViewportWidth,
		Height:       cfg.Browser.ViewportHeight,
		UserAgent:    cfg.Browser.UserAgent,
		ExecPath:     cfg.Browser.ExecPath,
		DriverPath:   cfg.Browser.DriverPath,
		StartTimeout: cfg.Timeouts.Start,
	}

	switch cfg.Consult.Backend {
	case config.BackendChromedp:
		return browser.NewChromedpLauncher(opts), nil
	case config.BackendRod:
		return browser.NewRodLauncher(opts), nil
	case config.BackendPlaywright:
		return browser.NewPlaywrightLauncher(opts), nil
	default:
		return nil, fmt.Errorf("backend %q does not drive a browser", cfg.Consult.Backend)
	}
}

// WorkflowConfig maps application settings onto the workflow.
func WorkflowConfig(cfg *config.Config) (consultation.Config, error) {
	policy, err := consultation.ParseRosterPolicy(cfg.Consult.RosterPolicy)
	if err != nil {
		return consultation.Config{}, err
	}

	wc := consultation.DefaultConfig()
	if cfg.Consult.PortalURL != "" {
		wc.Portal.URL = cfg.Consult.PortalURL
	}
	wc.RosterPolicy = policy
	wc.PDF = browser.A4(cfg.PDF.MarginCM, cfg.PDF.PrintBackground)
	wc.Timeouts = consultation.Timeouts{
		Navigation:  cfg.Timeouts.Navigation,
		Element:     cfg.Timeouts.Element,
		Submit:      cfg.Timeouts.Submit,
		Link:        cfg.Timeouts.Link,
		Capture:     cfg.Timeouts.Capture,
		Probe:       cfg.Timeouts.Probe,
		SettleDelay: cfg.Timeouts.SettleDelay,
	}
	return wc, nil
}

// BrowserConsultService runs the portal workflow behind a concurrency cap.
type BrowserConsultService struct {
	workflow *consultation.Workflow
	limiter  *Limiter
	stats    *Stats
	logger   *logrus.Logger
}

// NewBrowserConsultService wires a workflow to its limiter and counters.
func NewBrowserConsultService(workflow *consultation.Workflow, limiter *Limiter, stats *Stats, logger *logrus.Logger) *BrowserConsultService {
	return &BrowserConsultService{workflow: workflow, limiter: limiter, stats: stats, logger: logger}
}

// Consult validates before queueing, so malformed input never waits for a slot.
func (s *BrowserConsultService) Consult(ctx context.Context, raw string) consultation.Outcome {
	req, err := consultation.NewRequest(raw)
	if err != nil {
		out := s.workflow.Run(ctx, raw)
		s.stats.Record(out)
		return out
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		cerr, _ := err.(*consultation.Error)
		out := consultation.Rejected(req.CNPJ(), cerr)
		s.logger.WithFields(logrus.Fields{
			"cnpj":  req.CNPJ(),
			"error": err.Error(),
		}).Warn("No browser session available")
		s.stats.Record(out)
		return out
	}
	defer release()

	out := s.workflow.Execute(ctx, req)
	s.stats.Record(out)
	return out
}

// Backend names the browser driver.
func (s *BrowserConsultService) Backend() string {
	return s.workflow.Backend()
}

// Limiter exposes the session cap for stats endpoints.
func (s *BrowserConsultService) Limiter() *Limiter {
	return s.limiter
}

// Health returns service health status
func (s *BrowserConsultService) Health() map[string]interface{} {
	ls := s.limiter.Stats()
	status := "healthy"
	if ls.InFlight >= ls.Capacity {
		status = "degraded"
	}
	return map[string]interface{}{
		"status":        status,
		"backend":       s.Backend(),
		"roster_policy": s.workflow.RosterPolicy().String(),
		"sessions":      ls,
	}
}
