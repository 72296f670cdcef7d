package config

import (
	"fmt"
	"time"
)

// TimeoutConfig bounds every blocking step of a browser consultation.
type TimeoutConfig struct {
	Start       time.Duration `json:"start"`
	Navigation  time.Duration `json:"navigation"`
	Element     time.Duration `json:"element"`
	Submit      time.Duration `json:"submit"`
	Link        time.Duration `json:"link"`
	Capture     time.Duration `json:"capture"`
	Probe       time.Duration `json:"probe"`
	SettleDelay time.Duration `json:"settle_delay"`
}

// DefaultTimeoutConfig returns the step timeouts used when nothing is configured.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Start:       30 * time.Second,
		Navigation:  30 * time.Second,
		Element:     10 * time.Second,
		Submit:      30 * time.Second,
		Link:        10 * time.Second,
		Capture:     30 * time.Second,
		Probe:       2 * time.Second,
		SettleDelay: 2 * time.Second,
	}
}

// LoadTimeoutConfig overlays *_TIMEOUT environment variables on the defaults.
func LoadTimeoutConfig() TimeoutConfig {
	d := DefaultTimeoutConfig()
	return TimeoutConfig{
		Start:       getEnvAsDuration("BROWSER_START_TIMEOUT", d.Start),
		Navigation:  getEnvAsDuration("NAV_TIMEOUT", d.Navigation),
		Element:     getEnvAsDuration("ELEMENT_TIMEOUT", d.Element),
		Submit:      getEnvAsDuration("SUBMIT_TIMEOUT", d.Submit),
		Link:        getEnvAsDuration("LINK_TIMEOUT", d.Link),
		Capture:     getEnvAsDuration("CAPTURE_TIMEOUT", d.Capture),
		Probe:       getEnvAsDuration("PROBE_TIMEOUT", d.Probe),
		SettleDelay: getEnvAsDuration("SETTLE_DELAY", d.SettleDelay),
	}
}

// Total is the worst-case wall time of one consultation when the challenge
// detector checks probes selectors. Detection runs on the query form and
// again on the result page; only a hit is screenshotted.
func (t TimeoutConfig) Total(probes int) time.Duration {
	detect := 2*time.Duration(probes)*t.Probe + t.Capture
	return t.Start + t.Navigation + t.Element + detect + t.Submit + t.SettleDelay +
		t.Element + t.Capture + t.Link + t.Navigation + t.Capture
}

// Validate requires every step timeout to be positive. SettleDelay may be zero.
func (t TimeoutConfig) Validate() error {
	steps := []struct {
		env string
		d   time.Duration
	}{
		{"BROWSER_START_TIMEOUT", t.Start},
		{"NAV_TIMEOUT", t.Navigation},
		{"ELEMENT_TIMEOUT", t.Element},
		{"SUBMIT_TIMEOUT", t.Submit},
		{"LINK_TIMEOUT", t.Link},
		{"CAPTURE_TIMEOUT", t.Capture},
		{"PROBE_TIMEOUT", t.Probe},
	}
	for _, s := range steps {
		if s.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", s.env, s.d)
		}
	}
	if t.SettleDelay < 0 {
		return fmt.Errorf("SETTLE_DELAY must not be negative, got %s", t.SettleDelay)
	}
	return nil
}
