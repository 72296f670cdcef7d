package consultation

import (
	"context"
	"time"

	"github.com/nexconsult/cnpj-docs/internal/browser"
	"github.com/sirupsen/logrus"
)

// DefaultChallengeSelectors are structural hints of a captcha, most specific first.
var DefaultChallengeSelectors = []string{
	`img[src*="captcha" i]`,
	`[id*="captcha" i]`,
	`[class*="captcha" i]`,
	`[data-sitekey]`,
	`iframe[src*="hcaptcha"]`,
	`iframe[src*="recaptcha"]`,
}

// ChallengeDetector looks for an anti-automation challenge on the current page.
type ChallengeDetector struct {
	selectors      []string
	probeTimeout   time.Duration
	captureTimeout time.Duration
	log            *logrus.Entry
}

// NewChallengeDetector creates a detector. Nil selectors mean DefaultChallengeSelectors.
func NewChallengeDetector(selectors []string, probe, capture time.Duration, log *logrus.Entry) *ChallengeDetector {
	if len(selectors) == 0 {
		selectors = DefaultChallengeSelectors
	}
	return &ChallengeDetector{selectors: selectors, probeTimeout: probe, captureTimeout: capture, log: log}
}

// Detect never fails. Probe errors count as absence; a failed screenshot
// still reports presence, just without an image.
func (d *ChallengeDetector) Detect(ctx context.Context, s browser.Session) ChallengeArtifact {
	for _, selector := range d.selectors {
		probeCtx, cancel := context.WithTimeout(ctx, d.probeTimeout)
		found, err := s.Exists(probeCtx, selector)
		cancel()
		if err != nil {
			d.log.WithError(err).WithField("selector", selector).Debug("Challenge probe failed")
			continue
		}
		if !found {
			continue
		}

		artifact := ChallengeArtifact{Present: true, Selector: selector}
		shotCtx, cancel := context.WithTimeout(ctx, d.captureTimeout)
		img, err := s.ScreenshotElement(shotCtx, selector)
		cancel()
		if err != nil || len(img) == 0 {
			d.log.WithError(err).WithField("selector", selector).Warn("Challenge present but screenshot failed")
			return artifact
		}
		artifact.Image = img
		artifact.ContentType = "image/png"
		return artifact
	}
	return ChallengeArtifact{}
}
