package consultation

import (
	"context"
	"errors"
	"testing"

	"github.com/nexconsult/cnpj-docs/internal/logger"
)

func TestChallengeDetector(t *testing.T) {
	log := logger.Component(logger.Discard(), "test")
	d := NewChallengeDetector(nil, testTimeouts().Probe, testTimeouts().Capture, log)

	t.Run("absent", func(t *testing.T) {
		if a := d.Detect(context.Background(), newFakeSession(t)); a.Present {
			t.Errorf("artifact = %+v", a)
		}
	})

	t.Run("present with image", func(t *testing.T) {
		s := newFakeSession(t)
		s.challenge = `img[src*="captcha" i]`
		a := d.Detect(context.Background(), s)
		if !a.Present || len(a.Image) == 0 || a.ContentType != "image/png" || a.Selector != s.challenge {
			t.Errorf("artifact = %+v", a)
		}
	})

	t.Run("screenshot fails", func(t *testing.T) {
		s := newFakeSession(t)
		s.challenge = `iframe[src*="hcaptcha"]`
		s.screenshotErr = errors.New("element detached")
		a := d.Detect(context.Background(), s)
		if !a.Present || a.Image != nil {
			t.Errorf("artifact = %+v, want present without image", a)
		}
	})

	t.Run("custom selectors", func(t *testing.T) {
		s := newFakeSession(t)
		s.challenge = "#robot-check"
		custom := NewChallengeDetector([]string{"#robot-check"}, testTimeouts().Probe, testTimeouts().Capture, log)
		if a := custom.Detect(context.Background(), s); !a.Present {
			t.Error("custom selector not probed")
		}
		if a := d.Detect(context.Background(), s); a.Present {
			t.Error("default selectors should not match #robot-check")
		}
	})
}
