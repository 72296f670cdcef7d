package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nexconsult/cnpj-docs/internal/browser"
	"github.com/nexconsult/cnpj-docs/internal/config"
	"github.com/nexconsult/cnpj-docs/internal/consultation"
	"github.com/nexconsult/cnpj-docs/internal/logger"
)

type failingLauncher struct {
	launches int
}

func (l *failingLauncher) Name() string { return "fake" }

func (l *failingLauncher) Launch(ctx context.Context) (browser.Session, error) {
	l.launches++
	return nil, errors.New("no chrome here")
}

func newBrowserService(capacity int) (*BrowserConsultService, *failingLauncher) {
	l := &failingLauncher{}
	wf := consultation.NewWorkflow(l, consultation.DefaultConfig(), logger.Discard())
	return NewBrowserConsultService(wf, NewLimiter(capacity, 20*time.Millisecond), NewStats(), logger.Discard()), l
}

func TestBrowserConsultValidatesBeforeQueueing(t *testing.T) {
	svc, l := newBrowserService(1)
	release, err := svc.Limiter().Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	out := svc.Consult(context.Background(), "not-a-cnpj")
	if out.Kind() != consultation.KindInputInvalid {
		t.Errorf("kind = %s, want InputInvalid even when saturated", out.Kind())
	}
	if l.launches != 0 {
		t.Error("browser launched for invalid input")
	}
}

func TestBrowserConsultBusy(t *testing.T) {
	svc, l := newBrowserService(1)
	release, _ := svc.Limiter().Acquire(context.Background())
	defer release()

	out := svc.Consult(context.Background(), "11222333000181")
	if out.Kind() != consultation.KindBusy || out.Stage() != consultation.StageQueue {
		t.Errorf("got %s at %s", out.Kind(), out.Stage())
	}
	if l.launches != 0 {
		t.Error("browser launched while saturated")
	}
	if len(out.Trace) != 3 {
		t.Errorf("trace = %v", out.Trace)
	}
}

func TestBrowserConsultReleasesSlot(t *testing.T) {
	svc, l := newBrowserService(1)
	for i := 0; i < 3; i++ {
		out := svc.Consult(context.Background(), "11222333000181")
		if out.Kind() != consultation.KindBrowserStartFailure {
			t.Fatalf("run %d: kind = %s", i, out.Kind())
		}
	}
	if l.launches != 3 {
		t.Errorf("launches = %d", l.launches)
	}
	if s := svc.Limiter().Stats(); s.InFlight != 0 {
		t.Errorf("slot leaked: %+v", s)
	}
	if snap := svc.stats.Snapshot(); snap.Failure != 3 || snap.FailuresByKind["BrowserStartFailure"] != 3 {
		t.Errorf("stats = %+v", snap)
	}
}

func TestNewLauncher(t *testing.T) {
	for backend, name := range map[string]string{
		config.BackendChromedp:   "chromedp",
		config.BackendRod:        "rod",
		config.BackendPlaywright: "playwright",
	} {
		cfg := &config.Config{Consult: config.ConsultConfig{Backend: backend}}
		l, err := NewLauncher(cfg)
		if err != nil || l.Name() != name {
			t.Errorf("%s: launcher=%v err=%v", backend, l, err)
		}
	}
	if _, err := NewLauncher(&config.Config{Consult: config.ConsultConfig{Backend: config.BackendAPI}}); err == nil {
		t.Error("api backend must not build a launcher")
	}
}

func TestWorkflowConfig(t *testing.T) {
	cfg := &config.Config{
		Consult:  config.ConsultConfig{RosterPolicy: "strict", PortalURL: "http://portal.test/form"},
		Timeouts: config.DefaultTimeoutConfig(),
		PDF:      config.PDFConfig{MarginCM: 2, PrintBackground: true},
	}
	wc, err := WorkflowConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if wc.RosterPolicy != consultation.RosterStrict || wc.Portal.URL != "http://portal.test/form" {
		t.Errorf("config = %+v", wc)
	}
	if wc.PDF.MarginCM != 2 || wc.Timeouts.Link != cfg.Timeouts.Link {
		t.Errorf("pdf/timeouts not mapped: %+v", wc)
	}

	cfg.Consult.RosterPolicy = "lenient"
	if _, err := WorkflowConfig(cfg); err == nil {
		t.Error("expected error for unknown policy")
	}
}
