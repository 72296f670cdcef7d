package consultation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexconsult/cnpj-docs/internal/browser"
	"github.com/nexconsult/cnpj-docs/internal/utils"
	"github.com/sirupsen/logrus"
)

// RosterPolicy decides what a missing roster document means.
type RosterPolicy int

const (
	// RosterTolerant returns the card alone when the roster cannot be obtained.
	RosterTolerant RosterPolicy = iota
	// RosterStrict fails the whole consultation instead.
	RosterStrict
)

func (p RosterPolicy) String() string {
	if p == RosterStrict {
		return "strict"
	}
	return "tolerant"
}

// ParseRosterPolicy accepts "tolerant" or "strict".
func ParseRosterPolicy(s string) (RosterPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tolerant":
		return RosterTolerant, nil
	case "strict":
		return RosterStrict, nil
	default:
		return RosterTolerant, fmt.Errorf("unknown roster policy %q", s)
	}
}

// Portal describes the query form and the roster link of the target site.
type Portal struct {
	URL          string
	CNPJField    string
	SubmitButton string
	RosterLinks  []browser.LinkMatcher
}

// DefaultPortal targets the Receita Federal CNPJ card service.
func DefaultPortal() Portal {
	return Portal{
		URL:          "https://solucoes.receita.fazenda.gov.br/servicos/cnpjreva/cnpjreva_solicitacao.asp",
		CNPJField:    `input[name="cnpj"]`,
		SubmitButton: `input[type="submit"]`,
		RosterLinks: []browser.LinkMatcher{
			{Text: "Quadro de Sócios", Exact: true},
			{Text: "Quadro de Sócios"},
			{Text: "QSA", Exact: true},
			{Text: "QSA"},
		},
	}
}

// Config holds everything a Workflow needs besides its launcher.
type Config struct {
	Portal             Portal
	Timeouts           Timeouts
	PDF                browser.PDFOptions
	RosterPolicy       RosterPolicy
	ChallengeSelectors []string
}

// DefaultConfig returns the portal defaults with 1cm A4 captures.
func DefaultConfig() Config {
	return Config{
		Portal:       DefaultPortal(),
		Timeouts:     DefaultTimeouts(),
		PDF:          browser.A4(1.0, true),
		RosterPolicy: RosterTolerant,
	}
}

// Workflow drives one browser session through the acquisition state machine
// per call. It holds no per-request state and is safe for concurrent use.
type Workflow struct {
	launcher  browser.Launcher
	cfg       Config
	extractor *Extractor
	capturer  *Capturer
	logger    *logrus.Logger
}

// NewWorkflow creates a workflow over launcher.
func NewWorkflow(launcher browser.Launcher, cfg Config, logger *logrus.Logger) *Workflow {
	return &Workflow{
		launcher:  launcher,
		cfg:       cfg,
		extractor: NewExtractor(),
		capturer:  NewCapturer(cfg.PDF, cfg.Timeouts.Capture),
		logger:    logger,
	}
}

// Backend names the browser driver in use.
func (w *Workflow) Backend() string { return w.launcher.Name() }

// RosterPolicy returns the configured roster policy.
func (w *Workflow) RosterPolicy() RosterPolicy { return w.cfg.RosterPolicy }

// Run validates raw and executes the workflow. Invalid input is rejected
// before any browser is started.
func (w *Workflow) Run(ctx context.Context, raw string) Outcome {
	req, err := NewRequest(raw)
	if err != nil {
		out := Rejected(utils.CleanCNPJ(raw), classify(err, KindInputInvalid, StageInput))
		w.logger.WithFields(logrus.Fields{
			"input": raw,
			"error": err.Error(),
		}).Warn("Rejected consultation input")
		return out
	}
	return w.Execute(ctx, req)
}

// Execute runs the state machine for a validated request. The session is
// closed exactly once on every path, including panics in driver code.
func (w *Workflow) Execute(ctx context.Context, req Request) (out Outcome) {
	r := &run{
		m:     newMachine(),
		cnpj:  req.CNPJ(),
		start: time.Now(),
		stage: StageSetup,
		log: w.logger.WithFields(logrus.Fields{
			"run_id":  uuid.NewString(),
			"cnpj":    req.CNPJ(),
			"backend": w.launcher.Name(),
		}),
	}

	var session browser.Session
	defer func() {
		if p := recover(); p != nil {
			out = r.fail(NewError(KindUnexpected, r.stage, fmt.Errorf("panic: %v", p)))
		}
		if session != nil {
			if err := session.Close(); err != nil {
				r.log.WithError(err).Warn("Browser session close failed")
			}
		}
		r.finish(&out)
	}()

	r.log.Info("Starting consultation")

	s, err := w.launcher.Launch(ctx)
	if err != nil {
		return r.fail(NewError(KindBrowserStartFailure, StageSetup, err))
	}
	session = s

	nav := NewNavigator(session, w.cfg.Timeouts)
	if err := nav.Open(ctx, w.cfg.Portal.URL); err != nil {
		return r.fail(classify(err, KindUnexpected, StageSetup))
	}
	if err := nav.FillField(ctx, w.cfg.Portal.CNPJField, req.CNPJ()); err != nil {
		return r.fail(classify(err, KindUnexpected, StageSetup))
	}
	r.enter(StateFormLoaded)

	// The portal renders its captcha on the query form; a hit there is
	// recorded as submitted without clicking.
	r.stage = StageSubmit
	detector := NewChallengeDetector(w.cfg.ChallengeSelectors, w.cfg.Timeouts.Probe, w.cfg.Timeouts.Capture, r.log)
	if artifact := detector.Detect(ctx, session); artifact.Present {
		r.enter(StateSubmitted)
		return w.challenged(r, artifact, "form")
	}

	if err := nav.Submit(ctx, w.cfg.Portal.SubmitButton); err != nil {
		return r.fail(classify(err, KindUnexpected, StageSubmit))
	}
	r.enter(StateSubmitted)
	nav.Settle(ctx)

	if artifact := detector.Detect(ctx, session); artifact.Present {
		return w.challenged(r, artifact, "result")
	}
	r.enter(StateResultLoaded)

	name := w.companyName(ctx, session, r.log)

	r.stage = StageCardCapture
	card, pages, err := w.capturer.Capture(ctx, session)
	if err != nil {
		return r.fail(classify(err, KindCaptureFailure, StageCardCapture))
	}
	r.enter(StateCardCaptured)
	r.log.WithField("pages", pages).Debug("Card captured")

	r.stage = StageRosterNav
	r.enter(StateQSANavAttempted)
	matched, err := nav.ClickLink(ctx, w.cfg.Portal.RosterLinks)
	if err != nil {
		return w.rosterMissing(r, name, card, classify(err, KindLinkNotFound, StageRosterNav))
	}
	r.log.WithField("matcher", matched.String()).Debug("Roster link followed")

	r.stage = StageRosterCapture
	roster, pages, err := w.capturer.Capture(ctx, session)
	if err != nil {
		return w.rosterMissing(r, name, card, classify(err, KindCaptureFailure, StageRosterCapture))
	}
	r.enter(StateRosterCaptured)
	r.log.WithField("pages", pages).Debug("Roster captured")

	return Succeeded(r.cnpj, name, card, roster)
}

func (w *Workflow) challenged(r *run, artifact ChallengeArtifact, page string) Outcome {
	r.enter(StateChallengeBlocked)
	r.log.WithFields(logrus.Fields{
		"page":      page,
		"selector":  artifact.Selector,
		"has_image": artifact.Image != nil,
	}).Warn("Challenge detected, stopping before capture")
	return ChallengeRequired(r.cnpj, artifact)
}

func (w *Workflow) rosterMissing(r *run, name string, card []byte, cause *Error) Outcome {
	if w.cfg.RosterPolicy == RosterStrict {
		return r.fail(cause)
	}
	r.enter(StateRosterUnavailable)
	r.log.WithFields(logrus.Fields{
		"stage": cause.Stage,
		"kind":  cause.Kind.String(),
		"error": cause.Error(),
	}).Warn("Roster unavailable, returning card only")
	return Succeeded(r.cnpj, name, card, nil)
}

func (w *Workflow) companyName(ctx context.Context, s browser.Session, log *logrus.Entry) string {
	htmlCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeouts.Element)
	defer cancel()

	html, err := s.HTML(htmlCtx)
	if err != nil {
		log.WithError(err).Warn("Could not read result page, using placeholder name")
		return NamePlaceholder
	}
	return w.extractor.ExtractName(html)
}

// run is the per-invocation bookkeeping of Execute.
type run struct {
	m     *machine
	log   *logrus.Entry
	cnpj  string
	start time.Time
	stage Stage
}

// enter advances the machine. An illegal transition is a programming error
// and panics; Execute recovers it as KindUnexpected.
func (r *run) enter(to State) {
	if err := r.m.advance(to); err != nil {
		panic(err)
	}
	r.log.WithField("state", to).Debug("State changed")
}

func (r *run) fail(err *Error) Outcome {
	if r.m.current != StateFailed {
		_ = r.m.advance(StateFailed)
	}
	r.log.WithFields(logrus.Fields{
		"stage": err.Stage,
		"kind":  err.Kind.String(),
		"error": err.Error(),
	}).Error("Consultation failed")
	return Failed(r.cnpj, err)
}

func (r *run) finish(out *Outcome) {
	_ = r.m.advance(StateDone)
	out.Trace = r.m.Trace()
	out.Duration = time.Since(r.start)

	r.log.WithFields(logrus.Fields{
		"outcome":          out.Variant.String(),
		"roster_available": out.RosterAvailable(),
		"duration":         out.Duration,
	}).Info("Consultation finished")
}
