package consultation

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestRunSuccess(t *testing.T) {
	s := newFakeSession(t)
	l := &fakeLauncher{session: s}
	out := testWorkflow(l, RosterTolerant).Run(context.Background(), "11222333000181")

	if out.Variant != VariantSuccess {
		t.Fatalf("variant = %s, err = %v", out.Variant, out.Err)
	}
	if len(out.Card) == 0 || len(out.Roster) == 0 {
		t.Fatalf("expected both documents, card=%d roster=%d", len(out.Card), len(out.Roster))
	}
	if out.CompanyName != "ACME COMERCIO LTDA" {
		t.Errorf("company name = %q", out.CompanyName)
	}
	if !out.RosterAvailable() {
		t.Error("roster should be available")
	}
	if s.closeCalls != 1 {
		t.Errorf("close calls = %d, want 1", s.closeCalls)
	}
	want := []State{StateInit, StateFormLoaded, StateSubmitted, StateResultLoaded, StateCardCaptured,
		StateQSANavAttempted, StateRosterCaptured, StateDone}
	if !reflect.DeepEqual(out.Trace, want) {
		t.Errorf("trace = %v, want %v", out.Trace, want)
	}
	if out.Duration <= 0 {
		t.Error("duration not recorded")
	}
}

func TestRunNormalizesInput(t *testing.T) {
	s := newFakeSession(t)
	out := testWorkflow(&fakeLauncher{session: s}, RosterTolerant).Run(context.Background(), "11.222.333/0001-81")
	if out.Variant != VariantSuccess {
		t.Fatalf("variant = %s, err = %v", out.Variant, out.Err)
	}
	if got := s.filled[DefaultPortal().CNPJField]; got != "11222333000181" {
		t.Errorf("filled %q, want digits only", got)
	}
	if out.CNPJ != "11222333000181" {
		t.Errorf("outcome cnpj = %q", out.CNPJ)
	}
}

func TestRunChallenge(t *testing.T) {
	s := newFakeSession(t)
	s.challenge = `[data-sitekey]`
	out := testWorkflow(&fakeLauncher{session: s}, RosterTolerant).Run(context.Background(), "11222333000181")

	if out.Variant != VariantChallenge {
		t.Fatalf("variant = %s, want challenge", out.Variant)
	}
	if out.Challenge == nil || !out.Challenge.Present || len(out.Challenge.Image) == 0 {
		t.Fatalf("challenge artifact = %+v", out.Challenge)
	}
	if out.Kind() != KindChallengeRequired {
		t.Errorf("kind = %s", out.Kind())
	}
	if s.printCalls != 0 {
		t.Errorf("print calls = %d, no capture should happen", s.printCalls)
	}
	if s.closeCalls != 1 {
		t.Errorf("close calls = %d, want 1", s.closeCalls)
	}
	want := []State{StateInit, StateFormLoaded, StateSubmitted, StateChallengeBlocked, StateDone}
	if !reflect.DeepEqual(out.Trace, want) {
		t.Errorf("trace = %v, want %v", out.Trace, want)
	}
}

func TestRunChallengeOnQueryForm(t *testing.T) {
	s := newFakeSession(t)
	s.formChallenge = `img[src*="captcha" i]`
	s.html = `<html><body><p>Erro na consulta</p></body></html>`
	out := testWorkflow(&fakeLauncher{session: s}, RosterTolerant).Run(context.Background(), "11222333000181")

	if out.Variant != VariantChallenge {
		t.Fatalf("variant = %s, want challenge", out.Variant)
	}
	if out.Challenge.Selector != s.formChallenge {
		t.Errorf("selector = %q", out.Challenge.Selector)
	}
	if s.submitCalls != 0 {
		t.Errorf("submit calls = %d, the form must not be submitted", s.submitCalls)
	}
	if s.printCalls != 0 {
		t.Errorf("print calls = %d", s.printCalls)
	}
	if s.closeCalls != 1 {
		t.Errorf("close calls = %d, want 1", s.closeCalls)
	}
	want := []State{StateInit, StateFormLoaded, StateSubmitted, StateChallengeBlocked, StateDone}
	if !reflect.DeepEqual(out.Trace, want) {
		t.Errorf("trace = %v, want %v", out.Trace, want)
	}
}

func TestRunChallengeAfterSubmit(t *testing.T) {
	s := newFakeSession(t)
	s.pageChallenge = `iframe[src*="hcaptcha"]`
	out := testWorkflow(&fakeLauncher{session: s}, RosterTolerant).Run(context.Background(), "11222333000181")

	if out.Variant != VariantChallenge {
		t.Fatalf("variant = %s, want challenge", out.Variant)
	}
	if s.submitCalls != 1 {
		t.Errorf("submit calls = %d, want 1", s.submitCalls)
	}
	want := []State{StateInit, StateFormLoaded, StateSubmitted, StateChallengeBlocked, StateDone}
	if !reflect.DeepEqual(out.Trace, want) {
		t.Errorf("trace = %v, want %v", out.Trace, want)
	}
}

func TestRunInvalidInputNeverLaunches(t *testing.T) {
	for _, raw := range []string{"abc", "", "123", "11222333000180"} {
		l := &fakeLauncher{session: newFakeSession(t)}
		out := testWorkflow(l, RosterTolerant).Run(context.Background(), raw)

		if out.Variant != VariantFailure || out.Kind() != KindInputInvalid {
			t.Errorf("%q: variant=%s kind=%s", raw, out.Variant, out.Kind())
		}
		if out.Stage() != StageInput {
			t.Errorf("%q: stage = %s", raw, out.Stage())
		}
		if l.launches != 0 {
			t.Errorf("%q: browser launched %d times", raw, l.launches)
		}
		want := []State{StateInit, StateFailed, StateDone}
		if !reflect.DeepEqual(out.Trace, want) {
			t.Errorf("%q: trace = %v", raw, out.Trace)
		}
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeSession, *fakeLauncher)
		kind  Kind
		stage Stage
	}{
		{
			name:  "navigation timeout",
			setup: func(s *fakeSession, _ *fakeLauncher) { s.navigateErr = context.DeadlineExceeded },
			kind:  KindNavigationTimeout,
			stage: StageSetup,
		},
		{
			name:  "field missing",
			setup: func(s *fakeSession, _ *fakeLauncher) { s.fillErr = context.DeadlineExceeded },
			kind:  KindElementNotFound,
			stage: StageSetup,
		},
		{
			name:  "submit timeout",
			setup: func(s *fakeSession, _ *fakeLauncher) { s.submitErr = context.DeadlineExceeded },
			kind:  KindSubmitTimeout,
			stage: StageSubmit,
		},
		{
			name:  "navigation error",
			setup: func(s *fakeSession, _ *fakeLauncher) { s.navigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED") },
			kind:  KindUnexpected,
			stage: StageSetup,
		},
		{
			name:  "card print error",
			setup: func(s *fakeSession, _ *fakeLauncher) { s.pdfErrs = []error{errors.New("printing failed")} },
			kind:  KindCaptureFailure,
			stage: StageCardCapture,
		},
		{
			name:  "card corrupt",
			setup: func(s *fakeSession, _ *fakeLauncher) { s.pdfs[0] = []byte("%PDF-1.4 truncated") },
			kind:  KindCaptureFailure,
			stage: StageCardCapture,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSession(t)
			l := &fakeLauncher{session: s}
			tt.setup(s, l)

			out := testWorkflow(l, RosterTolerant).Run(context.Background(), "11222333000181")
			if out.Variant != VariantFailure {
				t.Fatalf("variant = %s", out.Variant)
			}
			if out.Kind() != tt.kind || out.Stage() != tt.stage {
				t.Errorf("got %s at %s, want %s at %s", out.Kind(), out.Stage(), tt.kind, tt.stage)
			}
			if out.Card != nil || out.Roster != nil {
				t.Error("failure must not carry documents")
			}
			if s.closeCalls != 1 {
				t.Errorf("close calls = %d, want 1", s.closeCalls)
			}
			if s.linkCalls != 0 {
				t.Errorf("roster navigation attempted %d times", s.linkCalls)
			}
			if n := len(out.Trace); n < 2 || out.Trace[n-2] != StateFailed || out.Trace[n-1] != StateDone {
				t.Errorf("trace = %v", out.Trace)
			}
		})
	}
}

func TestRunBrowserStartFailure(t *testing.T) {
	l := &fakeLauncher{err: errors.New("chrome not found")}
	out := testWorkflow(l, RosterTolerant).Run(context.Background(), "11222333000181")

	if out.Kind() != KindBrowserStartFailure || out.Stage() != StageSetup {
		t.Errorf("got %s at %s", out.Kind(), out.Stage())
	}
	if l.launches != 1 {
		t.Errorf("launches = %d", l.launches)
	}
}

func TestRunRosterTolerant(t *testing.T) {
	s := newFakeSession(t)
	s.clickable = map[string]int{}
	out := testWorkflow(&fakeLauncher{session: s}, RosterTolerant).Run(context.Background(), "11222333000181")

	if out.Variant != VariantSuccess {
		t.Fatalf("variant = %s, err = %v", out.Variant, out.Err)
	}
	if len(out.Card) == 0 || out.Roster != nil || out.RosterAvailable() {
		t.Errorf("want card only, roster=%d", len(out.Roster))
	}
	want := []State{StateInit, StateFormLoaded, StateSubmitted, StateResultLoaded, StateCardCaptured,
		StateQSANavAttempted, StateRosterUnavailable, StateDone}
	if !reflect.DeepEqual(out.Trace, want) {
		t.Errorf("trace = %v", out.Trace)
	}
	if s.printCalls != 1 {
		t.Errorf("print calls = %d, want 1", s.printCalls)
	}
	if s.closeCalls != 1 {
		t.Errorf("close calls = %d", s.closeCalls)
	}
}

func TestRunRosterStrict(t *testing.T) {
	t.Run("link missing", func(t *testing.T) {
		s := newFakeSession(t)
		s.clickable = map[string]int{}
		out := testWorkflow(&fakeLauncher{session: s}, RosterStrict).Run(context.Background(), "11222333000181")

		if out.Kind() != KindLinkNotFound || out.Stage() != StageRosterNav {
			t.Errorf("got %s at %s", out.Kind(), out.Stage())
		}
		if out.Card != nil {
			t.Error("strict failure must not return the card")
		}
	})

	t.Run("roster capture fails", func(t *testing.T) {
		s := newFakeSession(t)
		s.pdfErrs = []error{nil, errors.New("printing failed")}
		out := testWorkflow(&fakeLauncher{session: s}, RosterStrict).Run(context.Background(), "11222333000181")

		if out.Kind() != KindCaptureFailure || out.Stage() != StageRosterCapture {
			t.Errorf("got %s at %s", out.Kind(), out.Stage())
		}
	})

	t.Run("link times out after click", func(t *testing.T) {
		s := newFakeSession(t)
		s.followErr = context.DeadlineExceeded
		out := testWorkflow(&fakeLauncher{session: s}, RosterStrict).Run(context.Background(), "11222333000181")

		if out.Kind() != KindNavigationTimeout || out.Stage() != StageRosterNav {
			t.Errorf("got %s at %s", out.Kind(), out.Stage())
		}
	})
}

func TestRunRosterCaptureFailureTolerant(t *testing.T) {
	s := newFakeSession(t)
	s.pdfErrs = []error{nil, errors.New("printing failed")}
	out := testWorkflow(&fakeLauncher{session: s}, RosterTolerant).Run(context.Background(), "11222333000181")

	if out.Variant != VariantSuccess || out.RosterAvailable() {
		t.Errorf("variant=%s roster=%v", out.Variant, out.RosterAvailable())
	}
}

func TestRunRecoversPanic(t *testing.T) {
	s := newFakeSession(t)
	s.htmlPanic = true
	out := testWorkflow(&fakeLauncher{session: s}, RosterTolerant).Run(context.Background(), "11222333000181")

	if out.Variant != VariantFailure || out.Kind() != KindUnexpected {
		t.Errorf("variant=%s kind=%s", out.Variant, out.Kind())
	}
	if s.closeCalls != 1 {
		t.Errorf("close calls = %d, want 1", s.closeCalls)
	}
	if n := len(out.Trace); out.Trace[n-1] != StateDone {
		t.Errorf("trace = %v", out.Trace)
	}
}

func TestRunCancelledContext(t *testing.T) {
	s := newFakeSession(t)
	s.navigateErr = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := testWorkflow(&fakeLauncher{session: s}, RosterTolerant).Run(ctx, "11222333000181")
	if out.Variant != VariantFailure || out.Stage() != StageSetup {
		t.Errorf("variant=%s stage=%s", out.Variant, out.Stage())
	}
	if s.closeCalls != 1 {
		t.Errorf("close calls = %d, want 1", s.closeCalls)
	}
}

func TestParseRosterPolicy(t *testing.T) {
	tests := map[string]RosterPolicy{"": RosterTolerant, "tolerant": RosterTolerant, " STRICT ": RosterStrict}
	for in, want := range tests {
		got, err := ParseRosterPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseRosterPolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRosterPolicy("lenient"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
