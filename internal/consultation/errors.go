package consultation

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why a consultation did not succeed.
type Kind int

const (
	KindUnexpected Kind = iota
	KindInputInvalid
	KindBrowserStartFailure
	KindNavigationTimeout
	KindElementNotFound
	KindSubmitTimeout
	KindLinkNotFound
	KindCaptureFailure
	KindChallengeRequired
	// KindBusy is raised by callers that cap concurrent sessions.
	KindBusy
	// KindNotFound and KindUpstream come from the public-API backend.
	KindNotFound
	KindUpstream
)

var kindNames = map[Kind]string{
	KindUnexpected:          "Unexpected",
	KindInputInvalid:        "InputInvalid",
	KindBrowserStartFailure: "BrowserStartFailure",
	KindNavigationTimeout:   "NavigationTimeout",
	KindElementNotFound:     "ElementNotFound",
	KindSubmitTimeout:       "SubmitTimeout",
	KindLinkNotFound:        "LinkNotFound",
	KindCaptureFailure:      "CaptureFailure",
	KindChallengeRequired:   "ChallengeRequired",
	KindBusy:                "Busy",
	KindNotFound:            "NotFound",
	KindUpstream:            "Upstream",
}

var kindCodes = map[Kind]string{
	KindUnexpected:          "UNEXPECTED",
	KindInputInvalid:        "INVALID_CNPJ",
	KindBrowserStartFailure: "BROWSER_START_FAILURE",
	KindNavigationTimeout:   "NAVIGATION_TIMEOUT",
	KindElementNotFound:     "ELEMENT_NOT_FOUND",
	KindSubmitTimeout:       "SUBMIT_TIMEOUT",
	KindLinkNotFound:        "LINK_NOT_FOUND",
	KindCaptureFailure:      "CAPTURE_FAILURE",
	KindChallengeRequired:   "CHALLENGE_REQUIRED",
	KindBusy:                "BUSY",
	KindNotFound:            "CNPJ_NOT_FOUND",
	KindUpstream:            "UPSTREAM_ERROR",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Code is the machine-readable code used in API error bodies.
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindUnexpected]
}

// Stage names the workflow step a failure happened in.
type Stage string

const (
	StageInput         Stage = "input"
	StageQueue         Stage = "queue"
	StageSetup         Stage = "setup"
	StageSubmit        Stage = "submit"
	StageCardCapture   Stage = "card_capture"
	StageRosterNav     Stage = "roster_nav"
	StageRosterCapture Stage = "roster_capture"
	StageLookup        Stage = "lookup"
	StageRender        Stage = "render"
)

// Error is a classified, stage-tagged consultation failure.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Stage != "" {
		msg = string(e.Stage) + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error.
func NewError(kind Kind, stage Stage, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, stage Stage, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind of err, defaulting to KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// classify wraps err as kind at stage. Already classified errors keep their
// kind and only gain a stage if they lack one.
func classify(err error, kind Kind, stage Stage) *Error {
	var e *Error
	if errors.As(err, &e) {
		if e.Stage == "" {
			return &Error{Kind: e.Kind, Stage: stage, Err: e.Err}
		}
		return e
	}
	return &Error{Kind: kind, Stage: stage, Err: err}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
