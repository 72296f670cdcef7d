package consultation

import "time"

// Variant tags which kind of Outcome a consultation produced.
type Variant int

const (
	VariantFailure Variant = iota
	VariantSuccess
	VariantChallenge
)

func (v Variant) String() string {
	switch v {
	case VariantSuccess:
		return "success"
	case VariantChallenge:
		return "challenge_required"
	default:
		return "failure"
	}
}

// ChallengeArtifact is what the detector hands back when the portal blocks
// automation. Image may be nil when the element could not be captured.
type ChallengeArtifact struct {
	Present     bool
	Image       []byte
	ContentType string
	Selector    string
}

// Outcome is the single result of one consultation. Exactly one of the
// variant-specific field groups is populated:
//
//	VariantSuccess:   CompanyName, Card, Roster (Roster may be nil)
//	VariantChallenge: Challenge
//	VariantFailure:   Err
type Outcome struct {
	Variant     Variant
	CNPJ        string
	CompanyName string
	Card        []byte
	Roster      []byte
	Challenge   *ChallengeArtifact
	Err         *Error

	Trace    []State
	Duration time.Duration
}

// Succeeded builds a success outcome.
func Succeeded(cnpj, companyName string, card, roster []byte) Outcome {
	return Outcome{Variant: VariantSuccess, CNPJ: cnpj, CompanyName: companyName, Card: card, Roster: roster}
}

// ChallengeRequired builds a challenge outcome.
func ChallengeRequired(cnpj string, artifact ChallengeArtifact) Outcome {
	return Outcome{Variant: VariantChallenge, CNPJ: cnpj, Challenge: &artifact}
}

// Failed builds a failure outcome.
func Failed(cnpj string, err *Error) Outcome {
	return Outcome{Variant: VariantFailure, CNPJ: cnpj, Err: err}
}

// Rejected builds a failure for a request refused before any browser work,
// with the trace INIT, FAILED, DONE.
func Rejected(cnpj string, err *Error) Outcome {
	m := newMachine()
	_ = m.advance(StateFailed)
	_ = m.advance(StateDone)
	out := Failed(cnpj, err)
	out.Trace = m.Trace()
	return out
}

// RosterAvailable reports whether the roster document was produced.
func (o Outcome) RosterAvailable() bool {
	return len(o.Roster) > 0
}

// Kind returns the failure kind, KindChallengeRequired for challenges, and
// KindUnexpected for successes.
func (o Outcome) Kind() Kind {
	switch o.Variant {
	case VariantChallenge:
		return KindChallengeRequired
	case VariantFailure:
		if o.Err != nil {
			return o.Err.Kind
		}
	}
	return KindUnexpected
}

// Stage returns the failing stage, or "" for non-failures.
func (o Outcome) Stage() Stage {
	if o.Variant == VariantFailure && o.Err != nil {
		return o.Err.Stage
	}
	return ""
}
