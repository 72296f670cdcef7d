package consultation

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewRequest(t *testing.T) {
	valid := map[string]string{
		"11222333000181":      "11222333000181",
		"11.222.333/0001-81":  "11222333000181",
		" 11 222 333 0001 81": "11222333000181",
	}
	for in, want := range valid {
		r, err := NewRequest(in)
		if err != nil {
			t.Errorf("NewRequest(%q): %v", in, err)
			continue
		}
		if r.CNPJ() != want {
			t.Errorf("NewRequest(%q).CNPJ() = %q", in, r.CNPJ())
		}
		if r.Formatted() != "11.222.333/0001-81" {
			t.Errorf("Formatted() = %q", r.Formatted())
		}
	}

	for _, in := range []string{"", "abc", "1122233300018", "112223330001811", "11222333000182", "00000000000000"} {
		_, err := NewRequest(in)
		if KindOf(err) != KindInputInvalid {
			t.Errorf("NewRequest(%q) kind = %s", in, KindOf(err))
		}
	}
}

func TestErrorClassification(t *testing.T) {
	cause := errors.New("socket closed")
	e := NewError(KindCaptureFailure, StageCardCapture, cause)
	if e.Error() != "card_capture: CaptureFailure: socket closed" {
		t.Errorf("Error() = %q", e.Error())
	}
	if !errors.Is(e, cause) {
		t.Error("cause not unwrapped")
	}
	if KindOf(fmt.Errorf("wrapped: %w", e)) != KindCaptureFailure {
		t.Error("KindOf does not see wrapped errors")
	}
	if KindOf(cause) != KindUnexpected {
		t.Error("plain errors are unexpected")
	}

	staged := classify(NewError(KindLinkNotFound, "", cause), KindUnexpected, StageRosterNav)
	if staged.Kind != KindLinkNotFound || staged.Stage != StageRosterNav {
		t.Errorf("classify = %+v", staged)
	}
	kept := classify(e, KindUnexpected, StageSetup)
	if kept.Stage != StageCardCapture {
		t.Errorf("classify overwrote stage: %s", kept.Stage)
	}
	if KindNotFound.Code() != "CNPJ_NOT_FOUND" || Kind(99).Code() != "UNEXPECTED" {
		t.Error("unexpected codes")
	}
}
