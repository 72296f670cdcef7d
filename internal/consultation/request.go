package consultation

import (
	"github.com/nexconsult/cnpj-docs/internal/utils"
)

// Request is a validated, digits-only CNPJ.
type Request struct {
	cnpj string
}

// NewRequest extracts the digits from raw and validates length and check
// digits. Failures are KindInputInvalid at StageInput.
func NewRequest(raw string) (Request, error) {
	digits := utils.CleanCNPJ(raw)
	switch {
	case digits == "":
		return Request{}, Errorf(KindInputInvalid, StageInput, "no digits in %q", raw)
	case len(digits) != 14:
		return Request{}, Errorf(KindInputInvalid, StageInput, "CNPJ must have 14 digits, got %d", len(digits))
	case !utils.IsValidCNPJ(digits):
		return Request{}, Errorf(KindInputInvalid, StageInput, "CNPJ %s has invalid check digits", digits)
	}
	return Request{cnpj: digits}, nil
}

// CNPJ returns the 14 digits.
func (r Request) CNPJ() string { return r.cnpj }

// Formatted returns XX.XXX.XXX/XXXX-XX.
func (r Request) Formatted() string { return utils.FormatCNPJ(r.cnpj) }
