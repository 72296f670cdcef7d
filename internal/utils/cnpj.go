package utils

import (
	"regexp"
)

const cnpjLength = 14

var (
	nonDigit = regexp.MustCompile(`\D`)

	firstCheckWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondCheckWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// CleanCNPJ removes all non-numeric characters from CNPJ
func CleanCNPJ(cnpj string) string {
	return nonDigit.ReplaceAllString(cnpj, "")
}

// FormatCNPJ formats CNPJ with dots, slash and dash (XX.XXX.XXX/XXXX-XX)
func FormatCNPJ(cnpj string) string {
	cleaned := CleanCNPJ(cnpj)
	if len(cleaned) != cnpjLength {
		return cnpj
	}

	return cleaned[:2] + "." + cleaned[2:5] + "." + cleaned[5:8] + "/" + cleaned[8:12] + "-" + cleaned[12:14]
}

// IsValidCNPJ validates length and both check digits of a CNPJ.
func IsValidCNPJ(cnpj string) bool {
	cleaned := CleanCNPJ(cnpj)
	if len(cleaned) != cnpjLength || isAllSameDigit(cleaned) {
		return false
	}

	digits := make([]int, cnpjLength)
	for i := 0; i < cnpjLength; i++ {
		digits[i] = int(cleaned[i] - '0')
	}

	return CheckDigit(digits[:12], firstCheckWeights) == digits[12] &&
		CheckDigit(digits[:13], secondCheckWeights) == digits[13]
}

// NormalizeCNPJ returns the digits-only form and whether it is a valid CNPJ.
func NormalizeCNPJ(cnpj string) (string, bool) {
	cleaned := CleanCNPJ(cnpj)
	return cleaned, IsValidCNPJ(cleaned)
}

// CompleteCNPJ appends both check digits to a 12-digit base.
func CompleteCNPJ(base string) string {
	cleaned := CleanCNPJ(base)
	if len(cleaned) != 12 {
		return ""
	}
	digits := make([]int, 0, cnpjLength)
	for i := 0; i < len(cleaned); i++ {
		digits = append(digits, int(cleaned[i]-'0'))
	}
	first := CheckDigit(digits, firstCheckWeights)
	digits = append(digits, first)
	second := CheckDigit(digits, secondCheckWeights)
	return cleaned + string(rune('0'+first)) + string(rune('0'+second))
}

// CheckDigit computes the modulo-11 check digit for digits under weights.
func CheckDigit(digits []int, weights []int) int {
	sum := 0
	for i, digit := range digits {
		sum += digit * weights[i]
	}

	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

// GetCNPJType returns MATRIZ for head offices (branch 0001) and FILIAL otherwise.
func GetCNPJType(cnpj string) string {
	cleaned := CleanCNPJ(cnpj)
	if len(cleaned) != cnpjLength {
		return "INVALID"
	}
	if cleaned[8:12] == "0001" {
		return "MATRIZ"
	}
	return "FILIAL"
}

func isAllSameDigit(s string) bool {
	if len(s) == 0 {
		return false
	}

	first := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != first {
			return false
		}
	}
	return true
}
