package assistant

import (
	"strings"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

// ValidationReason explains why an input was rejected. Empty means valid.
type ValidationReason string

const (
	ReasonBlank      ValidationReason = "blank"
	ReasonNonNumeric ValidationReason = "non_numeric"
	ReasonTooShort   ValidationReason = "too_short"
	ReasonDuplicate  ValidationReason = "duplicate"
)

const (
	minTaxIDDigits = 11
	minPhoneDigits = 10
)

var (
	taxIDSeparators = strings.NewReplacer(".", "", "-", "", "/", "")
	phoneSeparators = strings.NewReplacer("(", "", ")", "", "-", "", " ", "")
)

// NormalizeTaxID strips CPF/CNPJ punctuation. It does not remove other characters.
func NormalizeTaxID(raw string) string {
	return taxIDSeparators.Replace(strings.TrimSpace(raw))
}

// NormalizePhone strips parentheses, dashes and spaces.
func NormalizePhone(raw string) string {
	return phoneSeparators.Replace(strings.TrimSpace(raw))
}

// ValidateTaxID checks format first and then uniqueness against snap.
func ValidateTaxID(raw string, snap *domain.Snapshot) ValidationReason {
	digits := NormalizeTaxID(raw)

	switch {
	case !isDigits(digits):
		return ReasonNonNumeric
	case len(digits) < minTaxIDDigits:
		return ReasonTooShort
	}

	if snap != nil {
		for _, c := range snap.Customers {
			if NormalizeTaxID(c.TaxID) == digits {
				return ReasonDuplicate
			}
		}
	}

	return ""
}

func ValidatePhone(raw string) ValidationReason {
	digits := NormalizePhone(raw)

	switch {
	case !isDigits(digits):
		return ReasonNonNumeric
	case len(digits) < minPhoneDigits:
		return ReasonTooShort
	}

	return ""
}

// isDigits is true for the empty string; length checks catch that case.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
