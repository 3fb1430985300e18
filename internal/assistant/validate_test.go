package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

func TestValidateTaxID(t *testing.T) {
	snap := &domain.Snapshot{Customers: []domain.Customer{
		{ID: 1, TaxID: "123.456.789-01"},
		{ID: 2, TaxID: "12345678000190"},
	}}

	testCases := []struct {
		name     string
		input    string
		expected ValidationReason
	}{
		{name: "formatted cpf", input: "111.222.333-44", expected: ""},
		{name: "bare cpf", input: "11122233344", expected: ""},
		{name: "formatted cnpj", input: "98.765.432/0001-10", expected: ""},
		{name: "letters", input: "111.222.333-4x", expected: ReasonNonNumeric},
		{name: "inner space", input: "111 222 333 44", expected: ReasonNonNumeric},
		{name: "short", input: "1234567890", expected: ReasonTooShort},
		{name: "empty", input: "", expected: ReasonTooShort},
		{name: "duplicate cpf", input: "12345678901", expected: ReasonDuplicate},
		{name: "duplicate cnpj", input: "12.345.678/0001-90", expected: ReasonDuplicate},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ValidateTaxID(tc.input, snap))
		})
	}

	assert.Equal(t, ValidationReason(""), ValidateTaxID("12345678901", nil))
}

func TestValidatePhone(t *testing.T) {
	testCases := []struct {
		input    string
		expected ValidationReason
	}{
		{"11 98888-7777", ""},
		{"(11) 3333-4444", ""},
		{"1133334444", ""},
		{"3333-4444", ReasonTooShort},
		{"", ReasonTooShort},
		{"+55 11 98888-7777", ReasonNonNumeric},
		{"11.98888.7777", ReasonNonNumeric},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ValidatePhone(tc.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "11122233344", NormalizeTaxID(" 111.222.333-44 "))
	assert.Equal(t, "12345678000190", NormalizeTaxID("12.345.678/0001-90"))
	assert.Equal(t, "11988887777", NormalizePhone("(11) 98888-7777"))
}
