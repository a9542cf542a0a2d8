package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeColombianPhoneNumber(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"celular de 10 dígitos", "3001234567", "573001234567"},
		{"con prefijo +57", "+57 300 123 4567", "573001234567"},
		{"con prefijo 57 sin signo", "573001234567", "573001234567"},
		{"con prefijo internacional 0057", "00573001234567", "573001234567"},
		{"con separadores", "300-123-45-67", "573001234567"},
		{"con paréntesis", "(300) 123 4567", "573001234567"},
		{"muy corto", "12345", ""},
		{"muy largo", "30012345678901", ""},
		{"vacío", "", ""},
		{"solo letras", "abcdefghij", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeColombianPhoneNumber(tc.input))
		})
	}
}
