package utils

import (
	"regexp"
	"strings"
)

var nonDigitRegexp = regexp.MustCompile(`\D`)

// NormalizeColombianPhoneNumber deja el número como dígitos con prefijo de
// país 57, el formato que exige el despachador de mensajes. Devuelve cadena
// vacía si el número no tiene los 10 dígitos de un celular colombiano.
func NormalizeColombianPhoneNumber(phone string) string {
	digitsOnly := nonDigitRegexp.ReplaceAllString(phone, "")
	digitsOnly = strings.TrimPrefix(digitsOnly, "0057")
	if strings.HasPrefix(digitsOnly, "57") && len(digitsOnly) == 12 {
		digitsOnly = digitsOnly[2:]
	}
	if len(digitsOnly) != 10 {
		return ""
	}
	return "57" + digitsOnly
}
