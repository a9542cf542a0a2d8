// Archivo: pkg/customvalidator/validator.go

package customvalidator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations registra todas nuestras reglas propias en el
// validador que recibe.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("phone_CO", isColombianPhoneNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("ticket_priority", isTicketPriority); err != nil {
		return err
	}
	if err := v.RegisterValidation("email", isGoodEmailFormat); err != nil {
		return err
	}
	return nil
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(fl.Field().String())
}

// Celular colombiano: 10 dígitos empezando por 3, con o sin +57.
func isColombianPhoneNumber(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^(\+?57)?3\d{9}$`)
	return re.MatchString(fl.Field().String())
}

func isTicketPriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Alta", "Media", "Baja":
		return true
	}
	return false
}
