package utils

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "property-system/pkg/errors"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator(v *validator.Validate) *CustomValidator {
	return &CustomValidator{validator: v}
}

// Validate adapta validator/v10 a la interfaz echo.Validator. Los errores de
// campo se devuelven como HttpError 400 para que el sobre JSON sea uniforme.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperrors.NewHttpError(
				http.StatusBadRequest,
				"Campo inválido: "+fe.Field()+" (regla "+fe.Tag()+")",
				err,
				nil,
			)
		}
		return err
	}
	return nil
}
