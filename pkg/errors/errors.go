package errors

import "fmt"

var (
	// JWT y tokens
	ErrInvalidSigningMethod = fmt.Errorf("método de firma del token inválido")
	ErrInvalidToken         = fmt.Errorf("token inválido")
	ErrTokenExpired         = fmt.Errorf("el token ha expirado")
	ErrTokenIsNotRefresh    = fmt.Errorf("el token no es un refresh token")
	ErrTokenIsNotAccess     = fmt.Errorf("el token no es un access token")

	// Autenticación / autorización
	ErrEmptyAuthHeader    = fmt.Errorf("falta el encabezado de autorización")
	ErrInvalidAuthHeader  = fmt.Errorf("formato del encabezado de autorización inválido")
	ErrInvalidCredentials = fmt.Errorf("credenciales inválidas")
	ErrUnauthorized       = fmt.Errorf("no autenticado")
	ErrForbidden          = fmt.Errorf("acceso denegado")

	// Contexto
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID no encontrado en el contexto de la petición")
	ErrInvalidUserID           = fmt.Errorf("UserID inválido")

	// Generales
	ErrNotFound   = fmt.Errorf("registro no encontrado")
	ErrBadRequest = fmt.Errorf("petición inválida")
	ErrConflict   = fmt.Errorf("el estado del registro cambió, reintente la operación")
)

// HttpError es el error que viaja hasta la capa HTTP: lleva el código de
// estado y un mensaje apto para el usuario; la causa técnica queda envuelta.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]interface{}) *HttpError {
	return &HttpError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// InvalidInputError marca datos de entrada mal formados antes de tocar la BD.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
