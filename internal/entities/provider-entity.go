package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Provider es el profesional de servicios asignable a tickets de su
// especialidad y ubicación. Se desactiva (soft-delete), nunca se borra.
type Provider struct {
	ID           uint64      `json:"id"`
	UserID       null.Uint64 `json:"user_id"`
	Name         string      `json:"name"`
	Phone        string      `json:"phone"`
	Specialty    string      `json:"specialty"`
	Department   string      `json:"department"`
	Municipality string      `json:"municipality"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
