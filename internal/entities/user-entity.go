package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type User struct {
	ID           uint64      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        null.String `json:"phone"`
	Role         string      `json:"role"`
	PasswordHash string      `json:"-"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
