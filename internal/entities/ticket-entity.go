package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"property-system/internal/domain"
)

// ProviderSuggestion es un candidato del directorio externo guardado junto al
// ticket como enriquecimiento (nunca es requisito para crear el ticket).
type ProviderSuggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type Ticket struct {
	ID          uint64               `json:"id"`
	PropertyID  uint64               `json:"property_id"`
	Category    string               `json:"category"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Priority    domain.Priority      `json:"priority"`
	Status      domain.Status        `json:"status"`
	ReporterID  uint64               `json:"reporter_id"`
	ProviderID  null.Uint64          `json:"provider_id"`
	Media       []string             `json:"media"`
	Suggestions []ProviderSuggestion `json:"suggestions,omitempty"`

	AutoApproved bool      `json:"auto_approved"`
	CompletedAt  null.Time `json:"completed_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
