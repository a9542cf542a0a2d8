package dto

import (
	"property-system/internal/entities"
)

type CreateTicketDTO struct {
	PropertyID  uint64   `json:"property_id" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Priority    string   `json:"priority" validate:"required,ticket_priority"`
	Media       []string `json:"media" validate:"omitempty,dive,uri"`
}

// UpdateTicketDTO edita campos que NO son el estado. El estado solo se mueve
// por las operaciones de transición; el atajo de admin es ForceStatusDTO.
type UpdateTicketDTO struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Priority    *string  `json:"priority" validate:"omitempty,ticket_priority"`
	AddMedia    []string `json:"add_media" validate:"omitempty,dive,uri"`
}

type AssignTicketDTO struct {
	ProviderID uint64 `json:"provider_id" validate:"required"`
}

type CompleteTicketDTO struct {
	EvidencePhotos []string `json:"evidence_photos" validate:"omitempty,dive,uri"`
}

// ApproveTicketDTO cubre ambas acciones del veredicto: action=approved exige
// rating 1..5; action=rejected exige comment.
type ApproveTicketDTO struct {
	Action           string   `json:"action" validate:"required,oneof=approved rejected"`
	Rating           *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	QualityScore     *int     `json:"quality_score" validate:"omitempty,min=1,max=5"`
	PunctualityScore *int     `json:"punctuality_score" validate:"omitempty,min=1,max=5"`
	Comment          string   `json:"comment"`
	EvidencePhotos   []string `json:"evidence_photos" validate:"omitempty,dive,uri"`
}

type ForceStatusDTO struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type CreateTicketResultDTO struct {
	Ticket             *entities.Ticket  `json:"ticket"`
	MatchedProvider    *ShortProviderDTO `json:"matched_provider,omitempty"`
	NotificationQueued bool              `json:"notification_queued"` // el aviso se despacha tras el commit
	Warnings           []string          `json:"warnings,omitempty"`
}

type ShortProviderDTO struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
}

