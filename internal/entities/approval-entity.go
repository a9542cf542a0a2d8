package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Approval es el veredicto del propietario/inquilino sobre trabajo completado.
// Solo se crea con el ticket en Completado y siempre va acompañada de la
// transición a Resuelto o Rechazado.
type Approval struct {
	ID               uint64      `json:"id"`
	TicketID         uint64      `json:"ticket_id"`
	ApproverID       uint64      `json:"approver_id"`
	Action           string      `json:"action"` // approved | rejected
	Rating           null.Int    `json:"rating"` // 1..5, obligatorio si approved
	QualityScore     null.Int    `json:"quality_score"`
	PunctualityScore null.Int    `json:"punctuality_score"`
	Comment          null.String `json:"comment"` // obligatorio si rejected
	EvidencePhotos   []string    `json:"evidence_photos,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

const (
	ApprovalActionApproved = "approved"
	ApprovalActionRejected = "rejected"
)
