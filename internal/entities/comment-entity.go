package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

// TimelineEntry es un registro de auditoría/comunicación adjunto a un ticket.
// Es append-only: nunca se edita ni se borra.
type TimelineEntry struct {
	ID         uint64                 `json:"id"`
	TicketID   uint64                 `json:"ticket_id"`
	AuthorID   null.Uint64            `json:"author_id"` // null para entradas del sistema
	AuthorRole string                 `json:"author_role"`
	EntryType  string                 `json:"entry_type"`
	Message    string                 `json:"message"`
	Media      []string               `json:"media,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	TxID       *uuid.UUID             `json:"tx_id,omitempty"` // agrupa entradas de una misma operación
	CreatedAt  time.Time              `json:"created_at"`
}
