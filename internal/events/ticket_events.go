package events

import (
	"property-system/internal/domain"
	"property-system/internal/entities"
)

// TicketCreatedEvent se publica después del commit de la creación.
type TicketCreatedEvent struct {
	Ticket   *entities.Ticket
	Property *entities.Property
	Matched  *entities.Provider // nil si el emparejamiento no encontró a nadie
}

func (e TicketCreatedEvent) Name() string { return "ticket.created" }

// TicketStatusChangedEvent se publica después del commit de cada transición.
type TicketStatusChangedEvent struct {
	Ticket    *entities.Ticket
	Property  *entities.Property
	OldStatus domain.Status
	NewStatus domain.Status
	ActorID   uint64 // 0 para transiciones del sistema (barrido)
}

func (e TicketStatusChangedEvent) Name() string { return "ticket.status.changed" }
