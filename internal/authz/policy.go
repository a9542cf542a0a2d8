// Archivo: internal/authz/policy.go
package authz

import (
	"strings"

	"property-system/internal/domain"
	"property-system/internal/entities"
)

// Capability es lo que el actor pretende hacer sobre un ticket. Antes cada
// handler re-implementaba estas comprobaciones; ahora hay un solo punto.
type Capability string

const (
	CapView        Capability = "tickets:view"
	CapEdit        Capability = "tickets:edit"
	CapComment     Capability = "tickets:comment"
	CapApprove     Capability = "tickets:approve"
	CapAssign      Capability = "tickets:assign"
	CapForceStatus Capability = "tickets:force_status"
)

// IsOwnerOrTenant responde si el actor es el propietario o el inquilino de la
// propiedad. El inquilino empareja por id de usuario O por el email guardado
// en la propiedad: soporte deliberado para inquilinos cuya cuenta aún no está
// vinculada (ver DESIGN.md).
func IsOwnerOrTenant(actor *entities.User, property *entities.Property) bool {
	if actor == nil || property == nil {
		return false
	}
	if property.OwnerID == actor.ID {
		return true
	}
	if property.TenantID.Valid && property.TenantID.Uint64 == actor.ID {
		return true
	}
	if property.TenantEmail.Valid && strings.EqualFold(property.TenantEmail.String, actor.Email) {
		return true
	}
	return false
}

// CanActOnTicket es la política central de autorización del ciclo de vida.
func CanActOnTicket(actor *entities.User, ticket *entities.Ticket, property *entities.Property, provider *entities.Provider, cap Capability) bool {
	if actor == nil {
		return false
	}

	// El admin puede todo
	if actor.Role == domain.RoleAdmin {
		return true
	}

	switch cap {
	case CapForceStatus, CapAssign:
		// Solo admin
		return false

	case CapView, CapComment:
		if IsOwnerOrTenant(actor, property) {
			return true
		}
		if ticket != nil && ticket.ReporterID == actor.ID {
			return true
		}
		// El proveedor asignado participa del ticket
		if provider != nil && ticket != nil && ticket.ProviderID.Valid &&
			ticket.ProviderID.Uint64 == provider.ID {
			return true
		}
		return false

	case CapEdit:
		// Edición de campos: propietario/inquilino de su propiedad
		return IsOwnerOrTenant(actor, property)

	case CapApprove:
		// El veredicto sobre trabajo completado es del propietario o inquilino
		return IsOwnerOrTenant(actor, property)
	}

	return false
}
