// Archivo: internal/domain/status.go
package domain

import "fmt"

// Status es el estado del ciclo de vida de un ticket de mantenimiento. Antes
// vivía como texto libre regado por los handlers; aquí es un tipo cerrado y
// toda mutación pasa por la tabla de transiciones.
type Status string

const (
	StatusPendiente  Status = "Pendiente"
	StatusAsignado   Status = "Asignado"
	StatusEnProgreso Status = "En progreso"
	StatusCompletado Status = "Completado"
	StatusResuelto   Status = "Resuelto"
	StatusRechazado  Status = "Rechazado"
)

// legacyEnProceso es el sinónimo histórico de "En progreso"; se acepta al
// leer y nunca se vuelve a escribir.
const legacyEnProceso = "En proceso"

// ParseStatus normaliza el valor textual al estado canónico.
func ParseStatus(raw string) (Status, error) {
	if raw == legacyEnProceso {
		return StatusEnProgreso, nil
	}
	s := Status(raw)
	switch s {
	case StatusPendiente, StatusAsignado, StatusEnProgreso,
		StatusCompletado, StatusResuelto, StatusRechazado:
		return s, nil
	}
	return "", fmt.Errorf("estado de ticket desconocido: %q", raw)
}

func (s Status) String() string { return string(s) }

// IsTerminal indica si el estado no admite más transiciones.
func (s Status) IsTerminal() bool {
	return s == StatusResuelto || s == StatusRechazado
}

// allowedTransitions es la tabla de aristas legales del flujo:
// Pendiente → Asignado → En progreso → Completado → {Resuelto, Rechazado}.
// El rechazo del proveedor devuelve el ticket a Pendiente para re-asignación.
var allowedTransitions = map[Status][]Status{
	StatusPendiente:  {StatusAsignado},
	StatusAsignado:   {StatusEnProgreso, StatusPendiente, StatusAsignado},
	StatusEnProgreso: {StatusCompletado, StatusPendiente},
	StatusCompletado: {StatusResuelto, StatusRechazado},
}

// CanTransition responde si la arista from→to está permitida.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Priority es la prioridad declarada por quien reporta.
type Priority string

const (
	PriorityAlta  Priority = "Alta"
	PriorityMedia Priority = "Media"
	PriorityBaja  Priority = "Baja"
)

func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	switch p {
	case PriorityAlta, PriorityMedia, PriorityBaja:
		return p, nil
	}
	return "", fmt.Errorf("prioridad desconocida: %q", raw)
}

// Roles de usuario del portal.
const (
	RoleAdmin       = "admin"
	RolePropietario = "propietario"
	RoleInquilino   = "inquilino"
	RoleProveedor   = "proveedor"
)

// Tipos de entrada de la bitácora (timeline). La bitácora es append-only.
const (
	EntryComment      = "comment"
	EntryStatusChange = "status_change"
	EntryApproved     = "approved"
	EntryRejected     = "rejected"
	EntryAutoApproved = "auto_approved"
	EntryForceStatus  = "force_status"
)
