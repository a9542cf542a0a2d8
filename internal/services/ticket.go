// Archivo: internal/services/ticket.go
//
// El administrador del ciclo de vida del ticket. Toda mutación de estado pasa
// por aquí: precondición → UPDATE condicional (CAS sobre la columna status) →
// entrada de bitácora en la misma transacción → evento post-commit.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"property-system/internal/authz"
	"property-system/internal/domain"
	"property-system/internal/dto"
	"property-system/internal/entities"
	"property-system/internal/events"
	"property-system/internal/repositories"
	apperrors "property-system/pkg/errors"
	"property-system/pkg/eventbus"
	"property-system/pkg/types"
	"property-system/pkg/utils"
)

type TicketServiceInterface interface {
	CreateTicket(ctx context.Context, data dto.CreateTicketDTO) (*dto.CreateTicketResultDTO, error)
	FindTicket(ctx context.Context, id uint64) (*entities.Ticket, error)
	GetTickets(ctx context.Context, filter types.Filter) ([]entities.Ticket, uint64, error)
	UpdateTicket(ctx context.Context, id uint64, data dto.UpdateTicketDTO) error
	AssignTicket(ctx context.Context, id uint64, providerID uint64) error
	AcceptTicket(ctx context.Context, id uint64) error
	RejectAssignment(ctx context.Context, id uint64) error
	CompleteTicket(ctx context.Context, id uint64, data dto.CompleteTicketDTO) error
	ApproveTicket(ctx context.Context, id uint64, data dto.ApproveTicketDTO) (string, error)
	ForceStatus(ctx context.Context, id uint64, data dto.ForceStatusDTO) error
	AddComment(ctx context.Context, id uint64, data dto.CreateCommentDTO) (*entities.TimelineEntry, error)
	GetTimeline(ctx context.Context, id uint64) ([]entities.TimelineEntry, error)
}

type TicketService struct {
	txManager    repositories.TxManagerInterface
	ticketRepo   repositories.TicketRepositoryInterface
	commentRepo  repositories.CommentRepositoryInterface
	approvalRepo repositories.ApprovalRepositoryInterface
	propertyRepo repositories.PropertyRepositoryInterface
	providerRepo repositories.ProviderRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	matchingSvc  MatchingServiceInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewTicketService(
	txManager repositories.TxManagerInterface,
	ticketRepo repositories.TicketRepositoryInterface,
	commentRepo repositories.CommentRepositoryInterface,
	approvalRepo repositories.ApprovalRepositoryInterface,
	propertyRepo repositories.PropertyRepositoryInterface,
	providerRepo repositories.ProviderRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	matchingSvc MatchingServiceInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) TicketServiceInterface {
	return &TicketService{
		txManager:    txManager,
		ticketRepo:   ticketRepo,
		commentRepo:  commentRepo,
		approvalRepo: approvalRepo,
		propertyRepo: propertyRepo,
		providerRepo: providerRepo,
		userRepo:     userRepo,
		matchingSvc:  matchingSvc,
		bus:          bus,
		logger:       logger,
	}
}

// ---------- helpers ----------

func (s *TicketService) actor(ctx context.Context) (*entities.User, error) {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	return actor, nil
}

func (s *TicketService) loadTicketAndProperty(ctx context.Context, id uint64) (*entities.Ticket, *entities.Property, error) {
	ticket, err := s.ticketRepo.FindTicket(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	property, err := s.propertyRepo.FindProperty(ctx, ticket.PropertyID)
	if err != nil {
		return nil, nil, fmt.Errorf("propiedad del ticket no encontrada: %w", err)
	}
	return ticket, property, nil
}

func invalidStateError(current domain.Status, required string) error {
	return apperrors.NewHttpError(
		http.StatusBadRequest,
		fmt.Sprintf("Operación no permitida: el ticket está en estado '%s' y se requiere '%s'", current, required),
		nil,
		map[string]interface{}{"current_status": current.String()},
	)
}

// resolveCASFailure distingue NotFound de Conflict cuando el UPDATE
// condicional no afectó ninguna fila: la fila desapareció o alguien más ganó
// la carrera desde la misma precondición.
func (s *TicketService) resolveCASFailure(ctx context.Context, q repositories.Querier, id uint64, required string) error {
	current, err := s.ticketRepo.FindTicketInTx(ctx, q, id)
	if err != nil {
		return err
	}
	return apperrors.NewHttpError(
		http.StatusConflict,
		fmt.Sprintf("El ticket cambió de estado de forma concurrente: ahora está en '%s' y se requería '%s'", current.Status, required),
		apperrors.ErrConflict,
		map[string]interface{}{"current_status": current.Status.String()},
	)
}

// transition ejecuta la transición y la entrada de bitácora como una unidad
// atómica, y publica el evento solo después del commit.
func (s *TicketService) transition(
	ctx context.Context,
	ticket *entities.Ticket,
	property *entities.Property,
	actorID uint64,
	expectedFrom []domain.Status,
	to domain.Status,
	upd repositories.StatusUpdate,
	entry *entities.TimelineEntry,
) error {
	oldStatus := ticket.Status

	if err := s.applyTransition(ctx, ticket.ID, expectedFrom, to, upd, entry); err != nil {
		return err
	}

	ticket.Status = to
	s.bus.Publish(ctx, events.TicketStatusChangedEvent{
		Ticket:    ticket,
		Property:  property,
		OldStatus: oldStatus,
		NewStatus: to,
		ActorID:   actorID,
	})
	return nil
}

// applyTransition es la unidad atómica: UPDATE condicional + entrada de
// bitácora en la misma transacción. No publica eventos.
func (s *TicketService) applyTransition(
	ctx context.Context,
	ticketID uint64,
	expectedFrom []domain.Status,
	to domain.Status,
	upd repositories.StatusUpdate,
	entry *entities.TimelineEntry,
) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		ok, err := s.ticketRepo.TransitionStatus(ctx, tx, ticketID, expectedFrom, to, upd)
		if err != nil {
			return err
		}
		if !ok {
			return s.resolveCASFailure(ctx, tx, ticketID, statusListLabel(expectedFrom))
		}
		if entry != nil {
			if err := s.commentRepo.CreateEntryInTx(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func statusListLabel(statuses []domain.Status) string {
	label := ""
	for i, s := range statuses {
		if i > 0 {
			label += " o "
		}
		label += s.String()
	}
	return label
}

func statusChangeEntry(ticketID uint64, actorID uint64, actorRole string, from, to domain.Status, message string, txID *uuid.UUID) *entities.TimelineEntry {
	author := null.Uint64{}
	if actorID != 0 {
		author = null.Uint64From(actorID)
	}
	return &entities.TimelineEntry{
		TicketID:   ticketID,
		AuthorID:   author,
		AuthorRole: actorRole,
		EntryType:  domain.EntryStatusChange,
		Message:    message,
		Metadata: map[string]interface{}{
			"old_status": from.String(),
			"new_status": to.String(),
		},
		TxID: txID,
	}
}

// ---------- operaciones ----------

// CreateTicket crea el ticket en Pendiente y dispara, como mejor esfuerzo:
// emparejamiento interno, sugerencias externas y notificación al proveedor.
// Los fallos laterales se reportan como advertencias, nunca como error.
func (s *TicketService) CreateTicket(ctx context.Context, data dto.CreateTicketDTO) (*dto.CreateTicketResultDTO, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}

	property, err := s.propertyRepo.FindProperty(ctx, data.PropertyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewHttpError(http.StatusNotFound, "La propiedad indicada no existe", err, nil)
		}
		return nil, err
	}

	if actor.Role != domain.RoleAdmin && !authz.IsOwnerOrTenant(actor, property) {
		return nil, apperrors.NewHttpError(http.StatusForbidden,
			"Solo el propietario o el inquilino de la propiedad pueden reportar daños", nil, nil)
	}

	priority, err := domain.ParsePriority(data.Priority)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("Prioridad inválida: %s", data.Priority)
	}

	ticket := &entities.Ticket{
		PropertyID:  property.ID,
		Category:    data.Category,
		Title:       data.Title,
		Description: data.Description,
		Priority:    priority,
		Status:      domain.StatusPendiente,
		ReporterID:  actor.ID,
		Media:       data.Media,
	}

	newID, err := s.ticketRepo.CreateTicket(ctx, ticket)
	if err != nil {
		s.logger.Error("Error creando el ticket", zap.Error(err))
		return nil, err
	}
	ticket.ID = newID

	txID := uuid.New()
	creationEntry := statusChangeEntry(newID, actor.ID, actor.Role,
		domain.StatusPendiente, domain.StatusPendiente,
		"Ticket creado: "+data.Title, &txID)
	creationEntry.Metadata = map[string]interface{}{"new_status": domain.StatusPendiente.String()}
	if err := s.commentRepo.CreateEntry(ctx, creationEntry); err != nil {
		// bitácora de creación fallida no cancela el ticket ya persistido
		s.logger.Error("No se pudo registrar la creación en la bitácora",
			zap.Uint64("ticketId", newID), zap.Error(err))
	}

	result := &dto.CreateTicketResultDTO{Ticket: ticket}

	// Emparejamiento interno (mejor esfuerzo)
	var matched *entities.Provider
	matched, err = s.matchingSvc.MatchProvider(ctx, data.Category, property.Department, property.Municipality)
	if err != nil {
		s.logger.Warn("Emparejamiento interno falló", zap.Uint64("ticketId", newID), zap.Error(err))
		result.Warnings = append(result.Warnings, "No se pudo consultar el directorio interno de proveedores")
	}

	if matched != nil {
		if err := s.assignInternal(ctx, ticket, actor.ID, actor.Role, matched); err != nil {
			s.logger.Warn("No se pudo pre-asignar el proveedor emparejado",
				zap.Uint64("ticketId", newID), zap.Uint64("providerId", matched.ID), zap.Error(err))
			result.Warnings = append(result.Warnings, "El proveedor emparejado no pudo ser asignado")
		} else {
			result.MatchedProvider = &dto.ShortProviderDTO{
				ID:        matched.ID,
				Name:      matched.Name,
				Specialty: matched.Specialty,
				Phone:     matched.Phone,
			}
			result.NotificationQueued = true
		}
	} else {
		// Sin candidato interno: sugerencias del directorio externo
		suggestions, err := s.matchingSvc.SuggestExternal(ctx, data.Category, property.Department, property.Municipality)
		if err != nil {
			s.logger.Warn("Búsqueda externa de proveedores falló", zap.Uint64("ticketId", newID), zap.Error(err))
			result.Warnings = append(result.Warnings, "La búsqueda externa de proveedores no está disponible")
		} else if len(suggestions) > 0 {
			if err := s.ticketRepo.SaveSuggestions(ctx, newID, suggestions); err != nil {
				s.logger.Warn("No se pudieron guardar las sugerencias", zap.Uint64("ticketId", newID), zap.Error(err))
			} else {
				ticket.Suggestions = suggestions
			}
		}
	}

	s.bus.Publish(ctx, events.TicketCreatedEvent{
		Ticket:   ticket,
		Property: property,
		Matched:  matched,
	})

	return result, nil
}

// assignInternal mueve Pendiente→Asignado con el proveedor emparejado.
func (s *TicketService) assignInternal(ctx context.Context, ticket *entities.Ticket, actorID uint64, actorRole string, provider *entities.Provider) error {
	providerID := provider.ID
	entry := statusChangeEntry(ticket.ID, actorID, actorRole,
		domain.StatusPendiente, domain.StatusAsignado,
		fmt.Sprintf("Proveedor %s asignado automáticamente por especialidad y zona", provider.Name), nil)

	// Sin evento de cambio de estado: el evento de creación ya lleva al
	// proveedor emparejado y un solo aviso basta.
	err := s.applyTransition(ctx, ticket.ID,
		[]domain.Status{domain.StatusPendiente},
		domain.StatusAsignado,
		repositories.StatusUpdate{SetProviderID: &providerID},
		entry,
	)
	if err != nil {
		return err
	}
	ticket.Status = domain.StatusAsignado
	ticket.ProviderID = null.Uint64From(providerID)
	return nil
}

func (s *TicketService) FindTicket(ctx context.Context, id uint64) (*entities.Ticket, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	provider, _ := s.providerRepo.FindProviderByUserID(ctx, actor.ID)
	if !authz.CanActOnTicket(actor, ticket, property, provider, authz.CapView) {
		return nil, apperrors.ErrForbidden
	}
	return ticket, nil
}

func (s *TicketService) GetTickets(ctx context.Context, filter types.Filter) ([]entities.Ticket, uint64, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, 0, err
	}

	// Los no-admin solo ven lo suyo: el filtro se restringe del lado servidor.
	if actor.Role != domain.RoleAdmin {
		if filter.Filter == nil {
			filter.Filter = make(map[string]interface{})
		}
		if actor.Role == domain.RoleProveedor {
			provider, err := s.providerRepo.FindProviderByUserID(ctx, actor.ID)
			if err != nil {
				return nil, 0, apperrors.ErrForbidden
			}
			filter.Filter["provider_id"] = provider.ID
		} else {
			filter.Filter["reporter_id"] = actor.ID
		}
	}

	return s.ticketRepo.GetTickets(ctx, filter)
}

// UpdateTicket edita campos ajenos al estado. El estado deliberadamente no es
// editable por aquí: el atajo explícito de admin es ForceStatus.
func (s *TicketService) UpdateTicket(ctx context.Context, id uint64, data dto.UpdateTicketDTO) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return err
	}

	if !authz.CanActOnTicket(actor, ticket, property, nil, authz.CapEdit) {
		return apperrors.NewHttpError(http.StatusForbidden,
			"Solo el administrador o el propietario/inquilino de la propiedad pueden editar el ticket", nil, nil)
	}

	// un ticket cerrado es inmutable, se abre uno nuevo si hace falta
	if ticket.Status.IsTerminal() {
		return invalidStateError(ticket.Status, "un estado abierto")
	}

	if data.Priority != nil {
		if _, err := domain.ParsePriority(*data.Priority); err != nil {
			return apperrors.NewInvalidInputError("Prioridad inválida: %s", *data.Priority)
		}
	}

	return s.ticketRepo.UpdateFields(ctx, id, data)
}

// AssignTicket es la asignación manual de un administrador.
func (s *TicketService) AssignTicket(ctx context.Context, id uint64, providerID uint64) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return err
	}

	if !authz.CanActOnTicket(actor, ticket, property, nil, authz.CapAssign) {
		return apperrors.NewHttpError(http.StatusForbidden,
			"Solo un administrador puede asignar proveedores", nil, nil)
	}

	// La re-asignación es explícita: solo desde Pendiente o Asignado.
	if !domain.CanTransition(ticket.Status, domain.StatusAsignado) {
		return invalidStateError(ticket.Status, statusListLabel([]domain.Status{domain.StatusPendiente, domain.StatusAsignado}))
	}

	provider, err := s.providerRepo.FindProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewHttpError(http.StatusNotFound, "El proveedor indicado no existe", err, nil)
		}
		return err
	}
	if !provider.Active {
		return apperrors.NewInvalidInputError("El proveedor '%s' está inactivo", provider.Name)
	}

	entry := statusChangeEntry(id, actor.ID, actor.Role, ticket.Status, domain.StatusAsignado,
		fmt.Sprintf("Proveedor %s asignado por el administrador", provider.Name), nil)

	pid := provider.ID
	return s.transition(ctx, ticket, property, actor.ID,
		[]domain.Status{domain.StatusPendiente, domain.StatusAsignado},
		domain.StatusAsignado,
		repositories.StatusUpdate{SetProviderID: &pid},
		entry,
	)
}

// requireAssignedProvider valida que el actor sea el proveedor asignado.
func (s *TicketService) requireAssignedProvider(ctx context.Context, actor *entities.User, ticket *entities.Ticket) (*entities.Provider, error) {
	if !ticket.ProviderID.Valid {
		return nil, apperrors.NewHttpError(http.StatusBadRequest,
			"El ticket no tiene proveedor asignado", nil, nil)
	}
	provider, err := s.providerRepo.FindProviderByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewHttpError(http.StatusForbidden,
				"Solo el proveedor asignado puede realizar esta operación", nil, nil)
		}
		return nil, err
	}
	if provider.ID != ticket.ProviderID.Uint64 {
		return nil, apperrors.NewHttpError(http.StatusForbidden,
			"Solo el proveedor asignado puede realizar esta operación", nil, nil)
	}
	return provider, nil
}

// AcceptTicket: el proveedor asignado acepta el trabajo. Asignado → En progreso.
func (s *TicketService) AcceptTicket(ctx context.Context, id uint64) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.requireAssignedProvider(ctx, actor, ticket); err != nil {
		return err
	}
	if !domain.CanTransition(ticket.Status, domain.StatusEnProgreso) {
		return invalidStateError(ticket.Status, domain.StatusAsignado.String())
	}

	entry := statusChangeEntry(id, actor.ID, actor.Role,
		domain.StatusAsignado, domain.StatusEnProgreso,
		"El proveedor aceptó el trabajo", nil)

	return s.transition(ctx, ticket, property, actor.ID,
		[]domain.Status{domain.StatusAsignado},
		domain.StatusEnProgreso,
		repositories.StatusUpdate{},
		entry,
	)
}

// RejectAssignment: el proveedor declina; el ticket vuelve a Pendiente para
// re-emparejarse. Permitido solo desde Asignado o En progreso.
func (s *TicketService) RejectAssignment(ctx context.Context, id uint64) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.requireAssignedProvider(ctx, actor, ticket); err != nil {
		return err
	}
	if !domain.CanTransition(ticket.Status, domain.StatusPendiente) {
		return invalidStateError(ticket.Status, statusListLabel([]domain.Status{domain.StatusAsignado, domain.StatusEnProgreso}))
	}

	entry := statusChangeEntry(id, actor.ID, actor.Role,
		ticket.Status, domain.StatusPendiente,
		"El proveedor declinó la asignación", nil)

	return s.transition(ctx, ticket, property, actor.ID,
		[]domain.Status{domain.StatusAsignado, domain.StatusEnProgreso},
		domain.StatusPendiente,
		repositories.StatusUpdate{ClearProvider: true},
		entry,
	)
}

// CompleteTicket: el proveedor reporta el trabajo terminado con evidencia.
// En progreso → Completado; completed_at queda fijado por el mismo UPDATE.
func (s *TicketService) CompleteTicket(ctx context.Context, id uint64, data dto.CompleteTicketDTO) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.requireAssignedProvider(ctx, actor, ticket); err != nil {
		return err
	}
	if !domain.CanTransition(ticket.Status, domain.StatusCompletado) {
		return invalidStateError(ticket.Status, domain.StatusEnProgreso.String())
	}

	entry := statusChangeEntry(id, actor.ID, actor.Role,
		domain.StatusEnProgreso, domain.StatusCompletado,
		"El proveedor marcó el trabajo como completado", nil)
	entry.Media = data.EvidencePhotos

	return s.transition(ctx, ticket, property, actor.ID,
		[]domain.Status{domain.StatusEnProgreso},
		domain.StatusCompletado,
		repositories.StatusUpdate{
			SetCompletedAt: true,
			AppendMedia:    data.EvidencePhotos,
		},
		entry,
	)
}

// ApproveTicket registra el veredicto del propietario/inquilino sobre trabajo
// completado. action=approved exige rating 1..5 y mueve a Resuelto;
// action=rejected exige comentario y mueve a Rechazado. El ApprovalRecord, la
// transición y la bitácora comparten transacción.
func (s *TicketService) ApproveTicket(ctx context.Context, id uint64, data dto.ApproveTicketDTO) (string, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return "", err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return "", err
	}

	if !authz.CanActOnTicket(actor, ticket, property, nil, authz.CapApprove) {
		return "", apperrors.NewHttpError(http.StatusForbidden,
			"Solo el propietario o el inquilino de la propiedad pueden calificar el trabajo", nil, nil)
	}
	// ambas aristas del veredicto (Resuelto y Rechazado) salen solo de Completado
	if !domain.CanTransition(ticket.Status, domain.StatusResuelto) {
		return "", invalidStateError(ticket.Status, domain.StatusCompletado.String())
	}

	approval := &entities.Approval{
		TicketID:       id,
		ApproverID:     actor.ID,
		EvidencePhotos: data.EvidencePhotos,
	}

	var target domain.Status
	var entry *entities.TimelineEntry

	switch data.Action {
	case entities.ApprovalActionApproved:
		if data.Rating == nil {
			return "", apperrors.NewInvalidInputError("La calificación (1-5) es obligatoria para aprobar")
		}
		if *data.Rating < 1 || *data.Rating > 5 {
			return "", apperrors.NewInvalidInputError("La calificación debe estar entre 1 y 5")
		}
		approval.Action = entities.ApprovalActionApproved
		approval.Rating = null.IntFrom(*data.Rating)
		if data.QualityScore != nil {
			approval.QualityScore = null.IntFrom(*data.QualityScore)
		}
		if data.PunctualityScore != nil {
			approval.PunctualityScore = null.IntFrom(*data.PunctualityScore)
		}
		if data.Comment != "" {
			approval.Comment = null.StringFrom(data.Comment)
		}
		target = domain.StatusResuelto

		entry = &entities.TimelineEntry{
			TicketID:   id,
			AuthorID:   null.Uint64From(actor.ID),
			AuthorRole: actor.Role,
			EntryType:  domain.EntryApproved,
			Message:    "Trabajo aprobado por el " + actor.Role,
			Media:      data.EvidencePhotos,
			Metadata: map[string]interface{}{
				"old_status": ticket.Status.String(),
				"new_status": target.String(),
				"rating":     *data.Rating,
			},
		}
		if data.QualityScore != nil {
			entry.Metadata["quality_score"] = *data.QualityScore
		}
		if data.PunctualityScore != nil {
			entry.Metadata["punctuality_score"] = *data.PunctualityScore
		}

	case entities.ApprovalActionRejected:
		if data.Comment == "" {
			return "", apperrors.NewInvalidInputError("El comentario es obligatorio para rechazar el trabajo")
		}
		approval.Action = entities.ApprovalActionRejected
		approval.Comment = null.StringFrom(data.Comment)
		target = domain.StatusRechazado

		entry = &entities.TimelineEntry{
			TicketID:   id,
			AuthorID:   null.Uint64From(actor.ID),
			AuthorRole: actor.Role,
			EntryType:  domain.EntryRejected,
			Message:    "Trabajo rechazado: " + data.Comment,
			Media:      data.EvidencePhotos,
			Metadata: map[string]interface{}{
				"old_status": ticket.Status.String(),
				"new_status": target.String(),
			},
		}

	default:
		return "", apperrors.NewInvalidInputError("Acción desconocida: %s", data.Action)
	}

	oldStatus := ticket.Status
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		ok, err := s.ticketRepo.TransitionStatus(ctx, tx, id,
			[]domain.Status{domain.StatusCompletado}, target, repositories.StatusUpdate{})
		if err != nil {
			return err
		}
		if !ok {
			return s.resolveCASFailure(ctx, tx, id, domain.StatusCompletado.String())
		}
		if err := s.approvalRepo.CreateInTx(ctx, tx, approval); err != nil {
			return err
		}
		return s.commentRepo.CreateEntryInTx(ctx, tx, entry)
	})
	if err != nil {
		return "", err
	}

	ticket.Status = target
	s.bus.Publish(ctx, events.TicketStatusChangedEvent{
		Ticket:    ticket,
		Property:  property,
		OldStatus: oldStatus,
		NewStatus: target,
		ActorID:   actor.ID,
	})

	return approval.Action, nil
}

// ForceStatus es el atajo privilegiado que antes vivía escondido en el PATCH
// genérico. Queda como operación explícita, solo admin, siempre auditada.
func (s *TicketService) ForceStatus(ctx context.Context, id uint64, data dto.ForceStatusDTO) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return err
	}

	if !authz.CanActOnTicket(actor, ticket, property, nil, authz.CapForceStatus) {
		return apperrors.NewHttpError(http.StatusForbidden,
			"Solo un administrador puede forzar el estado de un ticket", nil, nil)
	}

	target, err := domain.ParseStatus(data.Status)
	if err != nil {
		return apperrors.NewInvalidInputError("Estado inválido: %s", data.Status)
	}

	entry := &entities.TimelineEntry{
		TicketID:   id,
		AuthorID:   null.Uint64From(actor.ID),
		AuthorRole: actor.Role,
		EntryType:  domain.EntryForceStatus,
		Message:    "Estado forzado por el administrador: " + data.Reason,
		Metadata: map[string]interface{}{
			"old_status": ticket.Status.String(),
			"new_status": target.String(),
			"reason":     data.Reason,
		},
	}

	// El CAS aquí espera el estado leído: si otro proceso lo movió entre la
	// lectura y el UPDATE, el admin recibe Conflict y reintenta con datos
	// frescos.
	upd := repositories.StatusUpdate{}
	if target == domain.StatusCompletado {
		upd.SetCompletedAt = true
	}
	return s.transition(ctx, ticket, property, actor.ID,
		[]domain.Status{ticket.Status}, target, upd, entry)
}

func (s *TicketService) AddComment(ctx context.Context, id uint64, data dto.CreateCommentDTO) (*entities.TimelineEntry, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	provider, _ := s.providerRepo.FindProviderByUserID(ctx, actor.ID)
	if !authz.CanActOnTicket(actor, ticket, property, provider, authz.CapComment) {
		return nil, apperrors.ErrForbidden
	}

	entry := &entities.TimelineEntry{
		TicketID:   id,
		AuthorID:   null.Uint64From(actor.ID),
		AuthorRole: actor.Role,
		EntryType:  domain.EntryComment,
		Message:    data.Message,
		Media:      data.Media,
	}
	if err := s.commentRepo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *TicketService) GetTimeline(ctx context.Context, id uint64) ([]entities.TimelineEntry, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	ticket, property, err := s.loadTicketAndProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	provider, _ := s.providerRepo.FindProviderByUserID(ctx, actor.ID)
	if !authz.CanActOnTicket(actor, ticket, property, provider, authz.CapView) {
		return nil, apperrors.ErrForbidden
	}

	return s.commentRepo.ListByTicket(ctx, id)
}
