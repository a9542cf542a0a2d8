// Archivo: internal/listeners/notification_listener.go
//
// Traduce los eventos del ciclo de vida en avisos de WhatsApp y correo. Los
// avisos son mejor esfuerzo: un fallo aquí jamás revierte la transición que
// lo originó.
package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"property-system/internal/domain"
	"property-system/internal/entities"
	"property-system/internal/events"
	"property-system/internal/repositories"
	"property-system/internal/services"
	"property-system/pkg/eventbus"
)

type NotificationListener struct {
	notificationService services.NotificationServiceInterface
	userRepo            repositories.UserRepositoryInterface
	providerRepo        repositories.ProviderRepositoryInterface
	logger              *zap.Logger
}

func NewNotificationListener(
	notificationService services.NotificationServiceInterface,
	userRepo repositories.UserRepositoryInterface,
	providerRepo repositories.ProviderRepositoryInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		notificationService: notificationService,
		userRepo:            userRepo,
		providerRepo:        providerRepo,
		logger:              logger,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe("ticket.created", l.handleTicketCreated)
	bus.Subscribe("ticket.status.changed", l.handleStatusChanged)
	l.logger.Info("NotificationListener suscrito a los eventos del ciclo de vida")
}

// handleTicketCreated avisa por WhatsApp al proveedor pre-asignado.
func (l *NotificationListener) handleTicketCreated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.TicketCreatedEvent)
	if !ok {
		return fmt.Errorf("tipo de evento inesperado: %T", event)
	}
	if e.Matched == nil {
		return nil
	}

	text := fmt.Sprintf(
		"Nuevo trabajo de %s en %s, %s: \"%s\" (prioridad %s). Ingresa al portal para aceptarlo o declinarlo.",
		e.Ticket.Category, e.Property.Municipality, e.Property.Department,
		e.Ticket.Title, e.Ticket.Priority,
	)
	if err := l.notificationService.SendWhatsApp(ctx, e.Matched.Phone, text); err != nil {
		l.logger.Warn("No se pudo avisar al proveedor del ticket nuevo",
			zap.Uint64("ticketId", e.Ticket.ID),
			zap.Uint64("providerId", e.Matched.ID),
			zap.Error(err))
	}
	return nil
}

// handleStatusChanged avisa a quien le toca reaccionar al estado nuevo.
func (l *NotificationListener) handleStatusChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.TicketStatusChangedEvent)
	if !ok {
		return fmt.Errorf("tipo de evento inesperado: %T", event)
	}

	switch e.NewStatus {
	case domain.StatusAsignado:
		return l.notifyProvider(ctx, e,
			fmt.Sprintf("Se te asignó el ticket #%d: \"%s\" en %s. Acéptalo o declínalo en el portal.",
				e.Ticket.ID, e.Ticket.Title, e.Property.Address))

	case domain.StatusPendiente:
		// el proveedor declinó; el reportante debe saber que se busca otro
		return l.notifyReporter(ctx, e,
			"Tu reporte volvió a la cola de asignación",
			fmt.Sprintf("<p>El proveedor declinó el ticket <b>#%d</b> (\"%s\"). Estamos buscando otro profesional.</p>",
				e.Ticket.ID, e.Ticket.Title))

	case domain.StatusCompletado:
		return l.notifyReporter(ctx, e,
			"Trabajo completado, pendiente de tu revisión",
			fmt.Sprintf("<p>El proveedor marcó como completado el ticket <b>#%d</b> (\"%s\"). Revisa la evidencia y aprueba o rechaza el trabajo en el portal.</p>",
				e.Ticket.ID, e.Ticket.Title))

	case domain.StatusResuelto:
		if e.Ticket.AutoApproved {
			return l.notifyReporter(ctx, e,
				"Ticket cerrado automáticamente",
				fmt.Sprintf("<p>El ticket <b>#%d</b> (\"%s\") se cerró automáticamente al no recibir tu revisión dentro del plazo.</p>",
					e.Ticket.ID, e.Ticket.Title))
		}
		return l.notifyProvider(ctx, e,
			fmt.Sprintf("El ticket #%d fue aprobado por el cliente. ¡Buen trabajo!", e.Ticket.ID))

	case domain.StatusRechazado:
		return l.notifyProvider(ctx, e,
			fmt.Sprintf("El cliente rechazó el trabajo del ticket #%d. Revisa los comentarios en el portal.", e.Ticket.ID))
	}
	return nil
}

func (l *NotificationListener) notifyProvider(ctx context.Context, e events.TicketStatusChangedEvent, text string) error {
	if !e.Ticket.ProviderID.Valid {
		return nil
	}
	provider, err := l.providerRepo.FindProvider(ctx, e.Ticket.ProviderID.Uint64)
	if err != nil {
		l.logger.Warn("Proveedor del ticket no encontrado para notificar",
			zap.Uint64("ticketId", e.Ticket.ID), zap.Error(err))
		return nil
	}
	if err := l.notificationService.SendWhatsApp(ctx, provider.Phone, text); err != nil {
		l.logger.Warn("No se pudo enviar el WhatsApp al proveedor",
			zap.Uint64("ticketId", e.Ticket.ID), zap.Error(err))
	}
	return nil
}

func (l *NotificationListener) notifyReporter(ctx context.Context, e events.TicketStatusChangedEvent, subject, htmlBody string) error {
	reporter, err := l.userRepo.FindByID(ctx, e.Ticket.ReporterID)
	if err != nil {
		l.logger.Warn("Reportante del ticket no encontrado para notificar",
			zap.Uint64("ticketId", e.Ticket.ID), zap.Error(err))
		return nil
	}
	l.sendBoth(ctx, reporter, e.Ticket, subject, htmlBody)
	return nil
}

// sendBoth intenta WhatsApp si hay teléfono y siempre manda el correo.
func (l *NotificationListener) sendBoth(ctx context.Context, user *entities.User, ticket *entities.Ticket, subject, htmlBody string) {
	if user.Phone.Valid && user.Phone.String != "" {
		text := fmt.Sprintf("%s (ticket #%d)", subject, ticket.ID)
		if err := l.notificationService.SendWhatsApp(ctx, user.Phone.String, text); err != nil {
			l.logger.Warn("No se pudo enviar el WhatsApp",
				zap.Uint64("ticketId", ticket.ID), zap.Error(err))
		}
	}
	if err := l.notificationService.SendEmail(ctx, user.Email, subject, htmlBody); err != nil {
		l.logger.Warn("No se pudo enviar el correo",
			zap.Uint64("ticketId", ticket.ID), zap.Error(err))
	}
}
