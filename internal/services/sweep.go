// Archivo: internal/services/sweep.go
//
// Barrido de aprobación automática: los tickets Completados que el
// propietario/inquilino dejó sin revisar durante la ventana configurada se
// cierran como Resueltos con auto_approved = true.
package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"property-system/internal/domain"
	"property-system/internal/entities"
	"property-system/internal/events"
	"property-system/internal/repositories"
	"property-system/pkg/eventbus"
)

type SweepSummary struct {
	Scanned  int `json:"scanned"`
	Approved int `json:"approved"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

type SweepServiceInterface interface {
	Run(ctx context.Context) (SweepSummary, error)
}

type SweepService struct {
	txManager    repositories.TxManagerInterface
	ticketRepo   repositories.TicketRepositoryInterface
	commentRepo  repositories.CommentRepositoryInterface
	propertyRepo repositories.PropertyRepositoryInterface
	bus          *eventbus.Bus
	logger       *zap.Logger

	reviewWindow time.Duration
	batchSize    int
}

func NewSweepService(
	txManager repositories.TxManagerInterface,
	ticketRepo repositories.TicketRepositoryInterface,
	commentRepo repositories.CommentRepositoryInterface,
	propertyRepo repositories.PropertyRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
	reviewWindow time.Duration,
	batchSize int,
) SweepServiceInterface {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &SweepService{
		txManager:    txManager,
		ticketRepo:   ticketRepo,
		commentRepo:  commentRepo,
		propertyRepo: propertyRepo,
		bus:          bus,
		logger:       logger,
		reviewWindow: reviewWindow,
		batchSize:    batchSize,
	}
}

// Run procesa un lote de candidatos. Cada ticket se cierra en su propia
// transacción: un fallo individual se cuenta y no aborta el barrido. El CAS
// sobre el estado hace que el barrido sea seguro frente a una aprobación
// manual concurrente (esa carrera termina en Skipped, no en doble cierre).
func (s *SweepService) Run(ctx context.Context) (SweepSummary, error) {
	cutoff := time.Now().Add(-s.reviewWindow)

	candidates, err := s.ticketRepo.ListCompletedBefore(ctx, cutoff, s.batchSize)
	if err != nil {
		return SweepSummary{}, err
	}

	summary := SweepSummary{Scanned: len(candidates)}

	for i := range candidates {
		ticket := &candidates[i]
		ok, err := s.approveOne(ctx, ticket)
		switch {
		case err != nil:
			summary.Failed++
			s.logger.Error("Barrido: no se pudo cerrar el ticket",
				zap.Uint64("ticketId", ticket.ID), zap.Error(err))
		case !ok:
			// alguien lo movió entre el listado y el UPDATE
			summary.Skipped++
		default:
			summary.Approved++
		}
	}

	s.logger.Info("Barrido de aprobación automática terminado",
		zap.Int("scanned", summary.Scanned),
		zap.Int("approved", summary.Approved),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

func (s *SweepService) approveOne(ctx context.Context, ticket *entities.Ticket) (bool, error) {
	entry := &entities.TimelineEntry{
		TicketID:   ticket.ID,
		AuthorID:   null.Uint64{}, // entrada del sistema, sin autor
		AuthorRole: "sistema",
		EntryType:  domain.EntryAutoApproved,
		Message:    "Cerrado automáticamente: sin revisión del propietario dentro de la ventana",
		Metadata: map[string]interface{}{
			"old_status":    domain.StatusCompletado.String(),
			"new_status":    domain.StatusResuelto.String(),
			"review_window": s.reviewWindow.String(),
		},
	}

	moved := false
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		ok, err := s.ticketRepo.TransitionStatus(ctx, tx, ticket.ID,
			[]domain.Status{domain.StatusCompletado},
			domain.StatusResuelto,
			repositories.StatusUpdate{SetAutoApproved: true})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		moved = true
		return s.commentRepo.CreateEntryInTx(ctx, tx, entry)
	})
	if err != nil || !moved {
		return false, err
	}

	ticket.Status = domain.StatusResuelto
	ticket.AutoApproved = true

	property, err := s.propertyRepo.FindProperty(ctx, ticket.PropertyID)
	if err != nil {
		// el cierre ya está en firme; sin propiedad solo se pierde el aviso
		s.logger.Warn("Barrido: propiedad no encontrada para notificar",
			zap.Uint64("ticketId", ticket.ID), zap.Error(err))
		return true, nil
	}

	s.bus.Publish(ctx, events.TicketStatusChangedEvent{
		Ticket:    ticket,
		Property:  property,
		OldStatus: domain.StatusCompletado,
		NewStatus: domain.StatusResuelto,
		ActorID:   0,
	})
	return true, nil
}
