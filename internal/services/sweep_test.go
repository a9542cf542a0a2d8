package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"property-system/internal/domain"
	"property-system/internal/entities"
	"property-system/pkg/eventbus"
)

func newSweepWorld() (*fakeTicketRepo, *fakeCommentRepo, SweepServiceInterface) {
	ticketRepo := &fakeTicketRepo{tickets: make(map[uint64]*entities.Ticket)}
	commentRepo := &fakeCommentRepo{}
	propertyRepo := &fakePropertyRepo{properties: map[uint64]*entities.Property{
		10: {ID: 10, OwnerID: 1, Address: "Calle 1"},
	}}
	svc := NewSweepService(
		fakeTxManager{}, ticketRepo, commentRepo, propertyRepo,
		eventbus.New(zap.NewNop()), zap.NewNop(),
		72*time.Hour, 100,
	)
	return ticketRepo, commentRepo, svc
}

func seedCompleted(repo *fakeTicketRepo, completedAt time.Time) *entities.Ticket {
	t := &entities.Ticket{
		PropertyID:  10,
		Category:    "Plomería",
		Title:       "Fuga",
		Priority:    domain.PriorityMedia,
		Status:      domain.StatusCompletado,
		ReporterID:  1,
		ProviderID:  null.Uint64From(20),
		CompletedAt: null.TimeFrom(completedAt),
	}
	id, _ := repo.CreateTicket(context.Background(), t)
	t.ID = id
	repo.tickets[id].CompletedAt = t.CompletedAt
	return repo.tickets[id]
}

func TestSweepApprovesExpiredCompletedTickets(t *testing.T) {
	ticketRepo, commentRepo, svc := newSweepWorld()

	old := seedCompleted(ticketRepo, time.Now().Add(-96*time.Hour))
	recent := seedCompleted(ticketRepo, time.Now().Add(-1*time.Hour))

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 1, summary.Approved)
	assert.Equal(t, 0, summary.Failed)

	assert.Equal(t, domain.StatusResuelto, ticketRepo.tickets[old.ID].Status)
	assert.True(t, ticketRepo.tickets[old.ID].AutoApproved)
	// el reciente sigue esperando la revisión del propietario
	assert.Equal(t, domain.StatusCompletado, ticketRepo.tickets[recent.ID].Status)

	// la bitácora registra el cierre automático como entrada del sistema
	require.Len(t, commentRepo.entries, 1)
	entry := commentRepo.entries[0]
	assert.Equal(t, domain.EntryAutoApproved, entry.EntryType)
	assert.False(t, entry.AuthorID.Valid)
}

func TestSweepSkipsTicketsMovedConcurrently(t *testing.T) {
	ticketRepo, commentRepo, svc := newSweepWorld()

	// la transición CAS no encuentra el estado esperado: cuenta como Skipped
	moved := seedCompleted(ticketRepo, time.Now().Add(-96*time.Hour))
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Approved)

	// una aprobación manual que gana la carrera deja el ticket fuera del
	// siguiente listado, nunca se cierra dos veces
	assert.Equal(t, domain.StatusResuelto, ticketRepo.tickets[moved.ID].Status)
	again, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Approved)
	assert.Equal(t, 0, again.Failed)
	assert.Len(t, commentRepo.entries, 1)
}

func TestSweepIsIdempotent(t *testing.T) {
	ticketRepo, commentRepo, svc := newSweepWorld()
	seedCompleted(ticketRepo, time.Now().Add(-96*time.Hour))

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Approved)

	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Scanned)
	assert.Equal(t, 0, second.Approved)

	// una sola entrada de bitácora, no una por pasada
	assert.Len(t, commentRepo.entries, 1)
}

func TestSweepContinuesAfterPerTicketFailure(t *testing.T) {
	ticketRepo, commentRepo, svc := newSweepWorld()

	a := seedCompleted(ticketRepo, time.Now().Add(-96*time.Hour))
	b := seedCompleted(ticketRepo, time.Now().Add(-100*time.Hour))
	c := seedCompleted(ticketRepo, time.Now().Add(-120*time.Hour))

	// un fallo de base de datos en un ticket no detiene el lote
	ticketRepo.transitionErrs = map[uint64]error{b.ID: assert.AnError}

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 2, summary.Approved)
	assert.Equal(t, 1, summary.Failed)

	assert.Equal(t, domain.StatusResuelto, ticketRepo.tickets[a.ID].Status)
	assert.Equal(t, domain.StatusResuelto, ticketRepo.tickets[c.ID].Status)
	assert.Equal(t, domain.StatusCompletado, ticketRepo.tickets[b.ID].Status)
	assert.Len(t, commentRepo.entries, 2)
}
