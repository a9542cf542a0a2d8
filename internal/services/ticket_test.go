package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"property-system/internal/domain"
	"property-system/internal/dto"
	"property-system/internal/entities"
	"property-system/internal/events"
	apperrors "property-system/pkg/errors"
	"property-system/pkg/eventbus"
	"property-system/pkg/types"
	"property-system/pkg/utils"
)

type ticketWorld struct {
	svc          TicketServiceInterface
	bus          *eventbus.Bus
	ticketRepo   *fakeTicketRepo
	commentRepo  *fakeCommentRepo
	approvalRepo *fakeApprovalRepo
	providerRepo *fakeProviderRepo
	matching     *fakeMatchingService

	owner        *entities.User
	tenant       *entities.User
	admin        *entities.User
	providerUser *entities.User
	stranger     *entities.User
	provider     *entities.Provider
	property     *entities.Property
}

func newTicketWorld() *ticketWorld {
	w := &ticketWorld{
		owner:        &entities.User{ID: 1, Name: "Dueño", Email: "dueno@example.com", Role: domain.RolePropietario, Active: true},
		tenant:       &entities.User{ID: 2, Name: "Inquilino", Email: "inquilino@example.com", Role: domain.RoleInquilino, Active: true},
		admin:        &entities.User{ID: 3, Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin, Active: true},
		providerUser: &entities.User{ID: 4, Name: "Plomero", Email: "plomero@example.com", Role: domain.RoleProveedor, Active: true},
		stranger:     &entities.User{ID: 5, Name: "Otro", Email: "otro@example.com", Role: domain.RolePropietario, Active: true},
	}
	w.property = &entities.Property{
		ID:           10,
		Address:      "Calle 45 #12-34",
		OwnerID:      w.owner.ID,
		TenantID:     null.Uint64From(w.tenant.ID),
		Department:   "Cundinamarca",
		Municipality: "Bogotá D.C.",
	}
	w.provider = &entities.Provider{
		ID:           20,
		UserID:       null.Uint64From(w.providerUser.ID),
		Name:         "Plomería Express",
		Phone:        "573001234567",
		Specialty:    "Plomería",
		Department:   "Cundinamarca",
		Municipality: "Bogotá D.C.",
		Active:       true,
	}

	userRepo := &fakeUserRepo{users: map[uint64]*entities.User{
		w.owner.ID: w.owner, w.tenant.ID: w.tenant, w.admin.ID: w.admin,
		w.providerUser.ID: w.providerUser, w.stranger.ID: w.stranger,
	}}
	propertyRepo := &fakePropertyRepo{properties: map[uint64]*entities.Property{w.property.ID: w.property}}
	w.providerRepo = &fakeProviderRepo{providers: map[uint64]*entities.Provider{w.provider.ID: w.provider}}
	w.ticketRepo = &fakeTicketRepo{tickets: make(map[uint64]*entities.Ticket)}
	w.commentRepo = &fakeCommentRepo{}
	w.approvalRepo = &fakeApprovalRepo{}
	w.matching = &fakeMatchingService{}
	w.bus = eventbus.New(zap.NewNop())

	w.svc = NewTicketService(
		fakeTxManager{}, w.ticketRepo, w.commentRepo, w.approvalRepo,
		propertyRepo, w.providerRepo, userRepo,
		w.matching, w.bus, zap.NewNop(),
	)
	return w
}

func ctxAs(u *entities.User) context.Context {
	ctx := utils.WithUserID(context.Background(), u.ID)
	return utils.WithUserRole(ctx, u.Role)
}

func (w *ticketWorld) seedTicket(status domain.Status, assigned bool) *entities.Ticket {
	t := &entities.Ticket{
		PropertyID: w.property.ID,
		Category:   "Plomería",
		Title:      "Fuga en la cocina",
		Priority:   domain.PriorityAlta,
		Status:     status,
		ReporterID: w.tenant.ID,
	}
	if assigned {
		t.ProviderID = null.Uint64From(w.provider.ID)
	}
	id, _ := w.ticketRepo.CreateTicket(context.Background(), t)
	t.ID = id
	return t
}

func assertHTTPCode(t *testing.T, err error, code int) {
	t.Helper()
	var httpErr *apperrors.HttpError
	require.True(t, errors.As(err, &httpErr), "se esperaba HttpError, llegó: %v", err)
	assert.Equal(t, code, httpErr.Code)
}

// ---------- creación ----------

func TestCreateTicketPropertyNotFound(t *testing.T) {
	w := newTicketWorld()
	_, err := w.svc.CreateTicket(ctxAs(w.tenant), dto.CreateTicketDTO{
		PropertyID: 999, Category: "Plomería", Title: "Fuga", Description: "d", Priority: "Alta",
	})
	assertHTTPCode(t, err, http.StatusNotFound)
}

func TestCreateTicketForbiddenForStranger(t *testing.T) {
	w := newTicketWorld()
	_, err := w.svc.CreateTicket(ctxAs(w.stranger), dto.CreateTicketDTO{
		PropertyID: w.property.ID, Category: "Plomería", Title: "Fuga", Description: "d", Priority: "Alta",
	})
	assertHTTPCode(t, err, http.StatusForbidden)
}

func TestCreateTicketMatchedProviderGetsAssigned(t *testing.T) {
	w := newTicketWorld()
	w.matching.matched = w.provider

	res, err := w.svc.CreateTicket(ctxAs(w.tenant), dto.CreateTicketDTO{
		PropertyID: w.property.ID, Category: "Plomería", Title: "Fuga en la cocina",
		Description: "Gotea sin parar", Priority: "Alta",
	})
	require.NoError(t, err)
	require.NotNil(t, res.MatchedProvider)
	assert.Equal(t, w.provider.ID, res.MatchedProvider.ID)
	assert.Empty(t, res.Warnings)

	stored := w.ticketRepo.tickets[res.Ticket.ID]
	assert.Equal(t, domain.StatusAsignado, stored.Status)
	assert.Equal(t, w.provider.ID, stored.ProviderID.Uint64)

	// bitácora: creación + asignación
	require.Len(t, w.commentRepo.entries, 2)
	assert.Equal(t, domain.EntryStatusChange, w.commentRepo.entries[1].EntryType)
}

func TestCreateTicketAutoAssignPublishesSingleEvent(t *testing.T) {
	w := newTicketWorld()
	w.matching.matched = w.provider

	created := make(chan eventbus.Event, 4)
	statusChanged := make(chan eventbus.Event, 4)
	w.bus.Subscribe("ticket.created", func(_ context.Context, e eventbus.Event) error {
		created <- e
		return nil
	})
	w.bus.Subscribe("ticket.status.changed", func(_ context.Context, e eventbus.Event) error {
		statusChanged <- e
		return nil
	})

	res, err := w.svc.CreateTicket(ctxAs(w.tenant), dto.CreateTicketDTO{
		PropertyID: w.property.ID, Category: "Plomería", Title: "Fuga en la cocina",
		Description: "Gotea sin parar", Priority: "Alta",
	})
	require.NoError(t, err)
	assert.True(t, res.NotificationQueued)

	select {
	case e := <-created:
		evt, ok := e.(events.TicketCreatedEvent)
		require.True(t, ok)
		require.NotNil(t, evt.Matched)
		assert.Equal(t, w.provider.ID, evt.Matched.ID)
	case <-time.After(time.Second):
		t.Fatal("no se publicó el evento de creación")
	}

	// la pre-asignación no emite además un cambio de estado: un solo aviso
	// llega al proveedor emparejado
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, statusChanged)
}

func TestCreateTicketWithoutMatchSavesSuggestions(t *testing.T) {
	w := newTicketWorld()
	w.matching.suggestions = []entities.ProviderSuggestion{
		{Name: "Plomeros Bogotá", URL: "https://example.com"},
	}

	res, err := w.svc.CreateTicket(ctxAs(w.owner), dto.CreateTicketDTO{
		PropertyID: w.property.ID, Category: "Plomería", Title: "Fuga",
		Description: "d", Priority: "Media",
	})
	require.NoError(t, err)
	assert.Nil(t, res.MatchedProvider)
	assert.Equal(t, domain.StatusPendiente, w.ticketRepo.tickets[res.Ticket.ID].Status)
	assert.Len(t, w.ticketRepo.suggestions, 1)
}

func TestCreateTicketMatchingFailureIsOnlyAWarning(t *testing.T) {
	w := newTicketWorld()
	w.matching.matchErr = errors.New("directorio caído")
	w.matching.suggestErr = errors.New("búsqueda caída")

	res, err := w.svc.CreateTicket(ctxAs(w.tenant), dto.CreateTicketDTO{
		PropertyID: w.property.ID, Category: "Plomería", Title: "Fuga",
		Description: "d", Priority: "Baja",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, domain.StatusPendiente, w.ticketRepo.tickets[res.Ticket.ID].Status)
}

// ---------- asignación manual ----------

func TestAssignTicketAdminOnly(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusPendiente, false)

	err := w.svc.AssignTicket(ctxAs(w.owner), ticket.ID, w.provider.ID)
	assertHTTPCode(t, err, http.StatusForbidden)

	err = w.svc.AssignTicket(ctxAs(w.admin), ticket.ID, w.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAsignado, w.ticketRepo.tickets[ticket.ID].Status)
}

func TestAssignTicketRejectsInactiveProvider(t *testing.T) {
	w := newTicketWorld()
	w.provider.Active = false
	ticket := w.seedTicket(domain.StatusPendiente, false)

	err := w.svc.AssignTicket(ctxAs(w.admin), ticket.ID, w.provider.ID)
	var inputErr *apperrors.InvalidInputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestAssignTicketInvalidFromState(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusCompletado, true)

	err := w.svc.AssignTicket(ctxAs(w.admin), ticket.ID, w.provider.ID)
	assertHTTPCode(t, err, http.StatusBadRequest)
	assert.Contains(t, err.Error(), "Completado")
}

func TestReassignWhileAsignado(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusAsignado, true)

	err := w.svc.AssignTicket(ctxAs(w.admin), ticket.ID, w.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAsignado, w.ticketRepo.tickets[ticket.ID].Status)
}

// ---------- aceptar / declinar / completar ----------

func TestAcceptTicketHappyPath(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusAsignado, true)

	err := w.svc.AcceptTicket(ctxAs(w.providerUser), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnProgreso, w.ticketRepo.tickets[ticket.ID].Status)
}

func TestAcceptTicketOnlyAssignedProvider(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusAsignado, true)

	err := w.svc.AcceptTicket(ctxAs(w.tenant), ticket.ID)
	assertHTTPCode(t, err, http.StatusForbidden)
}

func TestAcceptTicketWrongState(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusEnProgreso, true)

	err := w.svc.AcceptTicket(ctxAs(w.providerUser), ticket.ID)
	assertHTTPCode(t, err, http.StatusBadRequest)
	// el mensaje incluye el estado actual para que el cliente refresque
	assert.Contains(t, err.Error(), "En progreso")
}

func TestRejectAssignmentReturnsToPendingAndClearsProvider(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusAsignado, true)

	err := w.svc.RejectAssignment(ctxAs(w.providerUser), ticket.ID)
	require.NoError(t, err)

	stored := w.ticketRepo.tickets[ticket.ID]
	assert.Equal(t, domain.StatusPendiente, stored.Status)
	assert.False(t, stored.ProviderID.Valid)
}

func TestRejectAssignmentInvalidFromCompletado(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusCompletado, true)

	err := w.svc.RejectAssignment(ctxAs(w.providerUser), ticket.ID)
	assertHTTPCode(t, err, http.StatusBadRequest)
}

func TestCompleteTicketRequiresEnProgreso(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusAsignado, true)

	err := w.svc.CompleteTicket(ctxAs(w.providerUser), ticket.ID, dto.CompleteTicketDTO{})
	assertHTTPCode(t, err, http.StatusBadRequest)
}

func TestCompleteTicketHappyPath(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusEnProgreso, true)

	err := w.svc.CompleteTicket(ctxAs(w.providerUser), ticket.ID, dto.CompleteTicketDTO{
		EvidencePhotos: []string{"https://cdn.example.com/foto1.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompletado, w.ticketRepo.tickets[ticket.ID].Status)
}

// ---------- veredicto ----------

func TestApproveTicketRequiresCompletado(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusEnProgreso, true)

	rating := 5
	_, err := w.svc.ApproveTicket(ctxAs(w.tenant), ticket.ID, dto.ApproveTicketDTO{
		Action: "approved", Rating: &rating,
	})
	assertHTTPCode(t, err, http.StatusBadRequest)
}

func TestApproveTicketRequiresRating(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusCompletado, true)

	_, err := w.svc.ApproveTicket(ctxAs(w.tenant), ticket.ID, dto.ApproveTicketDTO{Action: "approved"})
	var inputErr *apperrors.InvalidInputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestApproveTicketForbiddenForProvider(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusCompletado, true)

	rating := 4
	_, err := w.svc.ApproveTicket(ctxAs(w.providerUser), ticket.ID, dto.ApproveTicketDTO{
		Action: "approved", Rating: &rating,
	})
	assertHTTPCode(t, err, http.StatusForbidden)
}

func TestApproveTicketHappyPath(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusCompletado, true)

	rating := 5
	action, err := w.svc.ApproveTicket(ctxAs(w.owner), ticket.ID, dto.ApproveTicketDTO{
		Action: "approved", Rating: &rating, Comment: "Excelente trabajo",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ApprovalActionApproved, action)
	assert.Equal(t, domain.StatusResuelto, w.ticketRepo.tickets[ticket.ID].Status)

	require.Len(t, w.approvalRepo.approvals, 1)
	assert.Equal(t, 5, w.approvalRepo.approvals[0].Rating.Int)
}

func TestRejectCompletionRequiresComment(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusCompletado, true)

	_, err := w.svc.ApproveTicket(ctxAs(w.tenant), ticket.ID, dto.ApproveTicketDTO{Action: "rejected"})
	var inputErr *apperrors.InvalidInputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestRejectCompletionMovesToRechazado(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusCompletado, true)

	action, err := w.svc.ApproveTicket(ctxAs(w.tenant), ticket.ID, dto.ApproveTicketDTO{
		Action: "rejected", Comment: "La fuga sigue",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ApprovalActionRejected, action)
	assert.Equal(t, domain.StatusRechazado, w.ticketRepo.tickets[ticket.ID].Status)
}

// ---------- conflicto concurrente ----------

func TestApproveTicketConflictWhenStateMovedUnderneath(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusCompletado, true)

	// otra operación gana la carrera entre la lectura y el UPDATE condicional
	w.ticketRepo.beforeTransition = func(id uint64) {
		w.ticketRepo.tickets[id].Status = domain.StatusRechazado
	}

	rating := 5
	_, err := w.svc.ApproveTicket(ctxAs(w.owner), ticket.ID, dto.ApproveTicketDTO{
		Action: "approved", Rating: &rating,
	})
	assertHTTPCode(t, err, http.StatusConflict)
}

// ---------- force status ----------

func TestForceStatusAdminOnly(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusPendiente, false)

	err := w.svc.ForceStatus(ctxAs(w.owner), ticket.ID, dto.ForceStatusDTO{Status: "Resuelto", Reason: "x"})
	assertHTTPCode(t, err, http.StatusForbidden)

	err = w.svc.ForceStatus(ctxAs(w.admin), ticket.ID, dto.ForceStatusDTO{Status: "Resuelto", Reason: "cerrado manual"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResuelto, w.ticketRepo.tickets[ticket.ID].Status)

	// queda auditado en la bitácora
	require.NotEmpty(t, w.commentRepo.entries)
	last := w.commentRepo.entries[len(w.commentRepo.entries)-1]
	assert.Equal(t, domain.EntryForceStatus, last.EntryType)
}

func TestForceStatusRejectsUnknownState(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusPendiente, false)

	err := w.svc.ForceStatus(ctxAs(w.admin), ticket.ID, dto.ForceStatusDTO{Status: "Cerradísimo", Reason: "x"})
	var inputErr *apperrors.InvalidInputError
	assert.True(t, errors.As(err, &inputErr))
}

// ---------- edición y listados ----------

func TestUpdateTicketForbiddenForStranger(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusPendiente, false)

	title := "Otro título"
	err := w.svc.UpdateTicket(ctxAs(w.stranger), ticket.ID, dto.UpdateTicketDTO{Title: &title})
	assertHTTPCode(t, err, http.StatusForbidden)
}

func TestUpdateTicketRejectsInvalidPriority(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusPendiente, false)

	bad := "Urgentísima"
	err := w.svc.UpdateTicket(ctxAs(w.owner), ticket.ID, dto.UpdateTicketDTO{Priority: &bad})
	var inputErr *apperrors.InvalidInputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestUpdateTicketRejectsClosedTicket(t *testing.T) {
	w := newTicketWorld()
	ticket := w.seedTicket(domain.StatusResuelto, true)

	title := "Otro título"
	err := w.svc.UpdateTicket(ctxAs(w.owner), ticket.ID, dto.UpdateTicketDTO{Title: &title})
	assertHTTPCode(t, err, http.StatusBadRequest)
}

func TestGetTicketsScopesNonAdmins(t *testing.T) {
	w := newTicketWorld()

	_, _, err := w.svc.GetTickets(ctxAs(w.tenant), types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, w.tenant.ID, w.ticketRepo.lastFilter.Filter["reporter_id"])

	_, _, err = w.svc.GetTickets(ctxAs(w.providerUser), types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, w.provider.ID, w.ticketRepo.lastFilter.Filter["provider_id"])

	_, _, err = w.svc.GetTickets(ctxAs(w.admin), types.Filter{})
	require.NoError(t, err)
	assert.Nil(t, w.ticketRepo.lastFilter.Filter["reporter_id"])
	assert.Nil(t, w.ticketRepo.lastFilter.Filter["provider_id"])
}
