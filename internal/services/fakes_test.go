package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"property-system/internal/domain"
	"property-system/internal/dto"
	"property-system/internal/entities"
	"property-system/internal/repositories"
	apperrors "property-system/pkg/errors"
	"property-system/pkg/search"
	"property-system/pkg/types"
)

// Dobles en memoria para probar la lógica de los servicios sin base de datos.

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	users map[uint64]*entities.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uint64) (*entities.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *entities.User) (uint64, error) {
	id := uint64(len(f.users) + 1)
	u.ID = id
	f.users[id] = u
	return id, nil
}

type fakePropertyRepo struct {
	properties map[uint64]*entities.Property
}

func (f *fakePropertyRepo) FindProperty(_ context.Context, id uint64) (*entities.Property, error) {
	if p, ok := f.properties[id]; ok {
		return p, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakePropertyRepo) GetProperties(_ context.Context, _ types.Filter) ([]entities.Property, uint64, error) {
	return nil, 0, nil
}

func (f *fakePropertyRepo) CreateProperty(_ context.Context, p *entities.Property) (uint64, error) {
	id := uint64(len(f.properties) + 1)
	f.properties[id] = p
	return id, nil
}

func (f *fakePropertyRepo) UpdateProperty(_ context.Context, _ uint64, _ dto.UpdatePropertyDTO) error {
	return nil
}

type fakeProviderRepo struct {
	providers map[uint64]*entities.Provider
	active    []entities.Provider // respuesta de FindActiveBySpecialtyAndLocation
	calls     []string            // municipios consultados, en orden
}

func (f *fakeProviderRepo) FindProvider(_ context.Context, id uint64) (*entities.Provider, error) {
	if p, ok := f.providers[id]; ok {
		return p, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeProviderRepo) FindProviderByUserID(_ context.Context, userID uint64) (*entities.Provider, error) {
	for _, p := range f.providers {
		if p.UserID.Valid && p.UserID.Uint64 == userID {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeProviderRepo) GetProviders(_ context.Context, _ types.Filter) ([]entities.Provider, uint64, error) {
	return nil, 0, nil
}

func (f *fakeProviderRepo) FindActiveBySpecialtyAndLocation(_ context.Context, _, _, municipality string) ([]entities.Provider, error) {
	f.calls = append(f.calls, municipality)
	if municipality == "" {
		return f.active, nil
	}
	var filtered []entities.Provider
	for _, p := range f.active {
		if p.Municipality == municipality {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (f *fakeProviderRepo) CreateProvider(_ context.Context, p *entities.Provider) (uint64, error) {
	id := uint64(len(f.providers) + 1)
	p.ID = id
	f.providers[id] = p
	return id, nil
}

func (f *fakeProviderRepo) UpdateProvider(_ context.Context, _ uint64, _ dto.UpdateProviderDTO) error {
	return nil
}

func (f *fakeProviderRepo) DeactivateProvider(_ context.Context, id uint64) error {
	if p, ok := f.providers[id]; ok {
		p.Active = false
	}
	return nil
}

type fakeTicketRepo struct {
	tickets          map[uint64]*entities.Ticket
	lastFilter       types.Filter
	suggestions      []entities.ProviderSuggestion
	beforeTransition func(id uint64)  // se ejecuta antes del UPDATE condicional
	transitionErrs   map[uint64]error // fuerza un error de base de datos por ticket
}

func (f *fakeTicketRepo) FindTicket(_ context.Context, id uint64) (*entities.Ticket, error) {
	if t, ok := f.tickets[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeTicketRepo) FindTicketInTx(ctx context.Context, _ repositories.Querier, id uint64) (*entities.Ticket, error) {
	return f.FindTicket(ctx, id)
}

func (f *fakeTicketRepo) GetTickets(_ context.Context, filter types.Filter) ([]entities.Ticket, uint64, error) {
	f.lastFilter = filter
	return nil, 0, nil
}

func (f *fakeTicketRepo) CreateTicket(_ context.Context, t *entities.Ticket) (uint64, error) {
	id := uint64(len(f.tickets) + 1)
	t.ID = id
	copied := *t
	f.tickets[id] = &copied
	return id, nil
}

func (f *fakeTicketRepo) UpdateFields(_ context.Context, _ uint64, _ dto.UpdateTicketDTO) error {
	return nil
}

func (f *fakeTicketRepo) SaveSuggestions(_ context.Context, id uint64, suggestions []entities.ProviderSuggestion) error {
	f.suggestions = suggestions
	return nil
}

func (f *fakeTicketRepo) TransitionStatus(_ context.Context, _ repositories.Querier, id uint64, expectedFrom []domain.Status, to domain.Status, upd repositories.StatusUpdate) (bool, error) {
	if f.beforeTransition != nil {
		f.beforeTransition(id)
	}
	if err, ok := f.transitionErrs[id]; ok {
		return false, err
	}
	t, ok := f.tickets[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, from := range expectedFrom {
		if t.Status == from {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	t.Status = to
	if upd.SetProviderID != nil {
		t.ProviderID.SetValid(*upd.SetProviderID)
	}
	if upd.ClearProvider {
		t.ProviderID.Valid = false
	}
	if upd.SetAutoApproved {
		t.AutoApproved = true
	}
	return true, nil
}

func (f *fakeTicketRepo) ListCompletedBefore(_ context.Context, cutoff time.Time, _ int) ([]entities.Ticket, error) {
	var out []entities.Ticket
	for _, t := range f.tickets {
		if t.Status == domain.StatusCompletado && t.CompletedAt.Valid && t.CompletedAt.Time.Before(cutoff) {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeCommentRepo struct {
	entries []*entities.TimelineEntry
}

func (f *fakeCommentRepo) CreateEntry(_ context.Context, entry *entities.TimelineEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeCommentRepo) CreateEntryInTx(ctx context.Context, _ repositories.Querier, entry *entities.TimelineEntry) error {
	return f.CreateEntry(ctx, entry)
}

func (f *fakeCommentRepo) ListByTicket(_ context.Context, ticketID uint64) ([]entities.TimelineEntry, error) {
	var out []entities.TimelineEntry
	for _, e := range f.entries {
		if e.TicketID == ticketID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeApprovalRepo struct {
	approvals []*entities.Approval
}

func (f *fakeApprovalRepo) CreateInTx(_ context.Context, _ repositories.Querier, approval *entities.Approval) error {
	f.approvals = append(f.approvals, approval)
	return nil
}

func (f *fakeApprovalRepo) FindByTicket(_ context.Context, ticketID uint64) (*entities.Approval, error) {
	for _, a := range f.approvals {
		if a.TicketID == ticketID {
			return a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type fakeCacheRepo struct {
	data map[string]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{data: make(map[string]string)}
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s, ok := value.(string); ok {
		f.data[key] = s
	}
	return nil
}

func (f *fakeCacheRepo) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", apperrors.ErrNotFound
}

func (f *fakeCacheRepo) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

type fakeSearchService struct {
	results []search.Result
	err     error
	calls   int
}

func (f *fakeSearchService) SearchProviders(_ context.Context, _, _, _, _ string) ([]search.Result, error) {
	f.calls++
	return f.results, f.err
}

type fakeMatchingService struct {
	matched     *entities.Provider
	suggestions []entities.ProviderSuggestion
	matchErr    error
	suggestErr  error
}

func (f *fakeMatchingService) MatchProvider(_ context.Context, _, _, _ string) (*entities.Provider, error) {
	return f.matched, f.matchErr
}

func (f *fakeMatchingService) SuggestExternal(_ context.Context, _, _, _ string) ([]entities.ProviderSuggestion, error) {
	return f.suggestions, f.suggestErr
}
