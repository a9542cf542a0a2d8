package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"property-system/internal/entities"
	"property-system/pkg/search"
)

func TestMatchProviderPrefersExactMunicipality(t *testing.T) {
	providerRepo := &fakeProviderRepo{
		providers: make(map[uint64]*entities.Provider),
		active: []entities.Provider{
			{ID: 1, Name: "Plomería Soacha", Municipality: "Soacha"},
			{ID: 2, Name: "Plomería Bogotá", Municipality: "Bogotá D.C."},
		},
	}
	svc := NewMatchingService(providerRepo, newFakeCacheRepo(), &fakeSearchService{}, zap.NewNop())

	matched, err := svc.MatchProvider(context.Background(), "Plomería", "Cundinamarca", "Bogotá D.C.")
	require.NoError(t, err)
	require.NotNil(t, matched)
	assert.Equal(t, uint64(2), matched.ID)
	assert.Equal(t, []string{"Bogotá D.C."}, providerRepo.calls)
}

func TestMatchProviderRelaxesMunicipality(t *testing.T) {
	providerRepo := &fakeProviderRepo{
		providers: make(map[uint64]*entities.Provider),
		active: []entities.Provider{
			{ID: 1, Name: "Plomería Soacha", Municipality: "Soacha"},
		},
	}
	svc := NewMatchingService(providerRepo, newFakeCacheRepo(), &fakeSearchService{}, zap.NewNop())

	matched, err := svc.MatchProvider(context.Background(), "Plomería", "Cundinamarca", "Bogotá D.C.")
	require.NoError(t, err)
	require.NotNil(t, matched)
	assert.Equal(t, uint64(1), matched.ID)
	// primera búsqueda con municipio, segunda sin él
	assert.Equal(t, []string{"Bogotá D.C.", ""}, providerRepo.calls)
}

func TestMatchProviderNoCandidatesIsNotAnError(t *testing.T) {
	providerRepo := &fakeProviderRepo{providers: make(map[uint64]*entities.Provider)}
	svc := NewMatchingService(providerRepo, newFakeCacheRepo(), &fakeSearchService{}, zap.NewNop())

	matched, err := svc.MatchProvider(context.Background(), "Plomería", "Cundinamarca", "Bogotá D.C.")
	require.NoError(t, err)
	assert.Nil(t, matched)
}

func TestSuggestExternalUsesCache(t *testing.T) {
	searchSvc := &fakeSearchService{
		results: []search.Result{
			{Name: "Plomeros Bogotá", Description: "desc", URL: "https://example.com"},
		},
	}
	svc := NewMatchingService(
		&fakeProviderRepo{providers: make(map[uint64]*entities.Provider)},
		newFakeCacheRepo(), searchSvc, zap.NewNop(),
	)

	first, err := svc.SuggestExternal(context.Background(), "Plomería", "Cundinamarca", "Bogotá D.C.")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, searchSvc.calls)

	// segunda consulta idéntica: sale del caché, no del buscador
	second, err := svc.SuggestExternal(context.Background(), "Plomería", "Cundinamarca", "Bogotá D.C.")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, searchSvc.calls)
}

func TestSuggestExternalIgnoresCorruptCache(t *testing.T) {
	cacheRepo := newFakeCacheRepo()
	cacheRepo.data["extsearch:Plomería:Cundinamarca:Bogotá D.C."] = "{esto no es json"

	searchSvc := &fakeSearchService{
		results: []search.Result{{Name: "Plomeros Bogotá", URL: "https://example.com"}},
	}
	svc := NewMatchingService(
		&fakeProviderRepo{providers: make(map[uint64]*entities.Provider)},
		cacheRepo, searchSvc, zap.NewNop(),
	)

	suggestions, err := svc.SuggestExternal(context.Background(), "Plomería", "Cundinamarca", "Bogotá D.C.")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, 1, searchSvc.calls)
}

func TestSuggestExternalPropagatesSearchError(t *testing.T) {
	searchSvc := &fakeSearchService{err: assert.AnError}
	svc := NewMatchingService(
		&fakeProviderRepo{providers: make(map[uint64]*entities.Provider)},
		newFakeCacheRepo(), searchSvc, zap.NewNop(),
	)

	_, err := svc.SuggestExternal(context.Background(), "Plomería", "Cundinamarca", "Bogotá D.C.")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
