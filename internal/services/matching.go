// Archivo: internal/services/matching.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"property-system/internal/entities"
	"property-system/internal/repositories"
	"property-system/pkg/search"
)

// MatchingServiceInterface empareja un ticket nuevo con un proveedor del
// directorio interno y, como enriquecimiento, busca candidatos externos.
// Todo aquí es de mejor esfuerzo: la creación del ticket no depende de esto.
type MatchingServiceInterface interface {
	MatchProvider(ctx context.Context, category, department, municipality string) (*entities.Provider, error)
	SuggestExternal(ctx context.Context, category, department, municipality string) ([]entities.ProviderSuggestion, error)
}

type MatchingService struct {
	providerRepo repositories.ProviderRepositoryInterface
	cacheRepo    repositories.CacheRepositoryInterface
	searchSvc    search.ServiceInterface
	logger       *zap.Logger
}

func NewMatchingService(
	providerRepo repositories.ProviderRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	searchSvc search.ServiceInterface,
	logger *zap.Logger,
) MatchingServiceInterface {
	return &MatchingService{
		providerRepo: providerRepo,
		cacheRepo:    cacheRepo,
		searchSvc:    searchSvc,
		logger:       logger,
	}
}

const externalCacheTTL = 24 * time.Hour

// MatchProvider busca primero por especialidad + departamento + municipio y
// relaja el municipio si no hay nadie. Devuelve el candidato más antiguo.
func (s *MatchingService) MatchProvider(ctx context.Context, category, department, municipality string) (*entities.Provider, error) {
	candidates, err := s.providerRepo.FindActiveBySpecialtyAndLocation(ctx, category, department, municipality)
	if err != nil {
		return nil, fmt.Errorf("error buscando proveedores internos: %w", err)
	}
	if len(candidates) == 0 && municipality != "" {
		candidates, err = s.providerRepo.FindActiveBySpecialtyAndLocation(ctx, category, department, "")
		if err != nil {
			return nil, fmt.Errorf("error buscando proveedores internos (sin municipio): %w", err)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// SuggestExternal consulta el directorio externo, con caché en Redis por
// categoría + zona para no repetir la misma búsqueda en cada ticket.
func (s *MatchingService) SuggestExternal(ctx context.Context, category, department, municipality string) ([]entities.ProviderSuggestion, error) {
	cacheKey := fmt.Sprintf("extsearch:%s:%s:%s", category, department, municipality)

	if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil && cached != "" {
		var suggestions []entities.ProviderSuggestion
		if err := json.Unmarshal([]byte(cached), &suggestions); err == nil {
			return suggestions, nil
		}
		// caché corrupto: se ignora y se vuelve a buscar
		s.logger.Warn("Caché de búsqueda externa corrupto", zap.String("key", cacheKey))
	}

	results, err := s.searchSvc.SearchProviders(ctx, category, department, municipality, "")
	if err != nil {
		return nil, fmt.Errorf("búsqueda externa falló: %w", err)
	}

	suggestions := make([]entities.ProviderSuggestion, 0, len(results))
	for _, r := range results {
		suggestions = append(suggestions, entities.ProviderSuggestion{
			Name:        r.Name,
			Description: r.Description,
			URL:         r.URL,
		})
	}

	if raw, err := json.Marshal(suggestions); err == nil {
		if err := s.cacheRepo.Set(ctx, cacheKey, string(raw), externalCacheTTL); err != nil {
			s.logger.Warn("No se pudo guardar la búsqueda externa en caché", zap.Error(err))
		}
	}

	return suggestions, nil
}
