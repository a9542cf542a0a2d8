// Archivo: internal/services/provider.go
package services

import (
	"context"
	"net/http"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"property-system/internal/domain"
	"property-system/internal/dto"
	"property-system/internal/entities"
	"property-system/internal/repositories"
	apperrors "property-system/pkg/errors"
	"property-system/pkg/types"
	"property-system/pkg/utils"
)

type ProviderServiceInterface interface {
	FindProvider(ctx context.Context, id uint64) (*entities.Provider, error)
	GetProviders(ctx context.Context, filter types.Filter) ([]entities.Provider, uint64, error)
	CreateProvider(ctx context.Context, data dto.CreateProviderDTO) (*entities.Provider, error)
	UpdateProvider(ctx context.Context, id uint64, data dto.UpdateProviderDTO) error
	DeactivateProvider(ctx context.Context, id uint64) error
}

type ProviderService struct {
	providerRepo repositories.ProviderRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	logger       *zap.Logger
}

func NewProviderService(
	providerRepo repositories.ProviderRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) ProviderServiceInterface {
	return &ProviderService{
		providerRepo: providerRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

func (s *ProviderService) requireAdmin(ctx context.Context) error {
	role, err := utils.GetUserRoleFromCtx(ctx)
	if err != nil {
		return apperrors.ErrUnauthorized
	}
	if role != domain.RoleAdmin {
		return apperrors.NewHttpError(http.StatusForbidden,
			"Solo un administrador puede gestionar el directorio de proveedores", nil, nil)
	}
	return nil
}

func (s *ProviderService) FindProvider(ctx context.Context, id uint64) (*entities.Provider, error) {
	return s.providerRepo.FindProvider(ctx, id)
}

func (s *ProviderService) GetProviders(ctx context.Context, filter types.Filter) ([]entities.Provider, uint64, error) {
	return s.providerRepo.GetProviders(ctx, filter)
}

func (s *ProviderService) CreateProvider(ctx context.Context, data dto.CreateProviderDTO) (*entities.Provider, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	normalized := utils.NormalizeColombianPhoneNumber(data.Phone)
	if normalized == "" {
		return nil, apperrors.NewInvalidInputError("Teléfono inválido: %s", data.Phone)
	}

	provider := &entities.Provider{
		Name:         data.Name,
		Phone:        normalized,
		Specialty:    data.Specialty,
		Department:   data.Department,
		Municipality: data.Municipality,
		Active:       true,
	}
	if data.UserID != nil {
		user, err := s.userRepo.FindByID(ctx, *data.UserID)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("El usuario %d no existe", *data.UserID)
		}
		if user.Role != domain.RoleProveedor {
			return nil, apperrors.NewInvalidInputError("El usuario %d no tiene el rol proveedor", *data.UserID)
		}
		provider.UserID = null.Uint64From(*data.UserID)
	}

	newID, err := s.providerRepo.CreateProvider(ctx, provider)
	if err != nil {
		s.logger.Error("Error creando el proveedor", zap.Error(err))
		return nil, err
	}
	provider.ID = newID
	return provider, nil
}

func (s *ProviderService) UpdateProvider(ctx context.Context, id uint64, data dto.UpdateProviderDTO) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if _, err := s.providerRepo.FindProvider(ctx, id); err != nil {
		return err
	}
	if data.Phone != nil {
		normalized := utils.NormalizeColombianPhoneNumber(*data.Phone)
		if normalized == "" {
			return apperrors.NewInvalidInputError("Teléfono inválido: %s", *data.Phone)
		}
		data.Phone = &normalized
	}
	return s.providerRepo.UpdateProvider(ctx, id, data)
}

// DeactivateProvider lo saca del emparejamiento sin tocar su historial.
func (s *ProviderService) DeactivateProvider(ctx context.Context, id uint64) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if _, err := s.providerRepo.FindProvider(ctx, id); err != nil {
		return err
	}
	return s.providerRepo.DeactivateProvider(ctx, id)
}
