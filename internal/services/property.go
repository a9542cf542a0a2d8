// Archivo: internal/services/property.go
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

type PropertyServiceInterface interface {
	FindProperty(ctx context.Context, id uint64) (*entities.Property, error)
	GetProperties(ctx context.Context, filter types.Filter) ([]entities.Property, uint64, error)
	CreateProperty(ctx context.Context, data dto.CreatePropertyDTO) (*entities.Property, error)
	UpdateProperty(ctx context.Context, id uint64, data dto.UpdatePropertyDTO) error
}

type PropertyService struct {
	propertyRepo repositories.PropertyRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	logger       *zap.Logger
}

func NewPropertyService(
	propertyRepo repositories.PropertyRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) PropertyServiceInterface {
	return &PropertyService{
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

func (s *PropertyService) requireAdmin(ctx context.Context) error {
	role, err := utils.GetUserRoleFromCtx(ctx)
	if err != nil {
		return apperrors.ErrUnauthorized
	}
	if role != domain.RoleAdmin {
		return apperrors.NewHttpError(http.StatusForbidden,
			"Solo un administrador puede gestionar propiedades", nil, nil)
	}
	return nil
}

func (s *PropertyService) FindProperty(ctx context.Context, id uint64) (*entities.Property, error) {
	return s.propertyRepo.FindProperty(ctx, id)
}

// GetProperties: los no-admin ven solo sus propiedades (como dueño o como
// inquilino vinculado por id).
func (s *PropertyService) GetProperties(ctx context.Context, filter types.Filter) ([]entities.Property, uint64, error) {
	role, err := utils.GetUserRoleFromCtx(ctx)
	if err != nil {
		return nil, 0, apperrors.ErrUnauthorized
	}
	if role != domain.RoleAdmin {
		actorID, err := utils.GetUserIDFromCtx(ctx)
		if err != nil {
			return nil, 0, apperrors.ErrUnauthorized
		}
		if filter.Filter == nil {
			filter.Filter = make(map[string]interface{})
		}
		if role == domain.RoleInquilino {
			filter.Filter["tenant_id"] = actorID
		} else {
			filter.Filter["owner_id"] = actorID
		}
	}
	return s.propertyRepo.GetProperties(ctx, filter)
}

func (s *PropertyService) CreateProperty(ctx context.Context, data dto.CreatePropertyDTO) (*entities.Property, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(ctx, data.OwnerID); err != nil {
		return nil, apperrors.NewInvalidInputError("El propietario %d no existe", data.OwnerID)
	}
	if data.TenantID != nil {
		if _, err := s.userRepo.FindByID(ctx, *data.TenantID); err != nil {
			return nil, apperrors.NewInvalidInputError("El inquilino %d no existe", *data.TenantID)
		}
	}

	property := &entities.Property{
		Address:      data.Address,
		Type:         data.Type,
		OwnerID:      data.OwnerID,
		Department:   data.Department,
		Municipality: data.Municipality,
	}
	if data.TenantID != nil {
		property.TenantID = null.Uint64From(*data.TenantID)
	}
	if data.TenantEmail != nil {
		property.TenantEmail = null.StringFrom(*data.TenantEmail)
	}
	if data.ContractFrom != nil {
		property.ContractFrom = null.TimeFrom(*data.ContractFrom)
	}
	if data.ContractTo != nil {
		property.ContractTo = null.TimeFrom(*data.ContractTo)
	}

	newID, err := s.propertyRepo.CreateProperty(ctx, property)
	if err != nil {
		s.logger.Error("Error creando la propiedad", zap.Error(err))
		return nil, err
	}
	property.ID = newID
	return property, nil
}

func (s *PropertyService) UpdateProperty(ctx context.Context, id uint64, data dto.UpdatePropertyDTO) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if _, err := s.propertyRepo.FindProperty(ctx, id); err != nil {
		return err
	}
	return s.propertyRepo.UpdateProperty(ctx, id, data)
}
