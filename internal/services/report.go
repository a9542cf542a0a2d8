// Archivo: internal/services/report.go
package services

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"property-system/internal/domain"
	"property-system/internal/entities"
	"property-system/internal/repositories"
	apperrors "property-system/pkg/errors"
	"property-system/pkg/utils"
)

type ReportServiceInterface interface {
	GetReport(ctx context.Context, filter entities.ReportFilter) ([]entities.ReportItem, uint64, error)
}

type reportService struct {
	reportRepo repositories.ReportRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(
	reportRepo repositories.ReportRepositoryInterface,
	logger *zap.Logger,
) ReportServiceInterface {
	return &reportService{
		reportRepo: reportRepo,
		logger:     logger,
	}
}

// GetReport es solo para administradores: el informe cruza datos de todas las
// propiedades y proveedores.
func (s *reportService) GetReport(ctx context.Context, filter entities.ReportFilter) ([]entities.ReportItem, uint64, error) {
	role, err := utils.GetUserRoleFromCtx(ctx)
	if err != nil {
		return nil, 0, apperrors.ErrUnauthorized
	}
	if role != domain.RoleAdmin {
		s.logger.Warn("Intento de acceso al informe sin rol admin", zap.String("role", role))
		return nil, 0, apperrors.NewHttpError(http.StatusForbidden,
			"Solo un administrador puede consultar el informe", nil, nil)
	}
	return s.reportRepo.GetReport(ctx, filter)
}
