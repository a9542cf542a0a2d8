package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"property-system/internal/dto"
	"property-system/internal/services"
	"property-system/pkg/api"
	"property-system/pkg/utils"
)

type ProviderController struct {
	providerService services.ProviderServiceInterface
	logger          *zap.Logger
}

func NewProviderController(
	providerService services.ProviderServiceInterface,
	logger *zap.Logger,
) *ProviderController {
	return &ProviderController{
		providerService: providerService,
		logger:          logger,
	}
}

func (c *ProviderController) GetProviders(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	providers, total, err := c.providerService.GetProviders(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Error al listar proveedores", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessList(ctx, "Proveedores obtenidos", providers, total, filter.Page, filter.Limit)
}

func (c *ProviderController) FindProvider(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	provider, err := c.providerService.FindProvider(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Proveedor obtenido", provider)
}

func (c *ProviderController) CreateProvider(ctx echo.Context) error {
	var payload dto.CreateProviderDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	provider, err := c.providerService.CreateProvider(ctx.Request().Context(), payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Proveedor creado", provider)
}

func (c *ProviderController) UpdateProvider(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.UpdateProviderDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	if err := c.providerService.UpdateProvider(ctx.Request().Context(), id, payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Proveedor actualizado", nil)
}

func (c *ProviderController) DeactivateProvider(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := c.providerService.DeactivateProvider(ctx.Request().Context(), id); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Proveedor desactivado", nil)
}
