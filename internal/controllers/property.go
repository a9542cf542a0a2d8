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

type PropertyController struct {
	propertyService services.PropertyServiceInterface
	logger          *zap.Logger
}

func NewPropertyController(
	propertyService services.PropertyServiceInterface,
	logger *zap.Logger,
) *PropertyController {
	return &PropertyController{
		propertyService: propertyService,
		logger:          logger,
	}
}

func (c *PropertyController) GetProperties(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	properties, total, err := c.propertyService.GetProperties(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Error al listar propiedades", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessList(ctx, "Propiedades obtenidas", properties, total, filter.Page, filter.Limit)
}

func (c *PropertyController) FindProperty(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	property, err := c.propertyService.FindProperty(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Propiedad obtenida", property)
}

func (c *PropertyController) CreateProperty(ctx echo.Context) error {
	var payload dto.CreatePropertyDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	property, err := c.propertyService.CreateProperty(ctx.Request().Context(), payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Propiedad creada", property)
}

func (c *PropertyController) UpdateProperty(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.UpdatePropertyDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	if err := c.propertyService.UpdateProperty(ctx.Request().Context(), id, payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Propiedad actualizada", nil)
}
