package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"property-system/internal/dto"
	"property-system/internal/entities"
	"property-system/internal/services"
	"property-system/pkg/api"
	"property-system/pkg/utils"
)

type TicketController struct {
	ticketService services.TicketServiceInterface
	logger        *zap.Logger
}

func NewTicketController(
	ticketService services.TicketServiceInterface,
	logger *zap.Logger,
) *TicketController {
	return &TicketController{
		ticketService: ticketService,
		logger:        logger,
	}
}

func parseID(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "ID inválido")
	}
	return id, nil
}

func (c *TicketController) GetTickets(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	tickets, total, err := c.ticketService.GetTickets(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Error al listar tickets", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessList(ctx, "Tickets obtenidos", tickets, total, filter.Page, filter.Limit)
}

func (c *TicketController) FindTicket(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	ticket, err := c.ticketService.FindTicket(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Ticket obtenido", ticket)
}

func (c *TicketController) CreateTicket(ctx echo.Context) error {
	var payload dto.CreateTicketDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	res, err := c.ticketService.CreateTicket(ctx.Request().Context(), payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Ticket creado", res)
}

func (c *TicketController) UpdateTicket(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.UpdateTicketDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	if err := c.ticketService.UpdateTicket(ctx.Request().Context(), id, payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Ticket actualizado", nil)
}

func (c *TicketController) AssignTicket(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.AssignTicketDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	if err := c.ticketService.AssignTicket(ctx.Request().Context(), id, payload.ProviderID); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Proveedor asignado", nil)
}

func (c *TicketController) AcceptTicket(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := c.ticketService.AcceptTicket(ctx.Request().Context(), id); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Trabajo aceptado", nil)
}

func (c *TicketController) RejectAssignment(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := c.ticketService.RejectAssignment(ctx.Request().Context(), id); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Asignación declinada", nil)
}

func (c *TicketController) CompleteTicket(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.CompleteTicketDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	if err := c.ticketService.CompleteTicket(ctx.Request().Context(), id, payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Trabajo marcado como completado", nil)
}

func (c *TicketController) ApproveTicket(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.ApproveTicketDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	action, err := c.ticketService.ApproveTicket(ctx.Request().Context(), id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	msg := "Trabajo aprobado"
	if action == entities.ApprovalActionRejected {
		msg = "Trabajo rechazado"
	}
	return api.SuccessOne[any](ctx, http.StatusOK, msg, nil)
}

func (c *TicketController) ForceStatus(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.ForceStatusDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	if err := c.ticketService.ForceStatus(ctx.Request().Context(), id, payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Estado forzado", nil)
}

func (c *TicketController) AddComment(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.CreateCommentDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "JSON inválido"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}

	entry, err := c.ticketService.AddComment(ctx.Request().Context(), id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Comentario agregado", entry)
}

func (c *TicketController) GetTimeline(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	entries, err := c.ticketService.GetTimeline(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessList(ctx, "Bitácora obtenida", entries, uint64(len(entries)), 1, len(entries))
}
