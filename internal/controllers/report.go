package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"property-system/internal/domain"
	"property-system/internal/entities"
	"property-system/internal/services"
	"property-system/pkg/api"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(
	reportService services.ReportServiceInterface,
	logger *zap.Logger,
) *ReportController {
	return &ReportController{
		reportService: reportService,
		logger:        logger,
	}
}

// GetReport responde JSON por defecto y XLSX con ?format=xlsx.
func (c *ReportController) GetReport(ctx echo.Context) error {
	filter, format := parseReportQuery(ctx)

	items, total, err := c.reportService.GetReport(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Error generando el informe", zap.Error(err))
		return api.ErrorResponse(ctx, err)
	}

	if format == "xlsx" {
		return c.respondWithXLSX(ctx, items)
	}
	return api.SuccessList(ctx, "Informe generado", items, total, 1, len(items))
}

func parseReportQuery(ctx echo.Context) (entities.ReportFilter, string) {
	var filter entities.ReportFilter
	format := ctx.QueryParam("format")

	if df := ctx.QueryParam("date_from"); df != "" {
		if t, err := time.Parse(time.RFC3339, df); err == nil {
			filter.DateFrom = &t
		}
	}
	if dt := ctx.QueryParam("date_to"); dt != "" {
		if t, err := time.Parse(time.RFC3339, dt); err == nil {
			filter.DateTo = &t
		}
	}
	if st := ctx.QueryParam("statuses"); st != "" {
		for _, raw := range strings.Split(st, ",") {
			if parsed, err := domain.ParseStatus(strings.TrimSpace(raw)); err == nil {
				filter.Statuses = append(filter.Statuses, parsed)
			}
		}
	}
	filter.Department = ctx.QueryParam("department")

	return filter, format
}

var reportHeaders = []string{
	"ID", "Título", "Categoría", "Prioridad", "Estado",
	"Propiedad", "Municipio", "Departamento", "Reportante", "Proveedor",
	"Auto-aprobado", "Calificación", "Fecha de creación", "Fecha de cierre", "Horas de resolución",
}

func reportRowToSlice(item entities.ReportItem) []interface{} {
	dateFmt := "02.01.2006 15:04"
	var completedAt, resHours, rating, providerName string
	if item.CompletedAt.Valid {
		completedAt = item.CompletedAt.Time.Format(dateFmt)
	}
	if item.ResolutionHours.Valid {
		resHours = fmt.Sprintf("%.2f", item.ResolutionHours.Float64)
	}
	if item.Rating.Valid {
		rating = fmt.Sprintf("%d", item.Rating.Int)
	}
	if item.ProviderName.Valid {
		providerName = item.ProviderName.String
	}
	autoApproved := "No"
	if item.AutoApproved {
		autoApproved = "Sí"
	}

	return []interface{}{
		item.TicketID, item.Title, item.Category, item.Priority, item.Status.String(),
		item.PropertyAddress, item.Municipality, item.Department, item.ReporterName, providerName,
		autoApproved, rating, item.CreatedAt.Format(dateFmt), completedAt, resHours,
	}
}

func (c *ReportController) respondWithXLSX(ctx echo.Context, data []entities.ReportItem) error {
	f := excelize.NewFile()
	sheet := "Informe de tickets"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &reportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "O1", style)

	for i, item := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := reportRowToSlice(item)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "B", "B", 35)
	f.SetColWidth(sheet, "F", "F", 35)
	f.SetColWidth(sheet, "G", "J", 20)
	f.SetColWidth(sheet, "M", "N", 18)

	fileName := fmt.Sprintf("informe_tickets_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
