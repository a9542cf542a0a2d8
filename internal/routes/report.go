package routes

import (
	"github.com/labstack/echo/v4"

	"property-system/internal/controllers"
)

func runReportRouter(secureGroup *echo.Group, ctrl *controllers.ReportController) {
	secureGroup.GET("/reports/tickets", ctrl.GetReport)
}
