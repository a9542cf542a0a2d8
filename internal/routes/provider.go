package routes

import (
	"github.com/labstack/echo/v4"

	"property-system/internal/controllers"
)

func runProviderRouter(secureGroup *echo.Group, ctrl *controllers.ProviderController) {
	{
		secureGroup.GET("/providers", ctrl.GetProviders)
		secureGroup.POST("/providers", ctrl.CreateProvider)
		secureGroup.GET("/providers/:id", ctrl.FindProvider)
		secureGroup.PATCH("/providers/:id", ctrl.UpdateProvider)
		secureGroup.DELETE("/providers/:id", ctrl.DeactivateProvider)
	}
}
