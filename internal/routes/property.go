package routes

import (
	"github.com/labstack/echo/v4"

	"property-system/internal/controllers"
)

func runPropertyRouter(secureGroup *echo.Group, ctrl *controllers.PropertyController) {
	{
		secureGroup.GET("/properties", ctrl.GetProperties)
		secureGroup.POST("/properties", ctrl.CreateProperty)
		secureGroup.GET("/properties/:id", ctrl.FindProperty)
		secureGroup.PATCH("/properties/:id", ctrl.UpdateProperty)
	}
}
