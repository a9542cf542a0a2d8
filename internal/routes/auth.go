package routes

import (
	"github.com/labstack/echo/v4"

	"property-system/internal/controllers"
)

func runAuthRouter(apiGroup *echo.Group, secureGroup *echo.Group, ctrl *controllers.AuthController) {
	apiGroup.POST("/auth/login", ctrl.Login)
	apiGroup.POST("/auth/refresh", ctrl.Refresh)

	secureGroup.POST("/auth/register", ctrl.Register)
	secureGroup.GET("/auth/me", ctrl.Me)
}
