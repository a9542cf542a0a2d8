package routes

import (
	"github.com/labstack/echo/v4"

	"property-system/internal/controllers"
)

func runTicketRouter(secureGroup *echo.Group, ctrl *controllers.TicketController) {
	{
		secureGroup.GET("/tickets", ctrl.GetTickets)
		secureGroup.POST("/tickets", ctrl.CreateTicket)
		secureGroup.GET("/tickets/:id", ctrl.FindTicket)
		secureGroup.PATCH("/tickets/:id", ctrl.UpdateTicket)

		// transiciones del ciclo de vida
		secureGroup.POST("/tickets/:id/assign", ctrl.AssignTicket)
		secureGroup.POST("/tickets/:id/accept", ctrl.AcceptTicket)
		secureGroup.POST("/tickets/:id/reject", ctrl.RejectAssignment)
		secureGroup.POST("/tickets/:id/complete", ctrl.CompleteTicket)
		secureGroup.POST("/tickets/:id/approve", ctrl.ApproveTicket)
		secureGroup.POST("/tickets/:id/force-status", ctrl.ForceStatus)

		// bitácora
		secureGroup.GET("/tickets/:id/timeline", ctrl.GetTimeline)
		secureGroup.POST("/tickets/:id/comments", ctrl.AddComment)
	}
}
