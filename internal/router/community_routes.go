package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/handler"
	"github.com/iliyamo/condo-manager/internal/middleware"
	"github.com/iliyamo/condo-manager/internal/model"
)

// RegisterCommunity mounts the endpoints every signed-in account uses:
// amenity bookings, notifications and direct messages.  Ownership is
// decided in the services; only status changes and publishing are gated
// by role here.
func RegisterCommunity(e *echo.Echo, r *handler.ReservationHandler, n *handler.NotificationHandler, m *handler.MessageHandler, auth echo.MiddlewareFunc) {
	adminOnly := middleware.RequireRole(model.RoleAdministrator)
	g := e.Group("/v1", auth)

	g.GET("/reservations", r.List)
	g.POST("/reservations", r.Create)
	g.GET("/reservations/:id", r.Get)
	g.PATCH("/reservations/:id/status", r.UpdateStatus, adminOnly)
	g.POST("/reservations/:id/cancel", r.Cancel)
	g.GET("/amenities/:area/schedule", r.Schedule)

	g.GET("/notifications", n.List)
	g.POST("/notifications", n.Publish, adminOnly)
	g.GET("/notifications/unread-count", n.UnreadCount)
	g.DELETE("/notifications/:id", n.Delete, adminOnly)

	g.GET("/messages/conversations", m.Conversations)
	g.GET("/messages/contacts", m.Contacts)
	g.GET("/messages/threads/:peer", m.Thread)
	g.POST("/messages/threads/:peer", m.Send)
}
