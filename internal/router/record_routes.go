package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/handler"
	"github.com/iliyamo/condo-manager/internal/middleware"
	"github.com/iliyamo/condo-manager/internal/model"
)

// RegisterRecords mounts unit, resident, account, visitor, fine and staff
// management.  Reads are open to residents (scoped to their own records by
// the service); writes other than visitors are administrator-only.
// unitCache wraps the unit listing, the most frequently read record, and
// unitEvict empties it after every unit or resident write.
func RegisterRecords(e *echo.Echo, h *handler.RecordHandler, auth, unitCache, unitEvict echo.MiddlewareFunc) {
	adminOnly := middleware.RequireRole(model.RoleAdministrator)
	g := e.Group("/v1", auth)

	g.GET("/units", h.ListUnits, unitCache)
	g.GET("/units/:id", h.GetUnit)
	g.POST("/units", h.CreateUnit, adminOnly, unitEvict)
	g.PUT("/units/:id", h.UpdateUnit, adminOnly, unitEvict)
	g.DELETE("/units/:id", h.DeleteUnit, adminOnly, unitEvict)

	g.GET("/residents", h.ListResidents)
	g.GET("/residents/:id", h.GetResident)
	g.POST("/residents", h.CreateResident, adminOnly, unitEvict)
	g.PUT("/residents/:id", h.UpdateResident, adminOnly, unitEvict)
	g.DELETE("/residents/:id", h.DeleteResident, adminOnly, unitEvict)

	accounts := g.Group("/accounts", adminOnly)
	accounts.GET("", h.ListAccounts)
	accounts.POST("", h.CreateAccount)
	accounts.PATCH("/:id/active", h.SetAccountActive)

	g.GET("/visitors", h.ListVisitors)
	g.POST("/visitors", h.RegisterVisitor)
	g.POST("/visitors/:id/departure", h.MarkVisitorDeparted)
	g.DELETE("/visitors/:id", h.DeleteVisitor)

	g.GET("/fines", h.ListFines)
	g.GET("/fines/:id", h.GetFine)
	g.POST("/fines", h.IssueFine, adminOnly)
	g.PATCH("/fines/:id/paid", h.SetFinePaid, adminOnly)
	g.DELETE("/fines/:id", h.DeleteFine, adminOnly)

	staff := g.Group("/staff", adminOnly)
	staff.GET("", h.ListStaff)
	staff.GET("/:id", h.GetStaff)
	staff.POST("", h.CreateStaff)
	staff.PUT("/:id", h.UpdateStaff)
	staff.DELETE("/:id", h.DeleteStaff)
}
