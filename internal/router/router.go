package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth mounts login and token refresh under /v1/auth and the
// session endpoints behind auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, auth)

	me := e.Group("/v1/me", auth)
	me.GET("", a.Me)
	me.POST("/password", a.ChangePassword)
}
