package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/repository"
	"github.com/iliyamo/condo-manager/internal/utils"
)

// JWTAuth validates a Bearer access token and resolves its subject to the
// current actor.  The role and active flag come from the store, not the
// token, so deactivating an account takes effect on its next request.
func JWTAuth(secret string, resolver ActorResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			accountID, _, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			actor, err := resolver.ResolveActor(c.Request().Context(), accountID)
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if err != nil {
				utils.Logger.WithError(err).WithField("account_id", accountID).Error("resolve actor failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if !actor.Active {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
			}
			SetActor(c, actor)
			return next(c)
		}
	}
}
