package middleware

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/model"
)

// actorKey is where JWTAuth stores the resolved *model.Actor.
const actorKey = "actor"

// ActorResolver loads the current state of an account for a token
// subject.  repository.AccountRepo implements it.
type ActorResolver interface {
	ResolveActor(ctx context.Context, accountID uint64) (*model.Actor, error)
}

// SetActor stores the actor on the request context.
func SetActor(c echo.Context, a *model.Actor) { c.Set(actorKey, a) }

// ActorFrom returns the actor JWTAuth resolved, or nil on public routes.
func ActorFrom(c echo.Context) *model.Actor {
	a, _ := c.Get(actorKey).(*model.Actor)
	return a
}

// userID identifies the caller for rate-limit and cache keys.  It returns
// "anon" when no account is attached.
func userID(c echo.Context) string {
	if a := ActorFrom(c); a != nil {
		return strconv.FormatUint(a.AccountID, 10)
	}
	return "anon"
}
