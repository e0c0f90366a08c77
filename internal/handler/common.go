package handler

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/middleware"
	"github.com/iliyamo/condo-manager/internal/model"
)

// requestTimeout bounds every store round trip a handler starts.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func actor(c echo.Context) *model.Actor { return middleware.ActorFrom(c) }

// pathID parses a positive numeric path parameter.  On failure it has
// already written the 400 response and returns false.
func pathID(c echo.Context, name string) (uint64, bool, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
	}
	return id, true, nil
}

// optionalID parses an optional positive numeric query parameter.
func optionalID(c echo.Context, name string) (*uint64, bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, true, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
	}
	return &id, true, nil
}

// jsonFieldName reports struct fields by their JSON name in validation
// errors.
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}
