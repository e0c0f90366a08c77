package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/policy"
	"github.com/iliyamo/condo-manager/internal/repository"
	"github.com/iliyamo/condo-manager/internal/service"
	"github.com/iliyamo/condo-manager/internal/utils"
)

// respondError maps a service or store error onto the HTTP response.
// Anything unrecognised is logged and reported as a 500 without detail.
func respondError(c echo.Context, err error) error {
	var (
		verr     *service.ValidationError
		conflict *service.SchedulingConflictError
		dup      *repository.UniqueViolationError
	)
	switch {
	case errors.As(err, &verr):
		body := echo.Map{"error": verr.Error()}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, policy.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "scheduling conflict",
			"conflict": echo.Map{
				"reservation_id": conflict.ConflictingID,
				"area":           conflict.Area,
				"date":           conflict.Date,
				"start":          conflict.Start,
				"end":            conflict.End,
			},
		})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.As(err, &dup):
		return c.JSON(http.StatusConflict, echo.Map{"error": dup.Error(), "field": dup.Field})
	case errors.Is(err, service.ErrUnitHasResidents):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "record is still referenced"})
	}
	utils.Logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
