package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs validator/v10 into echo so handlers can call
// c.Validate on their request DTOs.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error { return rv.v.Struct(i) }

// bind decodes and validates the request body into dst.  On failure it has
// already written the 400 response and returns false.
func bind(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return false, c.JSON(http.StatusBadRequest, echo.Map{
				"error": fe.Field() + " failed " + fe.Tag() + " validation",
				"field": fe.Field(),
			})
		}
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return true, nil
}
