package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/model"
)

type staffReq struct {
	Name     string `json:"name" validate:"required,max=120"`
	Position string `json:"position" validate:"required,max=60"`
	Phone    string `json:"phone" validate:"max=30"`
	Shift    string `json:"shift" validate:"max=30"`
	Active   *bool  `json:"active"`
}

func (r staffReq) staff(id uint64) model.Staff {
	return model.Staff{
		ID:       id,
		Name:     r.Name,
		Position: r.Position,
		Phone:    r.Phone,
		Shift:    r.Shift,
		Active:   r.Active == nil || *r.Active,
	}
}

func (h *RecordHandler) ListStaff(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Records.ListStaff(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *RecordHandler) GetStaff(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	st, err := h.Records.GetStaff(ctx, actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *RecordHandler) CreateStaff(c echo.Context) error {
	var req staffReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	st, err := h.Records.CreateStaff(ctx, actor(c), req.staff(0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *RecordHandler) UpdateStaff(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req staffReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	st, err := h.Records.UpdateStaff(ctx, actor(c), req.staff(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *RecordHandler) DeleteStaff(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Records.DeleteStaff(ctx, actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
