package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/model"
)

type unitReq struct {
	Number      string `json:"number" validate:"required,max=20"`
	Block       string `json:"block" validate:"required,max=50"`
	Type        string `json:"type" validate:"required,max=50"`
	GarageSlots int    `json:"garage_slots" validate:"gte=0"`
}

func (r unitReq) unit(id uint64) model.Unit {
	return model.Unit{ID: id, Number: r.Number, Block: r.Block, Type: r.Type, GarageSlots: r.GarageSlots}
}

func (h *RecordHandler) ListUnits(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Records.ListUnits(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *RecordHandler) GetUnit(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Records.GetUnit(ctx, actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *RecordHandler) CreateUnit(c echo.Context) error {
	var req unitReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Records.CreateUnit(ctx, actor(c), req.unit(0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *RecordHandler) UpdateUnit(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req unitReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Records.UpdateUnit(ctx, actor(c), req.unit(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// DeleteUnit answers 409 while residents still live in the unit.
func (h *RecordHandler) DeleteUnit(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Records.DeleteUnit(ctx, actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
