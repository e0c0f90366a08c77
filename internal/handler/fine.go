package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/service"
)

type fineReq struct {
	UnitID      uint64     `json:"unit_id" validate:"required"`
	AmountCents uint32     `json:"amount_cents" validate:"required"`
	Reason      string     `json:"reason" validate:"required,max=255"`
	DueDate     model.Date `json:"due_date"`
}

type paidReq struct {
	Paid *bool `json:"paid" validate:"required"`
}

func (h *RecordHandler) ListFines(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Records.ListFines(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *RecordHandler) GetFine(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	f, err := h.Records.GetFine(ctx, actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *RecordHandler) IssueFine(c echo.Context) error {
	var req fineReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	f, err := h.Records.IssueFine(ctx, actor(c), service.FineInput{
		UnitID:      req.UnitID,
		AmountCents: req.AmountCents,
		Reason:      req.Reason,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *RecordHandler) SetFinePaid(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req paidReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	f, err := h.Records.SetFinePaid(ctx, actor(c), id, *req.Paid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *RecordHandler) DeleteFine(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Records.DeleteFine(ctx, actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
