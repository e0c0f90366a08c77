package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/service"
)

type visitorReq struct {
	UnitID   *uint64 `json:"unit_id"`
	Name     string  `json:"name" validate:"required,max=120"`
	Document string  `json:"document" validate:"max=40"`
	Notes    string  `json:"notes" validate:"max=500"`
}

func (h *RecordHandler) ListVisitors(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Records.ListVisitors(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *RecordHandler) RegisterVisitor(c echo.Context) error {
	var req visitorReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	v, err := h.Records.RegisterVisitor(ctx, actor(c), service.VisitorInput{
		UnitID:   req.UnitID,
		Name:     req.Name,
		Document: req.Document,
		Notes:    req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *RecordHandler) MarkVisitorDeparted(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	v, err := h.Records.MarkVisitorDeparted(ctx, actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *RecordHandler) DeleteVisitor(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Records.DeleteVisitor(ctx, actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
