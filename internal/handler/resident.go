package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/model"
)

type residentReq struct {
	Name   string `json:"name" validate:"required,max=120"`
	TaxID  string `json:"tax_id" validate:"required,max=20"`
	Phone  string `json:"phone" validate:"required,max=30"`
	Email  string `json:"email" validate:"required,email"`
	Kind   string `json:"kind" validate:"required"`
	UnitID uint64 `json:"unit_id" validate:"required"`
}

func (r residentReq) resident(id uint64) model.Resident {
	return model.Resident{
		ID:     id,
		Name:   r.Name,
		TaxID:  r.TaxID,
		Phone:  r.Phone,
		Email:  r.Email,
		Kind:   model.ResidentKind(r.Kind),
		UnitID: r.UnitID,
	}
}

// ListResidents accepts ?unit_id= to narrow the list for administrators.
func (h *RecordHandler) ListResidents(c echo.Context) error {
	unitID, ok, err := optionalID(c, "unit_id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Records.ListResidents(ctx, actor(c), unitID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *RecordHandler) GetResident(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	r, err := h.Records.GetResident(ctx, actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RecordHandler) CreateResident(c echo.Context) error {
	var req residentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	r, err := h.Records.CreateResident(ctx, actor(c), req.resident(0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *RecordHandler) UpdateResident(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req residentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	r, err := h.Records.UpdateResident(ctx, actor(c), req.resident(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RecordHandler) DeleteResident(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Records.DeleteResident(ctx, actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
