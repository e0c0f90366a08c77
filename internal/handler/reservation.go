package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/service"
)

// Booking is implemented by service.BookingService.
type Booking interface {
	Create(ctx context.Context, actor *model.Actor, req service.ReservationRequest) (model.Reservation, error)
	Get(ctx context.Context, actor *model.Actor, id uint64) (model.Reservation, error)
	UpdateStatus(ctx context.Context, actor *model.Actor, id uint64, status model.ReservationStatus) (model.Reservation, error)
	Cancel(ctx context.Context, actor *model.Actor, id uint64) (model.Reservation, error)
	List(ctx context.Context, actor *model.Actor) ([]model.Reservation, error)
	Schedule(ctx context.Context, actor *model.Actor, area string, date model.Date) ([]model.Interval, error)
}

type ReservationHandler struct {
	Booking Booking
}

func NewReservationHandler(b Booking) *ReservationHandler { return &ReservationHandler{Booking: b} }

type createReservationReq struct {
	Area       string          `json:"area" validate:"required"`
	Date       model.Date      `json:"date"`
	Start      model.TimeOfDay `json:"start"`
	End        model.TimeOfDay `json:"end"`
	Notes      string          `json:"notes" validate:"max=500"`
	ResidentID *uint64         `json:"resident_id"`
	Status     *string         `json:"status"`
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

// Create books an amenity slot.  Administrators may book for a resident
// and choose the initial status.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	in := service.ReservationRequest{
		Area:       req.Area,
		Date:       req.Date,
		Start:      req.Start,
		End:        req.End,
		Notes:      req.Notes,
		ResidentID: req.ResidentID,
	}
	if req.Status != nil {
		st := model.ReservationStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		in.Status = &st
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Booking.Create(ctx, actor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *ReservationHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Booking.List(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Booking.Get(ctx, actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// UpdateStatus sets the status of a reservation.  Administrators only.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req statusReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Booking.UpdateStatus(ctx, actor(c), id, model.ReservationStatus(strings.ToUpper(strings.TrimSpace(req.Status))))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Booking.Cancel(ctx, actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Schedule lists the busy ranges of an amenity on ?date=YYYY-MM-DD.
func (h *ReservationHandler) Schedule(c echo.Context) error {
	date, err := model.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "date"})
	}
	area := c.Param("area")
	ctx, cancel := withTimeout(c)
	defer cancel()

	busy, err := h.Booking.Schedule(ctx, actor(c), area, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"area": area, "date": date, "busy": busy})
}
