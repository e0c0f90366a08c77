package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/policy"
	"github.com/iliyamo/condo-manager/internal/queue"
	"github.com/iliyamo/condo-manager/internal/repository"
)

// BookingService is the amenity booking engine.  It guarantees that no two
// active reservations of the same area and day overlap, by running the
// conflict scan and the insert in one transaction serialized on the
// (area, date) lock row.
type BookingService struct {
	tx           TxRunner
	reservations ReservationStore
	residents    ResidentStore
	events       queue.EventPublisher
}

func NewBookingService(tx TxRunner, reservations ReservationStore, residents ResidentStore, events queue.EventPublisher) *BookingService {
	return &BookingService{tx: tx, reservations: reservations, residents: residents, events: events}
}

// ReservationRequest carries the inputs of Create.  ResidentID and Status
// are honoured only for administrators; residents always book for
// themselves with status PENDING.
type ReservationRequest struct {
	Area       string
	Date       model.Date
	Start      model.TimeOfDay
	End        model.TimeOfDay
	Notes      string
	ResidentID *uint64
	Status     *model.ReservationStatus
}

// Create books an amenity.  The interval is checked before anything else,
// so an inverted range fails with ErrInvalidInterval whoever asks.  An
// overlap with an active reservation fails with *SchedulingConflictError.
func (s *BookingService) Create(ctx context.Context, actor *model.Actor, req ReservationRequest) (model.Reservation, error) {
	if req.End <= req.Start {
		return model.Reservation{}, ErrInvalidInterval
	}
	if err := policy.Authorize(actor, policy.ActionCreateReservation, nil); err != nil {
		return model.Reservation{}, err
	}
	area := strings.TrimSpace(req.Area)
	if area == "" {
		return model.Reservation{}, invalid("area", "is required")
	}
	if req.Date.IsZero() {
		return model.Reservation{}, invalid("date", "is required")
	}

	res := model.Reservation{
		Area:   area,
		Date:   req.Date,
		Start:  req.Start,
		End:    req.End,
		Status: model.StatusPending,
		Notes:  strings.TrimSpace(req.Notes),
	}
	if actor.IsAdmin() {
		if req.ResidentID == nil {
			return model.Reservation{}, invalid("resident_id", "is required when booking on behalf of a resident")
		}
		res.ResidentID = *req.ResidentID
		if req.Status != nil {
			if !req.Status.Valid() {
				return model.Reservation{}, invalid("status", "unknown status")
			}
			res.Status = *req.Status
		}
	} else {
		if actor.ResidentID == nil {
			return model.Reservation{}, fmt.Errorf("%w: account has no resident", policy.ErrPermissionDenied)
		}
		res.ResidentID = *actor.ResidentID
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// The slot lock is the first statement of the transaction so every
		// later read runs after any competing booking has committed.
		// Inactive statuses never occupy the slot and need neither.
		active := res.Status.Active()
		if active {
			if err := s.reservations.LockSlot(ctx, res.Area, res.Date); err != nil {
				return err
			}
		}
		if actor.IsAdmin() {
			ok, err := s.residents.Exists(ctx, res.ResidentID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("resident %d: %w", res.ResidentID, repository.ErrNotFound)
			}
		}
		if active {
			clash, err := s.reservations.FindOverlapping(ctx, res.Area, res.Date, res.Start, res.End)
			if err != nil {
				return err
			}
			if clash != nil {
				return &SchedulingConflictError{
					Area:          clash.Area,
					Date:          clash.Date,
					Start:         clash.Start,
					End:           clash.End,
					ConflictingID: clash.ID,
				}
			}
		}
		return s.reservations.Create(ctx, &res)
	})
	if err != nil {
		return model.Reservation{}, err
	}
	queue.Emit(ctx, s.events, queue.EventReservationCreated, actor.AccountID, queue.NewReservationEvent(res, ""))
	return res, nil
}

// Get returns one reservation the actor may see.
func (s *BookingService) Get(ctx context.Context, actor *model.Actor, id uint64) (model.Reservation, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Reservation{}, err
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := policy.Authorize(actor, policy.ActionViewReservation, policy.ReservationTarget(res)); err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

// UpdateStatus sets any valid status.  Administrators only.  The conflict
// scan is deliberately not re-run: approving two overlapping pending
// requests is left to the administrator's judgement.
func (s *BookingService) UpdateStatus(ctx context.Context, actor *model.Actor, id uint64, status model.ReservationStatus) (model.Reservation, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Reservation{}, err
	}
	if !status.Valid() {
		return model.Reservation{}, invalid("status", "unknown status")
	}
	var (
		res      model.Reservation
		previous model.ReservationStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if res, err = s.reservations.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionSetReservationStatus, policy.ReservationTarget(res)); err != nil {
			return err
		}
		previous = res.Status
		if previous == status {
			return nil
		}
		if err := s.reservations.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		res.Status = status
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	if previous != status {
		queue.Emit(ctx, s.events, queue.EventReservationStatusChanged, actor.AccountID, queue.NewReservationEvent(res, previous))
	}
	return res, nil
}

// Cancel moves a reservation to CANCELLED.  The owner or an administrator
// may cancel; cancelling twice succeeds without change.
func (s *BookingService) Cancel(ctx context.Context, actor *model.Actor, id uint64) (model.Reservation, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Reservation{}, err
	}
	var (
		res      model.Reservation
		previous model.ReservationStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if res, err = s.reservations.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionCancelReservation, policy.ReservationTarget(res)); err != nil {
			return err
		}
		previous = res.Status
		if previous == model.StatusCancelled {
			return nil
		}
		if err := s.reservations.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
			return err
		}
		res.Status = model.StatusCancelled
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	if previous != model.StatusCancelled {
		queue.Emit(ctx, s.events, queue.EventReservationStatusChanged, actor.AccountID, queue.NewReservationEvent(res, previous))
	}
	return res, nil
}

// List returns every reservation for administrators and the actor's own
// for residents, newest day first and by start time within a day.
func (s *BookingService) List(ctx context.Context, actor *model.Actor) ([]model.Reservation, error) {
	scope, err := policy.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	if scope.All {
		return s.reservations.List(ctx, nil)
	}
	return s.reservations.List(ctx, &scope.ResidentID)
}

// Schedule returns the busy ranges of an amenity on one day.  Any signed-in
// account may look; no resident details are exposed.
func (s *BookingService) Schedule(ctx context.Context, actor *model.Actor, area string, date model.Date) ([]model.Interval, error) {
	if err := policy.Authenticated(actor); err != nil {
		return nil, err
	}
	area = strings.TrimSpace(area)
	if area == "" {
		return nil, invalid("area", "is required")
	}
	if date.IsZero() {
		return nil, invalid("date", "is required")
	}
	return s.reservations.BusyIntervals(ctx, area, date)
}
