package model

import (
	"strings"
	"time"
)

// ReservationStatus is the lifecycle state of an amenity reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusApproved  ReservationStatus = "APPROVED"
	StatusRejected  ReservationStatus = "REJECTED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// ParseReservationStatus normalizes s and reports whether it names one
// of the four statuses.
func ParseReservationStatus(s string) (ReservationStatus, bool) {
	st := ReservationStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Valid reports whether s is one of the four statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether a reservation in this status occupies its slot.
// Cancelled and rejected reservations never take part in conflict checks.
func (s ReservationStatus) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Reservation records a resident's booking of a shared amenity for a
// time range on one day.  The range is half-open: [Start, End).
// Reservations are never physically deleted; they only move between
// statuses.
//
// Fields:
//
//	ID         – primary key identifier.
//	ResidentID – resident the booking belongs to.
//	Area       – amenity key, free text (e.g. "Pool", "Party Hall").
//	Date       – day of the booking.
//	Start      – inclusive start time.
//	End        – exclusive end time; always after Start.
//	Status     – PENDING, APPROVED, REJECTED or CANCELLED.
//	Notes      – free-form notes from the requester.
//	CreatedAt  – creation timestamp.
type Reservation struct {
	ID         uint64            `json:"id"`          // reservations.id
	ResidentID uint64            `json:"resident_id"` // reservations.resident_id
	Area       string            `json:"area"`        // reservations.area
	Date       Date              `json:"date"`        // reservations.date
	Start      TimeOfDay         `json:"start"`       // reservations.start_time
	End        TimeOfDay         `json:"end"`         // reservations.end_time
	Status     ReservationStatus `json:"status"`      // reservations.status
	Notes      string            `json:"notes"`       // reservations.notes
	CreatedAt  time.Time         `json:"created_at"`  // reservations.created_at
}

// Overlaps reports whether r occupies any instant of [start, end).
// Touching endpoints do not overlap.
func (r Reservation) Overlaps(start, end TimeOfDay) bool {
	return r.Start < end && r.End > start
}

// Interval is a busy range on an amenity's daily schedule.
type Interval struct {
	ReservationID uint64            `json:"reservation_id"`
	Start         TimeOfDay         `json:"start"`
	End           TimeOfDay         `json:"end"`
	Status        ReservationStatus `json:"status"`
}
