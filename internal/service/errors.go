package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/condo-manager/internal/model"
)

// ValidationError reports a malformed or missing input.  No state was
// changed.  Handlers translate it into an HTTP 400 response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

var (
	// ErrInvalidInterval is returned when a reservation does not end
	// strictly after it starts.
	ErrInvalidInterval = &ValidationError{Field: "end", Message: "must be after start"}

	// ErrEmptyBody is returned when a message body is blank.
	ErrEmptyBody = &ValidationError{Field: "body", Message: "must not be empty"}

	// ErrUnitHasResidents is returned when deleting a unit that residents
	// still reference.
	ErrUnitHasResidents = errors.New("unit still has residents")
)

// SchedulingConflictError reports that the requested range overlaps an
// active reservation of the same amenity on the same day.
type SchedulingConflictError struct {
	Area          string
	Date          model.Date
	Start         model.TimeOfDay
	End           model.TimeOfDay
	ConflictingID uint64
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("%s is already booked on %s between %s and %s (reservation %d)",
		e.Area, e.Date, e.Start, e.End, e.ConflictingID)
}
