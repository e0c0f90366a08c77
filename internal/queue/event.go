// Package queue defines the domain events exchanged over the message
// broker, the publisher the API uses after each committed change and the
// consumer behind the activity log.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/condo-manager/internal/model"
)

// EventType doubles as the routing key on the topic exchange.
type EventType string

const (
	EventReservationCreated       EventType = "reservation.created"
	EventReservationStatusChanged EventType = "reservation.status_changed"
	EventNotificationPublished    EventType = "notification.published"
	EventMessageSent              EventType = "message.sent"
)

// Event is the envelope published for every domain change.  Data holds
// one of the payload types below, encoded as JSON.
type Event struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	ActorID    uint64          `json:"actor_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id.
func NewEvent(typ EventType, actorID uint64, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// ReservationEvent is the payload of reservation.* events.
// PreviousStatus is empty for reservation.created.
type ReservationEvent struct {
	ReservationID  uint64                  `json:"reservation_id"`
	ResidentID     uint64                  `json:"resident_id"`
	Area           string                  `json:"area"`
	Date           model.Date              `json:"date"`
	Start          model.TimeOfDay         `json:"start"`
	End            model.TimeOfDay         `json:"end"`
	Status         model.ReservationStatus `json:"status"`
	PreviousStatus model.ReservationStatus `json:"previous_status,omitempty"`
}

// NewReservationEvent builds the payload for r.
func NewReservationEvent(r model.Reservation, previous model.ReservationStatus) ReservationEvent {
	return ReservationEvent{
		ReservationID:  r.ID,
		ResidentID:     r.ResidentID,
		Area:           r.Area,
		Date:           r.Date,
		Start:          r.Start,
		End:            r.End,
		Status:         r.Status,
		PreviousStatus: previous,
	}
}

// NotificationEvent is the payload of notification.published.
type NotificationEvent struct {
	NotificationID   uint64  `json:"notification_id"`
	Title            string  `json:"title"`
	TargetResidentID *uint64 `json:"target_resident_id,omitempty"`
	AuthorID         uint64  `json:"author_id"`
}

// MessageEvent is the payload of message.sent.  The body is left out so
// message contents never reach the broker.
type MessageEvent struct {
	MessageID   uint64 `json:"message_id"`
	SenderID    uint64 `json:"sender_id"`
	RecipientID uint64 `json:"recipient_id"`
}
