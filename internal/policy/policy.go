// Package policy is the single place where role and ownership decisions
// are made.  Every function here is pure: it looks only at the actor and
// the target it is given and never touches the store.
package policy

import (
	"errors"
	"fmt"

	"github.com/iliyamo/condo-manager/internal/model"
)

// ErrPermissionDenied is returned when the actor lacks the role or the
// ownership required for an action.  Handlers translate it into an
// HTTP 403 response.
var ErrPermissionDenied = errors.New("permission denied")

// Action names an operation subject to authorization.
type Action uint8

const (
	ActionLogin Action = iota + 1
	ActionViewReservation
	ActionCreateReservation
	ActionCancelReservation
	ActionSetReservationStatus
	ActionViewVisitor
	ActionRegisterVisitor
	ActionUpdateVisitor
	ActionViewFine
	ActionIssueFine
	ActionManageFine
	ActionViewNotification
	ActionPublishNotification
	ActionDeleteNotification
	ActionSendMessage
	ActionViewUnit
	ActionManageUnits
	ActionViewResident
	ActionManageResidents
	ActionManageAccounts
	ActionManageStaff
)

var actionNames = map[Action]string{
	ActionLogin:                "login",
	ActionViewReservation:      "view reservation",
	ActionCreateReservation:    "create reservation",
	ActionCancelReservation:    "cancel reservation",
	ActionSetReservationStatus: "set reservation status",
	ActionViewVisitor:          "view visitor",
	ActionRegisterVisitor:      "register visitor",
	ActionUpdateVisitor:        "update visitor",
	ActionViewFine:             "view fine",
	ActionIssueFine:            "issue fine",
	ActionManageFine:           "manage fine",
	ActionViewNotification:     "view notification",
	ActionPublishNotification:  "publish notification",
	ActionDeleteNotification:   "delete notification",
	ActionSendMessage:          "send message",
	ActionViewUnit:             "view unit",
	ActionManageUnits:          "manage units",
	ActionViewResident:         "view resident",
	ActionManageResidents:      "manage residents",
	ActionManageAccounts:       "manage accounts",
	ActionManageStaff:          "manage staff",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// AdminOnly reports whether only administrators may perform a.
func (a Action) AdminOnly() bool {
	switch a {
	case ActionSetReservationStatus,
		ActionIssueFine, ActionManageFine,
		ActionPublishNotification, ActionDeleteNotification,
		ActionManageUnits, ActionManageResidents, ActionManageAccounts,
		ActionManageStaff:
		return true
	}
	return false
}

// Kind identifies what sort of record a Target describes.
type Kind uint8

const (
	KindReservation Kind = iota + 1
	KindVisitor
	KindNotification
	KindFine
	KindUnit
	KindResident
)

// Target carries the ownership keys of the record an action touches.
// For reservations and residents ResidentID is the owner; for
// notifications it is the target resident (nil for a broadcast); for
// visitors, fines and units UnitID is the owner.
type Target struct {
	Kind       Kind
	ResidentID *uint64
	UnitID     *uint64
}

func ReservationTarget(r model.Reservation) *Target {
	id := r.ResidentID
	return &Target{Kind: KindReservation, ResidentID: &id}
}

func NotificationTarget(n model.Notification) *Target {
	return &Target{Kind: KindNotification, ResidentID: n.TargetResidentID}
}

func VisitorTarget(v model.Visitor) *Target { return UnitTarget(KindVisitor, v.UnitID) }

func FineTarget(f model.Fine) *Target { return UnitTarget(KindFine, f.UnitID) }

func ResidentTarget(r model.Resident) *Target {
	id := r.ID
	return &Target{Kind: KindResident, ResidentID: &id}
}

// UnitTarget describes a unit-owned record by its unit id alone, e.g. a
// visitor about to be registered.
func UnitTarget(kind Kind, unitID uint64) *Target {
	return &Target{Kind: kind, UnitID: &unitID}
}

// Authorize decides whether actor may perform action on target.  Rules,
// in order:
//
//  1. anonymous (or inactive) actors may only log in;
//  2. administrators may do everything;
//  3. residents may never perform administrator-only actions;
//  4. residents may touch a record only when they own it, and may also
//     see broadcast notifications.
//
// A nil target means the action is not about one particular record
// (creating one's own reservation, listing); list operations use Scope
// for the equivalent filter.
func Authorize(actor *model.Actor, action Action, target *Target) error {
	if action == ActionLogin {
		return nil
	}
	if actor == nil || !actor.Active {
		return deny(action)
	}
	switch actor.Role {
	case model.RoleAdministrator:
		return nil
	case model.RoleResident:
	default:
		return deny(action)
	}
	if action.AdminOnly() {
		return deny(action)
	}
	if target == nil || owns(actor, target) {
		return nil
	}
	return deny(action)
}

// Authenticated rejects anonymous and inactive actors.  Operations on a
// stored record call it before loading the record, then Authorize once the
// record is known, so a missing record reads as not found rather than
// forbidden.
func Authenticated(actor *model.Actor) error {
	if actor == nil || !actor.Active {
		return fmt.Errorf("%w: authentication required", ErrPermissionDenied)
	}
	return nil
}

// Allowed is Authorize as a predicate.
func Allowed(actor *model.Actor, action Action, target *Target) bool {
	return Authorize(actor, action, target) == nil
}

func owns(actor *model.Actor, t *Target) bool {
	switch t.Kind {
	case KindReservation, KindResident:
		return t.ResidentID != nil && actor.OwnsResident(*t.ResidentID)
	case KindNotification:
		return t.ResidentID == nil || actor.OwnsResident(*t.ResidentID)
	case KindVisitor, KindFine, KindUnit:
		return t.UnitID != nil && actor.OwnsUnit(*t.UnitID)
	}
	return false
}

func deny(action Action) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, action)
}

// Scope is the row filter a list operation applies for an actor.  When
// All is set no filter applies; otherwise rows must belong to
// ResidentID or UnitID (zero matches nothing).
type Scope struct {
	All        bool
	ResidentID uint64
	UnitID     uint64
}

// ScopeFor returns the list filter for actor.  Anonymous actors get
// ErrPermissionDenied rather than an empty list.
func ScopeFor(actor *model.Actor) (Scope, error) {
	if err := Authenticated(actor); err != nil {
		return Scope{}, err
	}
	if actor.IsAdmin() {
		return Scope{All: true}, nil
	}
	var s Scope
	if actor.ResidentID != nil {
		s.ResidentID = *actor.ResidentID
	}
	if actor.UnitID != nil {
		s.UnitID = *actor.UnitID
	}
	return s, nil
}

// CanMessage reports whether from may send a direct message to to.
// Nobody messages themselves or an inactive account; administrators may
// reach anyone; residents may only reach administrators.
func CanMessage(from, to model.AccountSummary) bool {
	if from.ID == to.ID || !to.Active || !from.Active {
		return false
	}
	if from.Role == model.RoleAdministrator {
		return true
	}
	return to.Role == model.RoleAdministrator
}
