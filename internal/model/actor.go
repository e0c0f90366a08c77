package model

// Actor is the authenticated account performing an operation.  A nil
// *Actor means the request is anonymous.  The request layer resolves the
// actor once and passes it explicitly to every core operation.
//
// ResidentID and UnitID are only set for residents; they are the keys
// ownership checks compare against.
type Actor struct {
	AccountID  uint64
	Login      string
	Role       Role
	Active     bool
	ResidentID *uint64
	UnitID     *uint64
}

// NewActor builds an actor from an account and, for residents, the unit
// their resident record belongs to.
func NewActor(a Account, unitID *uint64) *Actor {
	act := &Actor{
		AccountID: a.ID,
		Login:     a.Login,
		Role:      a.Role,
		Active:    a.Active,
	}
	if a.Role == RoleResident {
		act.ResidentID = a.ResidentID
		act.UnitID = unitID
	}
	return act
}

// IsAdmin reports whether the actor is an administrator.  Nil-safe.
func (a *Actor) IsAdmin() bool { return a != nil && a.Role == RoleAdministrator }

// OwnsResident reports whether the actor is the given resident.
func (a *Actor) OwnsResident(residentID uint64) bool {
	return a != nil && a.ResidentID != nil && *a.ResidentID == residentID
}

// OwnsUnit reports whether the actor lives in the given unit.
func (a *Actor) OwnsUnit(unitID uint64) bool {
	return a != nil && a.UnitID != nil && *a.UnitID == unitID
}
