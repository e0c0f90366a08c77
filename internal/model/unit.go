package model

import "time"

// Unit represents an apartment or house in the condominium.  A unit
// owns zero or more residents and cannot be deleted while any resident
// still references it.  This struct corresponds to a row in the
// `units` table.
//
// Fields:
//
//	ID          – primary key identifier.
//	Number      – unique unit number (e.g. "101").
//	Block       – building block or tower.
//	Type        – free-form type such as apartment or house.
//	GarageSlots – number of parking slots assigned to the unit.
//	CreatedAt   – timestamp when the unit was registered.
type Unit struct {
	ID          uint64    `json:"id"`           // units.id
	Number      string    `json:"number"`       // units.number (unique)
	Block       string    `json:"block"`        // units.block
	Type        string    `json:"type"`         // units.type
	GarageSlots int       `json:"garage_slots"` // units.garage_slots
	CreatedAt   time.Time `json:"created_at"`   // units.created_at
}

// ResidentKind tags how a resident relates to the unit.
type ResidentKind string

const (
	ResidentOwner  ResidentKind = "OWNER"
	ResidentTenant ResidentKind = "TENANT"
)

// Valid reports whether k is a known resident kind.
func (k ResidentKind) Valid() bool { return k == ResidentOwner || k == ResidentTenant }

// Resident is a person living in a unit.  Each resident belongs to
// exactly one unit and may own at most one account.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – full name.
//	TaxID     – unique national tax identifier.
//	Phone     – contact phone.
//	Email     – contact email.
//	Kind      – OWNER or TENANT.
//	UnitID    – unit the resident lives in.
//	CreatedAt – registration timestamp.
type Resident struct {
	ID        uint64       `json:"id"`         // residents.id
	Name      string       `json:"name"`       // residents.name
	TaxID     string       `json:"tax_id"`     // residents.tax_id (unique)
	Phone     string       `json:"phone"`      // residents.phone
	Email     string       `json:"email"`      // residents.email
	Kind      ResidentKind `json:"kind"`       // residents.kind
	UnitID    uint64       `json:"unit_id"`    // residents.unit_id
	CreatedAt time.Time    `json:"created_at"` // residents.created_at
}
