package model

import "time"

// Visitor is a guest registered for a unit.
//
// Fields:
//
//	ID           – primary key identifier.
//	UnitID       – unit being visited.
//	Name         – visitor's name.
//	Document     – identity document shown at the gate.
//	ArrivedAt    – arrival timestamp.
//	DepartedAt   – departure timestamp; nil while still on site.
//	Notes        – free-form notes.
//	RegisteredBy – account that registered the visit.
type Visitor struct {
	ID           uint64     `json:"id"`            // visitors.id
	UnitID       uint64     `json:"unit_id"`       // visitors.unit_id
	Name         string     `json:"name"`          // visitors.name
	Document     string     `json:"document"`      // visitors.document
	ArrivedAt    time.Time  `json:"arrived_at"`    // visitors.arrived_at
	DepartedAt   *time.Time `json:"departed_at"`   // visitors.departed_at (nullable)
	Notes        string     `json:"notes"`         // visitors.notes
	RegisteredBy uint64     `json:"registered_by"` // visitors.registered_by
}

// Fine is a penalty issued against a unit by an administrator.
//
// Fields:
//
//	ID          – primary key identifier.
//	UnitID      – unit being fined.
//	AmountCents – amount in cents; always positive.
//	Reason      – description of the infraction.
//	IssuedAt    – issue timestamp.
//	DueDate     – payment due day.
//	Paid        – whether the fine was settled.
//	IssuedBy    – administrator account that issued it.
type Fine struct {
	ID          uint64    `json:"id"`           // fines.id
	UnitID      uint64    `json:"unit_id"`      // fines.unit_id
	AmountCents uint32    `json:"amount_cents"` // fines.amount_cents
	Reason      string    `json:"reason"`       // fines.reason
	IssuedAt    time.Time `json:"issued_at"`    // fines.issued_at
	DueDate     Date      `json:"due_date"`     // fines.due_date
	Paid        bool      `json:"paid"`         // fines.paid
	IssuedBy    uint64    `json:"issued_by"`    // fines.issued_by
}

// Staff is an employee of the condominium (doorman, cleaner, ...).
type Staff struct {
	ID        uint64    `json:"id"`         // staff.id
	Name      string    `json:"name"`       // staff.name
	Position  string    `json:"position"`   // staff.position
	Phone     string    `json:"phone"`      // staff.phone
	Shift     string    `json:"shift"`      // staff.shift
	Active    bool      `json:"active"`     // staff.active
	CreatedAt time.Time `json:"created_at"` // staff.created_at
}
