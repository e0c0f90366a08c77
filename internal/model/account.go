package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles.  Every authorization decision
// switches on this type; role names never travel through the code as
// free-form strings.
type Role uint8

const (
	// RoleResident is a person living in a unit.  Resident accounts are
	// always linked to a Resident record.
	RoleResident Role = iota + 1
	// RoleAdministrator manages the condominium.  Administrator accounts
	// never carry a Resident link.
	RoleAdministrator
)

const (
	roleResidentName      = "RESIDENT"
	roleAdministratorName = "ADMIN"
)

// ParseRole maps the stored/serialized name onto a Role.  Matching is
// case-insensitive.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case roleResidentName:
		return RoleResident, nil
	case roleAdministratorName, "ADMINISTRATOR":
		return RoleAdministrator, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool { return r == RoleResident || r == RoleAdministrator }

func (r Role) String() string {
	switch r {
	case RoleResident:
		return roleResidentName
	case RoleAdministrator:
		return roleAdministratorName
	}
	return "UNKNOWN"
}

// Value stores the role by name in accounts.role.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return r.String(), nil
}

// Scan reads accounts.role.
func (r *Role) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Account represents a login as stored in the `accounts` table.
//
// Fields:
//
//	ID           – primary key identifier.
//	Login        – unique login name.
//	Email        – unique contact email.
//	PasswordHash – opaque hash, only ever checked through a verifier.
//	Role         – Administrator or Resident.
//	Active       – inactive accounts cannot log in or receive messages.
//	ResidentID   – linked resident; set iff Role is RoleResident.
//	CreatedAt    – timestamp of creation.
type Account struct {
	ID           uint64    `json:"id"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	ResidentID   *uint64   `json:"resident_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the account holds the administrator role.
func (a Account) IsAdmin() bool { return a.Role == RoleAdministrator }

// AccountSummary is the public projection of an account used as a
// messaging peer.
type AccountSummary struct {
	ID     uint64 `json:"id"`
	Login  string `json:"login"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}

// Summary returns the public projection of a.
func (a Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Login: a.Login, Role: a.Role, Active: a.Active}
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	AccountID uint64     // refresh_tokens.account_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
