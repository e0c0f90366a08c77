// Package repository is the MySQL record store.  Every repository works
// both inside and outside a transaction: statements run on the *sql.Tx
// carried by the context (see database.TxManager) or on the pool.
//
// Driver failures are translated into the sentinels below so higher
// layers never inspect MySQL error numbers themselves.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a referenced row does not exist.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete or update cannot be performed
// because other rows still reference the target.  Handlers translate it
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// UniqueViolationError reports a write rejected by a unique key.  Field
// names the logical column ("number", "tax_id", "login", "email").
type UniqueViolationError struct {
	Field string
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

const (
	errDuplicateEntry  = 1062
	errRowIsReferenced = 1451 // parent row delete/update blocked by FK
	errNoReferencedRow = 1452 // child insert/update points at missing parent
)

// uniqueKeyFields maps unique index names onto the field reported to
// clients.
var uniqueKeyFields = map[string]string{
	"uq_units_number":        "number",
	"uq_residents_tax_id":    "tax_id",
	"uq_accounts_login":      "login",
	"uq_accounts_email":      "email",
	"uq_accounts_resident":   "resident_id",
	"uq_notification_reads":  "receipt",
	"uq_refresh_tokens_hash": "token_hash",
}

// mapError translates driver errors into repository errors.  sql.ErrNoRows
// becomes ErrNotFound; MySQL duplicate-key and foreign-key failures become
// *UniqueViolationError, ErrConflict or ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDuplicateEntry:
			return &UniqueViolationError{Field: duplicateField(me.Message)}
		case errRowIsReferenced:
			return fmt.Errorf("%w: %s", ErrConflict, me.Message)
		case errNoReferencedRow:
			return fmt.Errorf("%w: %s", ErrNotFound, me.Message)
		}
	}
	return err
}

// IsDuplicate reports whether err is a unique-key violation.
func IsDuplicate(err error) bool {
	var uv *UniqueViolationError
	if errors.As(err, &uv) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

// duplicateField extracts the index name from a 1062 message such as
// "Duplicate entry 'A-101' for key 'units.uq_units_number'".
func duplicateField(msg string) string {
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return "unknown"
	}
	key := strings.TrimSuffix(msg[i+len("for key '"):], "'")
	if dot := strings.LastIndexByte(key, '.'); dot >= 0 {
		key = key[dot+1:]
	}
	if f, ok := uniqueKeyFields[key]; ok {
		return f
	}
	return key
}

// affected converts a zero-row UPDATE/DELETE into ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// insertID returns the auto-increment id of an INSERT.
func insertID(res sql.Result, err error) (uint64, error) {
	if err != nil {
		return 0, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
