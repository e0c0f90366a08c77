package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/condo-manager/internal/model"
)

// UnitRepo persists rows of the `units` table.
type UnitRepo struct{ db *sql.DB }

func NewUnitRepo(db *sql.DB) *UnitRepo { return &UnitRepo{db: db} }

const unitColumns = `id, number, block, type, garage_slots, created_at`

func scanUnit(s rowScanner) (model.Unit, error) {
	var u model.Unit
	err := s.Scan(&u.ID, &u.Number, &u.Block, &u.Type, &u.GarageSlots, &u.CreatedAt)
	return u, mapError(err)
}

// List returns every unit ordered by block then number.
func (r *UnitRepo) List(ctx context.Context) ([]model.Unit, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT `+unitColumns+` FROM units ORDER BY block, number`)
	return collect(rows, err, scanUnit)
}

// GetByID returns ErrNotFound when the unit does not exist.
func (r *UnitRepo) GetByID(ctx context.Context, id uint64) (model.Unit, error) {
	return scanUnit(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = ?`, id))
}

// Create inserts u and fills in its id.  A taken number yields
// *UniqueViolationError{Field: "number"}.
func (r *UnitRepo) Create(ctx context.Context, u *model.Unit) error {
	id, err := insertID(querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO units (number, block, type, garage_slots) VALUES (?, ?, ?, ?)`,
		u.Number, u.Block, u.Type, u.GarageSlots))
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// Update overwrites the mutable columns of u.
func (r *UnitRepo) Update(ctx context.Context, u model.Unit) error {
	return affected(querier(ctx, r.db).ExecContext(ctx,
		`UPDATE units SET number = ?, block = ?, type = ?, garage_slots = ? WHERE id = ?`,
		u.Number, u.Block, u.Type, u.GarageSlots, u.ID))
}

// Delete removes the unit.  Rows still referencing it make MySQL refuse
// the delete, reported as ErrConflict.
func (r *UnitRepo) Delete(ctx context.Context, id uint64) error {
	return affected(querier(ctx, r.db).ExecContext(ctx, `DELETE FROM units WHERE id = ?`, id))
}

// HasResidents reports whether any resident lives in the unit.  The row is
// read with a shared lock so a concurrent resident insert cannot slip in
// between the check and a delete in the same transaction.
func (r *UnitRepo) HasResidents(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT 1 FROM residents WHERE unit_id = ? LIMIT 1 LOCK IN SHARE MODE`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
