package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/condo-manager/internal/model"
)

// ResidentRepo persists rows of the `residents` table.
type ResidentRepo struct{ db *sql.DB }

func NewResidentRepo(db *sql.DB) *ResidentRepo { return &ResidentRepo{db: db} }

const residentColumns = `id, name, tax_id, phone, email, kind, unit_id, created_at`

func scanResident(s rowScanner) (model.Resident, error) {
	var res model.Resident
	err := s.Scan(&res.ID, &res.Name, &res.TaxID, &res.Phone, &res.Email, &res.Kind, &res.UnitID, &res.CreatedAt)
	return res, mapError(err)
}

// List returns residents ordered by name.  A non-nil unitID restricts the
// result to that unit.
func (r *ResidentRepo) List(ctx context.Context, unitID *uint64) ([]model.Resident, error) {
	q := `SELECT ` + residentColumns + ` FROM residents`
	var args []any
	if unitID != nil {
		q += ` WHERE unit_id = ?`
		args = append(args, *unitID)
	}
	q += ` ORDER BY name, id`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, args...)
	return collect(rows, err, scanResident)
}

func (r *ResidentRepo) GetByID(ctx context.Context, id uint64) (model.Resident, error) {
	return scanResident(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+residentColumns+` FROM residents WHERE id = ?`, id))
}

// Exists reports whether a resident with id exists.
func (r *ResidentRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := querier(ctx, r.db).QueryRowContext(ctx, `SELECT 1 FROM residents WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Create inserts res.  A unit_id with no unit yields ErrNotFound and a
// reused tax id yields *UniqueViolationError{Field: "tax_id"}.
func (r *ResidentRepo) Create(ctx context.Context, res *model.Resident) error {
	id, err := insertID(querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO residents (name, tax_id, phone, email, kind, unit_id) VALUES (?, ?, ?, ?, ?, ?)`,
		res.Name, res.TaxID, res.Phone, res.Email, res.Kind, res.UnitID))
	if err != nil {
		return err
	}
	res.ID = id
	return nil
}

func (r *ResidentRepo) Update(ctx context.Context, res model.Resident) error {
	return affected(querier(ctx, r.db).ExecContext(ctx,
		`UPDATE residents SET name = ?, tax_id = ?, phone = ?, email = ?, kind = ?, unit_id = ? WHERE id = ?`,
		res.Name, res.TaxID, res.Phone, res.Email, res.Kind, res.UnitID, res.ID))
}

// Delete removes the resident.  Accounts or reservations still pointing at
// it make the delete fail with ErrConflict.
func (r *ResidentRepo) Delete(ctx context.Context, id uint64) error {
	return affected(querier(ctx, r.db).ExecContext(ctx, `DELETE FROM residents WHERE id = ?`, id))
}
