package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/condo-manager/internal/model"
)

// FineRepo persists fines issued against units.
type FineRepo struct{ db *sql.DB }

func NewFineRepo(db *sql.DB) *FineRepo { return &FineRepo{db: db} }

const fineColumns = `id, unit_id, amount_cents, reason, issued_at, due_date, paid, issued_by`

func scanFine(s rowScanner) (model.Fine, error) {
	var f model.Fine
	err := s.Scan(&f.ID, &f.UnitID, &f.AmountCents, &f.Reason, &f.IssuedAt, &f.DueDate, &f.Paid, &f.IssuedBy)
	return f, mapError(err)
}

// List returns fines, unpaid first then by due date, optionally for one
// unit.
func (r *FineRepo) List(ctx context.Context, unitID *uint64) ([]model.Fine, error) {
	q := `SELECT ` + fineColumns + ` FROM fines`
	var args []any
	if unitID != nil {
		q += ` WHERE unit_id = ?`
		args = append(args, *unitID)
	}
	q += ` ORDER BY paid ASC, due_date ASC, id ASC`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, args...)
	return collect(rows, err, scanFine)
}

func (r *FineRepo) GetByID(ctx context.Context, id uint64) (model.Fine, error) {
	return scanFine(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+fineColumns+` FROM fines WHERE id = ?`, id))
}

// Create inserts f and reads back issued_at.
func (r *FineRepo) Create(ctx context.Context, f *model.Fine) error {
	q := querier(ctx, r.db)
	id, err := insertID(q.ExecContext(ctx,
		`INSERT INTO fines (unit_id, amount_cents, reason, due_date, paid, issued_by) VALUES (?, ?, ?, ?, ?, ?)`,
		f.UnitID, f.AmountCents, f.Reason, f.DueDate, f.Paid, f.IssuedBy))
	if err != nil {
		return err
	}
	f.ID = id
	return mapError(q.QueryRowContext(ctx, `SELECT issued_at FROM fines WHERE id = ?`, id).Scan(&f.IssuedAt))
}

// SetPaid flags the fine as settled or outstanding.
func (r *FineRepo) SetPaid(ctx context.Context, id uint64, paid bool) error {
	return affected(querier(ctx, r.db).ExecContext(ctx, `UPDATE fines SET paid = ? WHERE id = ?`, paid, id))
}

func (r *FineRepo) Delete(ctx context.Context, id uint64) error {
	return affected(querier(ctx, r.db).ExecContext(ctx, `DELETE FROM fines WHERE id = ?`, id))
}
