package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/condo-manager/internal/model"
)

// VisitorRepo persists the gate log of visitors.
type VisitorRepo struct{ db *sql.DB }

func NewVisitorRepo(db *sql.DB) *VisitorRepo { return &VisitorRepo{db: db} }

const visitorColumns = `id, unit_id, name, document, arrived_at, departed_at, notes, registered_by`

func scanVisitor(s rowScanner) (model.Visitor, error) {
	var (
		v    model.Visitor
		left sql.NullTime
	)
	err := s.Scan(&v.ID, &v.UnitID, &v.Name, &v.Document, &v.ArrivedAt, &left, &v.Notes, &v.RegisteredBy)
	v.DepartedAt = timePtr(left)
	return v, mapError(err)
}

// List returns visits newest arrival first, optionally for one unit.
func (r *VisitorRepo) List(ctx context.Context, unitID *uint64) ([]model.Visitor, error) {
	q := `SELECT ` + visitorColumns + ` FROM visitors`
	var args []any
	if unitID != nil {
		q += ` WHERE unit_id = ?`
		args = append(args, *unitID)
	}
	q += ` ORDER BY arrived_at DESC, id DESC`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, args...)
	return collect(rows, err, scanVisitor)
}

func (r *VisitorRepo) GetByID(ctx context.Context, id uint64) (model.Visitor, error) {
	return scanVisitor(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+visitorColumns+` FROM visitors WHERE id = ?`, id))
}

// Create inserts v.  An unknown unit yields ErrNotFound.
func (r *VisitorRepo) Create(ctx context.Context, v *model.Visitor) error {
	id, err := insertID(querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO visitors (unit_id, name, document, arrived_at, notes, registered_by) VALUES (?, ?, ?, ?, ?, ?)`,
		v.UnitID, v.Name, v.Document, v.ArrivedAt, v.Notes, v.RegisteredBy))
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

// MarkDeparted stamps departed_at unless it is already set.
func (r *VisitorRepo) MarkDeparted(ctx context.Context, id uint64, at time.Time) error {
	return affected(querier(ctx, r.db).ExecContext(ctx,
		`UPDATE visitors SET departed_at = COALESCE(departed_at, ?) WHERE id = ?`, at, id))
}

func (r *VisitorRepo) Delete(ctx context.Context, id uint64) error {
	return affected(querier(ctx, r.db).ExecContext(ctx, `DELETE FROM visitors WHERE id = ?`, id))
}
