package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/condo-manager/internal/model"
)

// StaffRepo persists condominium employees.
type StaffRepo struct{ db *sql.DB }

func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{db: db} }

const staffColumns = `id, name, position, phone, shift, active, created_at`

func scanStaff(s rowScanner) (model.Staff, error) {
	var st model.Staff
	err := s.Scan(&st.ID, &st.Name, &st.Position, &st.Phone, &st.Shift, &st.Active, &st.CreatedAt)
	return st, mapError(err)
}

func (r *StaffRepo) List(ctx context.Context) ([]model.Staff, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT `+staffColumns+` FROM staff ORDER BY active DESC, name`)
	return collect(rows, err, scanStaff)
}

func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (model.Staff, error) {
	return scanStaff(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE id = ?`, id))
}

func (r *StaffRepo) Create(ctx context.Context, st *model.Staff) error {
	id, err := insertID(querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO staff (name, position, phone, shift, active) VALUES (?, ?, ?, ?, ?)`,
		st.Name, st.Position, st.Phone, st.Shift, st.Active))
	if err != nil {
		return err
	}
	st.ID = id
	return nil
}

func (r *StaffRepo) Update(ctx context.Context, st model.Staff) error {
	return affected(querier(ctx, r.db).ExecContext(ctx,
		`UPDATE staff SET name = ?, position = ?, phone = ?, shift = ?, active = ? WHERE id = ?`,
		st.Name, st.Position, st.Phone, st.Shift, st.Active, st.ID))
}

func (r *StaffRepo) Delete(ctx context.Context, id uint64) error {
	return affected(querier(ctx, r.db).ExecContext(ctx, `DELETE FROM staff WHERE id = ?`, id))
}
