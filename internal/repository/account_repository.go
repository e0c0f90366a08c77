package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/condo-manager/internal/model"
)

// AccountRepo persists rows of the `accounts` table.
type AccountRepo struct{ db *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `a.id, a.login, a.email, a.password_hash, a.role, a.active, a.resident_id, a.created_at`

func scanAccount(s rowScanner) (model.Account, error) {
	var (
		a   model.Account
		rid sql.NullInt64
	)
	err := s.Scan(&a.ID, &a.Login, &a.Email, &a.PasswordHash, &a.Role, &a.Active, &rid, &a.CreatedAt)
	a.ResidentID = idPtr(rid)
	return a, mapError(err)
}

func scanSummary(s rowScanner) (model.AccountSummary, error) {
	var a model.AccountSummary
	err := s.Scan(&a.ID, &a.Login, &a.Role, &a.Active)
	return a, mapError(err)
}

// Create inserts a and fills in its id.  Login and email are normalized to
// lower case.  A taken login or email yields *UniqueViolationError.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	a.Login = normalizeLogin(a.Login)
	a.Email = normalizeLogin(a.Email)
	id, err := insertID(querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO accounts (login, email, password_hash, role, active, resident_id) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Login, a.Email, a.PasswordHash, a.Role, a.Active, nullableID(a.ResidentID)))
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	return scanAccount(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.id = ?`, id))
}

// GetByLogin fetches an account whose login or email equals the
// normalized identifier.
func (r *AccountRepo) GetByLogin(ctx context.Context, login string) (model.Account, error) {
	login = normalizeLogin(login)
	return scanAccount(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.login = ? OR a.email = ? LIMIT 1`, login, login))
}

// GetSummary returns the public projection of an account.
func (r *AccountRepo) GetSummary(ctx context.Context, id uint64) (model.AccountSummary, error) {
	return scanSummary(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, login, role, active FROM accounts WHERE id = ?`, id))
}

// ResolveActor loads the account together with the unit of its linked
// resident, the two keys ownership checks need.
func (r *AccountRepo) ResolveActor(ctx context.Context, id uint64) (*model.Actor, error) {
	var (
		a      model.Account
		rid    sql.NullInt64
		unitID sql.NullInt64
	)
	err := querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT a.id, a.login, a.role, a.active, a.resident_id, res.unit_id
		   FROM accounts a
		   LEFT JOIN residents res ON res.id = a.resident_id
		  WHERE a.id = ?`, id).Scan(&a.ID, &a.Login, &a.Role, &a.Active, &rid, &unitID)
	if err != nil {
		return nil, mapError(err)
	}
	a.ResidentID = idPtr(rid)
	return model.NewActor(a, idPtr(unitID)), nil
}

// List returns every account ordered by login.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts a ORDER BY a.login`)
	return collect(rows, err, scanAccount)
}

// ListSummaries returns the public projection of accounts, optionally
// restricted to active ones and to a role.
func (r *AccountRepo) ListSummaries(ctx context.Context, activeOnly bool, role *model.Role) ([]model.AccountSummary, error) {
	q := `SELECT id, login, role, active FROM accounts WHERE 1 = 1`
	var args []any
	if activeOnly {
		q += ` AND active = 1`
	}
	if role != nil {
		q += ` AND role = ?`
		args = append(args, *role)
	}
	q += ` ORDER BY login`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, args...)
	return collect(rows, err, scanSummary)
}

// GetSummaries returns the projections of the given ids keyed by id.
// Unknown ids are absent from the map.
func (r *AccountRepo) GetSummaries(ctx context.Context, ids []uint64) (map[uint64]model.AccountSummary, error) {
	out := make(map[uint64]model.AccountSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT id, login, role, active FROM accounts WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	list, err := collect(rows, err, scanSummary)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		out[s.ID] = s
	}
	return out, nil
}

// SetActive enables or disables an account.
func (r *AccountRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	return affected(querier(ctx, r.db).ExecContext(ctx,
		`UPDATE accounts SET active = ? WHERE id = ?`, active, id))
}

// SetPassword replaces the stored hash.
func (r *AccountRepo) SetPassword(ctx context.Context, id uint64, hash string) error {
	return affected(querier(ctx, r.db).ExecContext(ctx,
		`UPDATE accounts SET password_hash = ? WHERE id = ?`, hash, id))
}

func normalizeLogin(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
