package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/policy"
	"github.com/iliyamo/condo-manager/internal/repository"
)

// RecordService manages the plain records around the core engines:
// units, residents, accounts, visitors, fines and staff.
type RecordService struct {
	tx        TxRunner
	units     UnitStore
	residents ResidentStore
	accounts  AccountStore
	visitors  VisitorStore
	fines     FineStore
	staff     StaffStore
	hash      func(plain string) (string, error)
	now       func() time.Time
}

// RecordStores groups the stores RecordService needs.
type RecordStores struct {
	Units     UnitStore
	Residents ResidentStore
	Accounts  AccountStore
	Visitors  VisitorStore
	Fines     FineStore
	Staff     StaffStore
}

// NewRecordService wires the stores.  hash turns a plaintext password into
// the stored hash.
func NewRecordService(tx TxRunner, stores RecordStores, hash func(string) (string, error)) *RecordService {
	return &RecordService{
		tx:        tx,
		units:     stores.Units,
		residents: stores.Residents,
		accounts:  stores.Accounts,
		visitors:  stores.Visitors,
		fines:     stores.Fines,
		staff:     stores.Staff,
		hash:      hash,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// MinPasswordLen is the shortest password accepted for new accounts.
const MinPasswordLen = 8

// ---- units ----

// ListUnits returns every unit to administrators and only their own unit
// to residents.
func (s *RecordService) ListUnits(ctx context.Context, actor *model.Actor) ([]model.Unit, error) {
	scope, err := policy.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	if scope.All {
		return s.units.List(ctx)
	}
	u, err := s.units.GetByID(ctx, scope.UnitID)
	if errors.Is(err, repository.ErrNotFound) {
		return []model.Unit{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []model.Unit{u}, nil
}

func (s *RecordService) GetUnit(ctx context.Context, actor *model.Actor, id uint64) (model.Unit, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Unit{}, err
	}
	u, err := s.units.GetByID(ctx, id)
	if err != nil {
		return model.Unit{}, err
	}
	if err := policy.Authorize(actor, policy.ActionViewUnit, policy.UnitTarget(policy.KindUnit, u.ID)); err != nil {
		return model.Unit{}, err
	}
	return u, nil
}

func (s *RecordService) CreateUnit(ctx context.Context, actor *model.Actor, u model.Unit) (model.Unit, error) {
	if err := policy.Authorize(actor, policy.ActionManageUnits, nil); err != nil {
		return model.Unit{}, err
	}
	if err := validateUnit(&u); err != nil {
		return model.Unit{}, err
	}
	if err := s.units.Create(ctx, &u); err != nil {
		return model.Unit{}, err
	}
	return u, nil
}

func (s *RecordService) UpdateUnit(ctx context.Context, actor *model.Actor, u model.Unit) (model.Unit, error) {
	if err := policy.Authorize(actor, policy.ActionManageUnits, nil); err != nil {
		return model.Unit{}, err
	}
	if err := validateUnit(&u); err != nil {
		return model.Unit{}, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.units.GetByID(ctx, u.ID)
		if err != nil {
			return err
		}
		u.CreatedAt = cur.CreatedAt
		return s.units.Update(ctx, u)
	})
	if err != nil {
		return model.Unit{}, err
	}
	return u, nil
}

// DeleteUnit removes a unit that no resident references.  Otherwise it
// fails with ErrUnitHasResidents and nothing changes.
func (s *RecordService) DeleteUnit(ctx context.Context, actor *model.Actor, id uint64) error {
	if err := policy.Authenticated(actor); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.units.GetByID(ctx, id); err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionManageUnits, nil); err != nil {
			return err
		}
		busy, err := s.units.HasResidents(ctx, id)
		if err != nil {
			return err
		}
		if busy {
			return ErrUnitHasResidents
		}
		if err := s.units.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrUnitHasResidents
			}
			return err
		}
		return nil
	})
}

func validateUnit(u *model.Unit) error {
	u.Number = strings.TrimSpace(u.Number)
	u.Block = strings.TrimSpace(u.Block)
	u.Type = strings.TrimSpace(u.Type)
	switch {
	case u.Number == "":
		return invalid("number", "is required")
	case u.Block == "":
		return invalid("block", "is required")
	case u.Type == "":
		return invalid("type", "is required")
	case u.GarageSlots < 0:
		return invalid("garage_slots", "must not be negative")
	}
	return nil
}

// ---- residents ----

// ListResidents returns every resident to administrators and only the
// actor's own record to residents.
func (s *RecordService) ListResidents(ctx context.Context, actor *model.Actor, unitID *uint64) ([]model.Resident, error) {
	scope, err := policy.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	if scope.All {
		return s.residents.List(ctx, unitID)
	}
	r, err := s.residents.GetByID(ctx, scope.ResidentID)
	if errors.Is(err, repository.ErrNotFound) {
		return []model.Resident{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []model.Resident{r}, nil
}

func (s *RecordService) GetResident(ctx context.Context, actor *model.Actor, id uint64) (model.Resident, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Resident{}, err
	}
	r, err := s.residents.GetByID(ctx, id)
	if err != nil {
		return model.Resident{}, err
	}
	if err := policy.Authorize(actor, policy.ActionViewResident, policy.ResidentTarget(r)); err != nil {
		return model.Resident{}, err
	}
	return r, nil
}

func (s *RecordService) CreateResident(ctx context.Context, actor *model.Actor, r model.Resident) (model.Resident, error) {
	if err := policy.Authorize(actor, policy.ActionManageResidents, nil); err != nil {
		return model.Resident{}, err
	}
	if err := validateResident(&r); err != nil {
		return model.Resident{}, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.units.GetByID(ctx, r.UnitID); err != nil {
			return fmt.Errorf("unit %d: %w", r.UnitID, err)
		}
		return s.residents.Create(ctx, &r)
	})
	if err != nil {
		return model.Resident{}, err
	}
	return r, nil
}

func (s *RecordService) UpdateResident(ctx context.Context, actor *model.Actor, r model.Resident) (model.Resident, error) {
	if err := policy.Authorize(actor, policy.ActionManageResidents, nil); err != nil {
		return model.Resident{}, err
	}
	if err := validateResident(&r); err != nil {
		return model.Resident{}, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.residents.GetByID(ctx, r.ID)
		if err != nil {
			return err
		}
		if _, err := s.units.GetByID(ctx, r.UnitID); err != nil {
			return fmt.Errorf("unit %d: %w", r.UnitID, err)
		}
		r.CreatedAt = cur.CreatedAt
		return s.residents.Update(ctx, r)
	})
	if err != nil {
		return model.Resident{}, err
	}
	return r, nil
}

// DeleteResident removes a resident.  Accounts or reservations still
// linked to them make it fail with repository.ErrConflict.
func (s *RecordService) DeleteResident(ctx context.Context, actor *model.Actor, id uint64) error {
	if err := policy.Authenticated(actor); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.residents.GetByID(ctx, id); err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionManageResidents, nil); err != nil {
			return err
		}
		return s.residents.Delete(ctx, id)
	})
}

func validateResident(r *model.Resident) error {
	r.Name = strings.TrimSpace(r.Name)
	r.TaxID = strings.TrimSpace(r.TaxID)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Kind = model.ResidentKind(strings.ToUpper(string(r.Kind)))
	switch {
	case r.Name == "":
		return invalid("name", "is required")
	case r.TaxID == "":
		return invalid("tax_id", "is required")
	case r.Phone == "":
		return invalid("phone", "is required")
	case r.Email == "":
		return invalid("email", "is required")
	case !r.Kind.Valid():
		return invalid("kind", "must be OWNER or TENANT")
	case r.UnitID == 0:
		return invalid("unit_id", "is required")
	}
	return nil
}

// ---- accounts ----

// AccountInput carries the fields of a new account.
type AccountInput struct {
	Login      string
	Email      string
	Password   string
	Role       model.Role
	ResidentID *uint64
	Active     bool
}

// CreateAccount registers a login.  Administrators only.
func (s *RecordService) CreateAccount(ctx context.Context, actor *model.Actor, in AccountInput) (model.Account, error) {
	if err := policy.Authorize(actor, policy.ActionManageAccounts, nil); err != nil {
		return model.Account{}, err
	}
	return s.createAccount(ctx, in)
}

// BootstrapAdmin creates an administrator without an acting account.  It
// backs the create-admin command and must never be reachable over HTTP.
func (s *RecordService) BootstrapAdmin(ctx context.Context, login, email, password string) (model.Account, error) {
	return s.createAccount(ctx, AccountInput{
		Login:    login,
		Email:    email,
		Password: password,
		Role:     model.RoleAdministrator,
		Active:   true,
	})
}

func (s *RecordService) createAccount(ctx context.Context, in AccountInput) (model.Account, error) {
	a := model.Account{
		Login:      strings.ToLower(strings.TrimSpace(in.Login)),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Role:       in.Role,
		Active:     in.Active,
		ResidentID: in.ResidentID,
	}
	switch {
	case a.Login == "":
		return model.Account{}, invalid("login", "is required")
	case a.Email == "":
		return model.Account{}, invalid("email", "is required")
	case len(in.Password) < MinPasswordLen:
		return model.Account{}, invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	case !a.Role.Valid():
		return model.Account{}, invalid("role", "must be RESIDENT or ADMIN")
	case a.Role == model.RoleResident && a.ResidentID == nil:
		return model.Account{}, invalid("resident_id", "is required for resident accounts")
	case a.Role == model.RoleAdministrator && a.ResidentID != nil:
		return model.Account{}, invalid("resident_id", "must be empty for administrator accounts")
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return model.Account{}, err
	}
	a.PasswordHash = hash
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if a.ResidentID != nil {
			ok, err := s.residents.Exists(ctx, *a.ResidentID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("resident %d: %w", *a.ResidentID, repository.ErrNotFound)
			}
		}
		return s.accounts.Create(ctx, &a)
	})
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

func (s *RecordService) ListAccounts(ctx context.Context, actor *model.Actor) ([]model.Account, error) {
	if err := policy.Authorize(actor, policy.ActionManageAccounts, nil); err != nil {
		return nil, err
	}
	return s.accounts.List(ctx)
}

// SetAccountActive enables or disables an account.  Administrators cannot
// disable themselves.
func (s *RecordService) SetAccountActive(ctx context.Context, actor *model.Actor, id uint64, active bool) (model.Account, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Account{}, err
	}
	var a model.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.accounts.GetByID(ctx, id); err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionManageAccounts, nil); err != nil {
			return err
		}
		if id == actor.AccountID && !active {
			return invalid("active", "you cannot deactivate your own account")
		}
		if a.Active == active {
			return nil
		}
		a.Active = active
		return s.accounts.SetActive(ctx, id, active)
	})
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// ChangePassword replaces the actor's own password after verifying the
// current one.
func (s *RecordService) ChangePassword(ctx context.Context, actor *model.Actor, verify func(hash, plain string) bool, current, next string) error {
	if err := policy.Authenticated(actor); err != nil {
		return err
	}
	if len(next) < MinPasswordLen {
		return invalid("new_password", fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	a, err := s.accounts.GetByID(ctx, actor.AccountID)
	if err != nil {
		return err
	}
	if !verify(a.PasswordHash, current) {
		return invalid("current_password", "does not match")
	}
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	return s.accounts.SetPassword(ctx, a.ID, hash)
}

// ---- visitors ----

// VisitorInput carries the fields of a new visit.
type VisitorInput struct {
	UnitID   *uint64
	Name     string
	Document string
	Notes    string
}

// ListVisitors returns every visit to administrators and the visits of
// their own unit to residents.
func (s *RecordService) ListVisitors(ctx context.Context, actor *model.Actor) ([]model.Visitor, error) {
	scope, err := policy.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	if scope.All {
		return s.visitors.List(ctx, nil)
	}
	return s.visitors.List(ctx, &scope.UnitID)
}

// RegisterVisitor logs a visitor arriving now.  Residents register for
// their own unit; administrators name the unit.
func (s *RecordService) RegisterVisitor(ctx context.Context, actor *model.Actor, in VisitorInput) (model.Visitor, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Visitor{}, err
	}
	v := model.Visitor{
		Name:         strings.TrimSpace(in.Name),
		Document:     strings.TrimSpace(in.Document),
		Notes:        strings.TrimSpace(in.Notes),
		ArrivedAt:    s.now(),
		RegisteredBy: actor.AccountID,
	}
	switch {
	case in.UnitID != nil:
		v.UnitID = *in.UnitID
	case actor.UnitID != nil && !actor.IsAdmin():
		v.UnitID = *actor.UnitID
	default:
		return model.Visitor{}, invalid("unit_id", "is required")
	}
	if v.Name == "" {
		return model.Visitor{}, invalid("name", "is required")
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.units.GetByID(ctx, v.UnitID); err != nil {
			return fmt.Errorf("unit %d: %w", v.UnitID, err)
		}
		if err := policy.Authorize(actor, policy.ActionRegisterVisitor, policy.UnitTarget(policy.KindVisitor, v.UnitID)); err != nil {
			return err
		}
		return s.visitors.Create(ctx, &v)
	})
	if err != nil {
		return model.Visitor{}, err
	}
	return v, nil
}

// MarkVisitorDeparted stamps the departure time once.
func (s *RecordService) MarkVisitorDeparted(ctx context.Context, actor *model.Actor, id uint64) (model.Visitor, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Visitor{}, err
	}
	var v model.Visitor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if v, err = s.visitors.GetByID(ctx, id); err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionUpdateVisitor, policy.VisitorTarget(v)); err != nil {
			return err
		}
		if v.DepartedAt != nil {
			return nil
		}
		at := s.now()
		if err := s.visitors.MarkDeparted(ctx, id, at); err != nil {
			return err
		}
		v.DepartedAt = &at
		return nil
	})
	if err != nil {
		return model.Visitor{}, err
	}
	return v, nil
}

func (s *RecordService) DeleteVisitor(ctx context.Context, actor *model.Actor, id uint64) error {
	if err := policy.Authenticated(actor); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := s.visitors.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionUpdateVisitor, policy.VisitorTarget(v)); err != nil {
			return err
		}
		return s.visitors.Delete(ctx, id)
	})
}

// ---- fines ----

// FineInput carries the fields of a new fine.
type FineInput struct {
	UnitID      uint64
	AmountCents uint32
	Reason      string
	DueDate     model.Date
}

func (s *RecordService) ListFines(ctx context.Context, actor *model.Actor) ([]model.Fine, error) {
	scope, err := policy.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	if scope.All {
		return s.fines.List(ctx, nil)
	}
	return s.fines.List(ctx, &scope.UnitID)
}

func (s *RecordService) GetFine(ctx context.Context, actor *model.Actor, id uint64) (model.Fine, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Fine{}, err
	}
	f, err := s.fines.GetByID(ctx, id)
	if err != nil {
		return model.Fine{}, err
	}
	if err := policy.Authorize(actor, policy.ActionViewFine, policy.FineTarget(f)); err != nil {
		return model.Fine{}, err
	}
	return f, nil
}

// IssueFine charges a unit.  Administrators only.
func (s *RecordService) IssueFine(ctx context.Context, actor *model.Actor, in FineInput) (model.Fine, error) {
	if err := policy.Authorize(actor, policy.ActionIssueFine, nil); err != nil {
		return model.Fine{}, err
	}
	f := model.Fine{
		UnitID:      in.UnitID,
		AmountCents: in.AmountCents,
		Reason:      strings.TrimSpace(in.Reason),
		DueDate:     in.DueDate,
		IssuedBy:    actor.AccountID,
	}
	switch {
	case f.UnitID == 0:
		return model.Fine{}, invalid("unit_id", "is required")
	case f.AmountCents == 0:
		return model.Fine{}, invalid("amount_cents", "must be positive")
	case f.Reason == "":
		return model.Fine{}, invalid("reason", "is required")
	case f.DueDate.IsZero():
		return model.Fine{}, invalid("due_date", "is required")
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.units.GetByID(ctx, f.UnitID); err != nil {
			return fmt.Errorf("unit %d: %w", f.UnitID, err)
		}
		return s.fines.Create(ctx, &f)
	})
	if err != nil {
		return model.Fine{}, err
	}
	return f, nil
}

// SetFinePaid marks a fine settled or outstanding.  Administrators only.
func (s *RecordService) SetFinePaid(ctx context.Context, actor *model.Actor, id uint64, paid bool) (model.Fine, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Fine{}, err
	}
	var f model.Fine
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if f, err = s.fines.GetByID(ctx, id); err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionManageFine, policy.FineTarget(f)); err != nil {
			return err
		}
		f.Paid = paid
		return s.fines.SetPaid(ctx, id, paid)
	})
	if err != nil {
		return model.Fine{}, err
	}
	return f, nil
}

func (s *RecordService) DeleteFine(ctx context.Context, actor *model.Actor, id uint64) error {
	if err := policy.Authenticated(actor); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		f, err := s.fines.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionManageFine, policy.FineTarget(f)); err != nil {
			return err
		}
		return s.fines.Delete(ctx, id)
	})
}

// ---- staff ----

func (s *RecordService) ListStaff(ctx context.Context, actor *model.Actor) ([]model.Staff, error) {
	if err := policy.Authorize(actor, policy.ActionManageStaff, nil); err != nil {
		return nil, err
	}
	return s.staff.List(ctx)
}

func (s *RecordService) GetStaff(ctx context.Context, actor *model.Actor, id uint64) (model.Staff, error) {
	if err := policy.Authenticated(actor); err != nil {
		return model.Staff{}, err
	}
	st, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return model.Staff{}, err
	}
	if err := policy.Authorize(actor, policy.ActionManageStaff, nil); err != nil {
		return model.Staff{}, err
	}
	return st, nil
}

func (s *RecordService) CreateStaff(ctx context.Context, actor *model.Actor, st model.Staff) (model.Staff, error) {
	if err := policy.Authorize(actor, policy.ActionManageStaff, nil); err != nil {
		return model.Staff{}, err
	}
	if err := validateStaff(&st); err != nil {
		return model.Staff{}, err
	}
	if err := s.staff.Create(ctx, &st); err != nil {
		return model.Staff{}, err
	}
	return st, nil
}

func (s *RecordService) UpdateStaff(ctx context.Context, actor *model.Actor, st model.Staff) (model.Staff, error) {
	if err := policy.Authorize(actor, policy.ActionManageStaff, nil); err != nil {
		return model.Staff{}, err
	}
	if err := validateStaff(&st); err != nil {
		return model.Staff{}, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.staff.GetByID(ctx, st.ID)
		if err != nil {
			return err
		}
		st.CreatedAt = cur.CreatedAt
		return s.staff.Update(ctx, st)
	})
	if err != nil {
		return model.Staff{}, err
	}
	return st, nil
}

func (s *RecordService) DeleteStaff(ctx context.Context, actor *model.Actor, id uint64) error {
	if err := policy.Authenticated(actor); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.staff.GetByID(ctx, id); err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionManageStaff, nil); err != nil {
			return err
		}
		return s.staff.Delete(ctx, id)
	})
}

func validateStaff(st *model.Staff) error {
	st.Name = strings.TrimSpace(st.Name)
	st.Position = strings.TrimSpace(st.Position)
	st.Phone = strings.TrimSpace(st.Phone)
	st.Shift = strings.TrimSpace(st.Shift)
	switch {
	case st.Name == "":
		return invalid("name", "is required")
	case st.Position == "":
		return invalid("position", "is required")
	}
	return nil
}
