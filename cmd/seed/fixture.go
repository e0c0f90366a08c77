package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/repository"
	"github.com/iliyamo/condo-manager/internal/service"
)

// Fixture is the YAML document the seed command loads.  Residents refer to
// their unit by number and accounts to their resident by tax id.
type Fixture struct {
	Admin     AdminFixture      `yaml:"admin"`
	Units     []UnitFixture     `yaml:"units"`
	Residents []ResidentFixture `yaml:"residents"`
	Accounts  []AccountFixture  `yaml:"accounts"`
}

type AdminFixture struct {
	Login    string `yaml:"login"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type UnitFixture struct {
	Number      string `yaml:"number"`
	Block       string `yaml:"block"`
	Type        string `yaml:"type"`
	GarageSlots int    `yaml:"garage_slots"`
}

type ResidentFixture struct {
	Name  string `yaml:"name"`
	TaxID string `yaml:"tax_id"`
	Phone string `yaml:"phone"`
	Email string `yaml:"email"`
	Kind  string `yaml:"kind"`
	Unit  string `yaml:"unit"`
}

type AccountFixture struct {
	Login    string `yaml:"login"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Resident string `yaml:"resident"`
}

// parseFixture decodes r and checks every cross reference before anything
// touches the database.
func parseFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	if f.Admin.Login == "" || f.Admin.Password == "" {
		return Fixture{}, errors.New("fixture: admin login and password are required")
	}
	units := make(map[string]bool, len(f.Units))
	for _, u := range f.Units {
		units[u.Number] = true
	}
	residents := make(map[string]bool, len(f.Residents))
	for _, r := range f.Residents {
		if !units[r.Unit] {
			return Fixture{}, fmt.Errorf("fixture: resident %q refers to unknown unit %q", r.Name, r.Unit)
		}
		if !model.ResidentKind(r.Kind).Valid() {
			return Fixture{}, fmt.Errorf("fixture: resident %q has kind %q", r.Name, r.Kind)
		}
		residents[r.TaxID] = true
	}
	for _, a := range f.Accounts {
		if !residents[a.Resident] {
			return Fixture{}, fmt.Errorf("fixture: account %q refers to unknown resident %q", a.Login, a.Resident)
		}
	}
	return f, nil
}

// seeder is the slice of RecordService the loader drives.
type seeder interface {
	BootstrapAdmin(ctx context.Context, login, email, password string) (model.Account, error)
	CreateUnit(ctx context.Context, actor *model.Actor, u model.Unit) (model.Unit, error)
	CreateResident(ctx context.Context, actor *model.Actor, r model.Resident) (model.Resident, error)
	CreateAccount(ctx context.Context, actor *model.Actor, in service.AccountInput) (model.Account, error)
}

// adminLookup finds the administrator when it already exists.
type adminLookup interface {
	GetByLogin(ctx context.Context, login string) (model.Account, error)
}

// summary counts what apply created.
type summary struct {
	Units, Residents, Accounts int
}

// apply loads f through s.  Records that already exist are skipped so the
// command can be rerun against a seeded database.
func apply(ctx context.Context, s seeder, admins adminLookup, f Fixture) (summary, error) {
	var sum summary
	admin, err := s.BootstrapAdmin(ctx, f.Admin.Login, f.Admin.Email, f.Admin.Password)
	if repository.IsDuplicate(err) {
		admin, err = admins.GetByLogin(ctx, f.Admin.Login)
	}
	if err != nil {
		return sum, fmt.Errorf("admin %s: %w", f.Admin.Login, err)
	}
	if admin.Role != model.RoleAdministrator {
		return sum, fmt.Errorf("admin %s: existing account is not an administrator", f.Admin.Login)
	}
	actor := model.NewActor(admin, nil)

	unitIDs := make(map[string]uint64, len(f.Units))
	for _, u := range f.Units {
		created, err := s.CreateUnit(ctx, actor, model.Unit{
			Number:      u.Number,
			Block:       u.Block,
			Type:        u.Type,
			GarageSlots: u.GarageSlots,
		})
		if repository.IsDuplicate(err) {
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("unit %s: %w", u.Number, err)
		}
		unitIDs[u.Number] = created.ID
		sum.Units++
	}

	residentIDs := make(map[string]uint64, len(f.Residents))
	for _, r := range f.Residents {
		unitID, ok := unitIDs[r.Unit]
		if !ok {
			// unit existed before this run
			continue
		}
		created, err := s.CreateResident(ctx, actor, model.Resident{
			Name:   r.Name,
			TaxID:  r.TaxID,
			Phone:  r.Phone,
			Email:  r.Email,
			Kind:   model.ResidentKind(r.Kind),
			UnitID: unitID,
		})
		if repository.IsDuplicate(err) {
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("resident %s: %w", r.Name, err)
		}
		residentIDs[r.TaxID] = created.ID
		sum.Residents++
	}

	for _, a := range f.Accounts {
		residentID, ok := residentIDs[a.Resident]
		if !ok {
			continue
		}
		_, err := s.CreateAccount(ctx, actor, service.AccountInput{
			Login:      a.Login,
			Email:      a.Email,
			Password:   a.Password,
			Role:       model.RoleResident,
			ResidentID: &residentID,
			Active:     true,
		})
		if repository.IsDuplicate(err) {
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("account %s: %w", a.Login, err)
		}
		sum.Accounts++
	}
	return sum, nil
}
