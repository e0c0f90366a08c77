package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/policy"
	"github.com/iliyamo/condo-manager/internal/repository"
)

func fakeHash(plain string) (string, error) { return "hash:" + plain, nil }

func fakeVerify(hash, plain string) bool { return hash == "hash:"+plain }

func newRecordFixture() (*memDB, *RecordService) {
	db := newMemDB()
	svc := NewRecordService(db, RecordStores{
		Units:     memUnits{db},
		Residents: memResidents{db},
		Accounts:  memAccounts{db},
		Visitors:  memVisitors{db},
		Fines:     memFines{db},
		Staff:     memStaff{db},
	}, fakeHash)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC) }
	return db, svc
}

func TestRecordsUnitNumberUnique(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	ctx := context.Background()

	u, err := svc.CreateUnit(ctx, admin, model.Unit{Number: " 101 ", Block: "A", Type: "apartment"})
	require.NoError(t, err)
	assert.Equal(t, "101", u.Number)

	_, err = svc.CreateUnit(ctx, admin, model.Unit{Number: "101", Block: "B", Type: "apartment"})
	var dup *repository.UniqueViolationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "number", dup.Field)

	_, err = svc.CreateUnit(ctx, admin, model.Unit{Number: "102", Block: "A", Type: "apartment", GarageSlots: -1})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "garage_slots", verr.Field)
}

func TestRecordsDeleteUnitWithResidents(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	u := db.addUnit("201")
	r := db.addResident("carol", u.ID)
	ctx := context.Background()

	err := svc.DeleteUnit(ctx, admin, u.ID)
	assert.ErrorIs(t, err, ErrUnitHasResidents)
	assert.Contains(t, db.units, u.ID)
	assert.Contains(t, db.residents, r.ID)

	require.NoError(t, svc.DeleteResident(ctx, admin, r.ID))
	require.NoError(t, svc.DeleteUnit(ctx, admin, u.ID))
	assert.NotContains(t, db.units, u.ID)

	assert.ErrorIs(t, svc.DeleteUnit(ctx, admin, u.ID), repository.ErrNotFound)
}

func TestRecordsUnitVisibility(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	alice := db.residentActor("alice")
	other := db.addUnit("999")
	ctx := context.Background()

	units, err := svc.ListUnits(ctx, alice)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, *alice.UnitID, units[0].ID)

	units, err = svc.ListUnits(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	_, err = svc.GetUnit(ctx, alice, other.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
	_, err = svc.CreateUnit(ctx, alice, model.Unit{Number: "1", Block: "A", Type: "house"})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
	assert.ErrorIs(t, svc.DeleteUnit(ctx, alice, other.ID), policy.ErrPermissionDenied)
}

func TestRecordsResidentRules(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	u := db.addUnit("301")
	ctx := context.Background()

	in := model.Resident{Name: "Dan", TaxID: "123", Phone: "555", Email: "DAN@X", Kind: "tenant", UnitID: u.ID}
	r, err := svc.CreateResident(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, model.ResidentTenant, r.Kind)
	assert.Equal(t, "dan@x", r.Email)

	in.Name = "Other Dan"
	_, err = svc.CreateResident(ctx, admin, in)
	var dup *repository.UniqueViolationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "tax_id", dup.Field)

	in.TaxID = "456"
	in.UnitID = 8888
	_, err = svc.CreateResident(ctx, admin, in)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	in.UnitID = u.ID
	in.Kind = "landlord"
	_, err = svc.CreateResident(ctx, admin, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "kind", verr.Field)
}

func TestRecordsResidentSeesOnlyThemselves(t *testing.T) {
	db, svc := newRecordFixture()
	alice := db.residentActor("alice")
	bob := db.residentActor("bob")
	ctx := context.Background()

	list, err := svc.ListResidents(ctx, alice, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *alice.ResidentID, list[0].ID)

	_, err = svc.GetResident(ctx, alice, *bob.ResidentID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
	_, err = svc.GetResident(ctx, alice, *alice.ResidentID)
	assert.NoError(t, err)
}

func TestRecordsCreateAccount(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	alice := db.residentActor("alice")
	u := db.addUnit("401")
	erin := db.addResident("erin", u.ID)
	ctx := context.Background()

	a, err := svc.CreateAccount(ctx, admin, AccountInput{
		Login: " Erin ", Email: "Erin@Example.com", Password: "longenough",
		Role: model.RoleResident, ResidentID: &erin.ID, Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "erin", a.Login)
	assert.Equal(t, "hash:longenough", a.PasswordHash)

	cases := []struct {
		name  string
		in    AccountInput
		field string
	}{
		{"short password", AccountInput{Login: "x", Email: "x@x", Password: "short", Role: model.RoleAdministrator}, "password"},
		{"resident without link", AccountInput{Login: "x", Email: "x@x", Password: "longenough", Role: model.RoleResident}, "resident_id"},
		{"admin with link", AccountInput{Login: "x", Email: "x@x", Password: "longenough", Role: model.RoleAdministrator, ResidentID: &erin.ID}, "resident_id"},
		{"no role", AccountInput{Login: "x", Email: "x@x", Password: "longenough"}, "role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAccount(ctx, admin, tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	_, err = svc.CreateAccount(ctx, admin, AccountInput{Login: "ERIN", Email: "new@x", Password: "longenough", Role: model.RoleAdministrator})
	var dup *repository.UniqueViolationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "login", dup.Field)

	_, err = svc.CreateAccount(ctx, alice, AccountInput{Login: "y", Email: "y@x", Password: "longenough", Role: model.RoleAdministrator})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
}

func TestRecordsBootstrapAdmin(t *testing.T) {
	db, svc := newRecordFixture()
	a, err := svc.BootstrapAdmin(context.Background(), "root", "root@condo", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, a.IsAdmin())
	assert.True(t, a.Active)
	assert.Contains(t, db.accounts, a.ID)
}

func TestRecordsSetAccountActive(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	alice := db.residentActor("alice")
	ctx := context.Background()

	a, err := svc.SetAccountActive(ctx, admin, alice.AccountID, false)
	require.NoError(t, err)
	assert.False(t, a.Active)
	assert.False(t, db.accounts[alice.AccountID].Active)

	_, err = svc.SetAccountActive(ctx, admin, admin.AccountID, false)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.True(t, db.accounts[admin.AccountID].Active)
}

func TestRecordsChangePassword(t *testing.T) {
	db, svc := newRecordFixture()
	alice := db.residentActor("alice")
	ctx := context.Background()

	err := svc.ChangePassword(ctx, alice, fakeVerify, "wrong", "newpassword")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "current_password", verr.Field)

	require.NoError(t, svc.ChangePassword(ctx, alice, fakeVerify, "secret123", "newpassword"))
	assert.Equal(t, "hash:newpassword", db.accounts[alice.AccountID].PasswordHash)
}

func TestRecordsVisitors(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	alice := db.residentActor("alice")
	bob := db.residentActor("bob")
	ctx := context.Background()

	v, err := svc.RegisterVisitor(ctx, alice, VisitorInput{Name: "Plumber"})
	require.NoError(t, err)
	assert.Equal(t, *alice.UnitID, v.UnitID)
	assert.Nil(t, v.DepartedAt)

	_, err = svc.RegisterVisitor(ctx, alice, VisitorInput{UnitID: bob.UnitID, Name: "Sneaky"})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	_, err = svc.RegisterVisitor(ctx, admin, VisitorInput{Name: "Nobody"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.MarkVisitorDeparted(ctx, bob, v.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	left, err := svc.MarkVisitorDeparted(ctx, alice, v.ID)
	require.NoError(t, err)
	require.NotNil(t, left.DepartedAt)
	first := *left.DepartedAt

	svc.now = func() time.Time { return first.Add(time.Hour) }
	again, err := svc.MarkVisitorDeparted(ctx, alice, v.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *again.DepartedAt)

	mine, err := svc.ListVisitors(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, mine)
	all, err := svc.ListVisitors(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecordsFines(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	alice := db.residentActor("alice")
	bob := db.residentActor("bob")
	ctx := context.Background()

	in := FineInput{UnitID: *alice.UnitID, AmountCents: 15000, Reason: "Noise after 22:00", DueDate: model.NewDate(2026, 6, 1)}
	_, err := svc.IssueFine(ctx, alice, in)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	f, err := svc.IssueFine(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, admin.AccountID, f.IssuedBy)

	_, err = svc.GetFine(ctx, bob, f.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
	got, err := svc.GetFine(ctx, alice, f.ID)
	require.NoError(t, err)
	assert.False(t, got.Paid)

	_, err = svc.SetFinePaid(ctx, alice, f.ID, true)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
	paid, err := svc.SetFinePaid(ctx, admin, f.ID, true)
	require.NoError(t, err)
	assert.True(t, paid.Paid)

	in.AmountCents = 0
	_, err = svc.IssueFine(ctx, admin, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount_cents", verr.Field)
}

func TestRecordsStaffAdminOnly(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	alice := db.residentActor("alice")
	ctx := context.Background()

	st, err := svc.CreateStaff(ctx, admin, model.Staff{Name: "Joe", Position: "Doorman", Shift: "night", Active: true})
	require.NoError(t, err)

	_, err = svc.ListStaff(ctx, alice)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	st.Position = "  Head Doorman "
	upd, err := svc.UpdateStaff(ctx, admin, st)
	require.NoError(t, err)
	assert.Equal(t, "Head Doorman", upd.Position)

	require.NoError(t, svc.DeleteStaff(ctx, admin, st.ID))
	_, err = svc.GetStaff(ctx, admin, st.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestRecordsFailedTransactionRollsBack(t *testing.T) {
	db, svc := newRecordFixture()
	admin := db.adminActor("admin")
	ctx := context.Background()

	before := len(db.units)
	err := db.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.CreateUnit(ctx, admin, model.Unit{Number: "501", Block: "C", Type: "house"}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Len(t, db.units, before)
}
