package handler

import (
	"context"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/service"
)

// Records is implemented by service.RecordService.
type Records interface {
	ListUnits(ctx context.Context, actor *model.Actor) ([]model.Unit, error)
	GetUnit(ctx context.Context, actor *model.Actor, id uint64) (model.Unit, error)
	CreateUnit(ctx context.Context, actor *model.Actor, u model.Unit) (model.Unit, error)
	UpdateUnit(ctx context.Context, actor *model.Actor, u model.Unit) (model.Unit, error)
	DeleteUnit(ctx context.Context, actor *model.Actor, id uint64) error

	ListResidents(ctx context.Context, actor *model.Actor, unitID *uint64) ([]model.Resident, error)
	GetResident(ctx context.Context, actor *model.Actor, id uint64) (model.Resident, error)
	CreateResident(ctx context.Context, actor *model.Actor, r model.Resident) (model.Resident, error)
	UpdateResident(ctx context.Context, actor *model.Actor, r model.Resident) (model.Resident, error)
	DeleteResident(ctx context.Context, actor *model.Actor, id uint64) error

	CreateAccount(ctx context.Context, actor *model.Actor, in service.AccountInput) (model.Account, error)
	ListAccounts(ctx context.Context, actor *model.Actor) ([]model.Account, error)
	SetAccountActive(ctx context.Context, actor *model.Actor, id uint64, active bool) (model.Account, error)

	ListVisitors(ctx context.Context, actor *model.Actor) ([]model.Visitor, error)
	RegisterVisitor(ctx context.Context, actor *model.Actor, in service.VisitorInput) (model.Visitor, error)
	MarkVisitorDeparted(ctx context.Context, actor *model.Actor, id uint64) (model.Visitor, error)
	DeleteVisitor(ctx context.Context, actor *model.Actor, id uint64) error

	ListFines(ctx context.Context, actor *model.Actor) ([]model.Fine, error)
	GetFine(ctx context.Context, actor *model.Actor, id uint64) (model.Fine, error)
	IssueFine(ctx context.Context, actor *model.Actor, in service.FineInput) (model.Fine, error)
	SetFinePaid(ctx context.Context, actor *model.Actor, id uint64, paid bool) (model.Fine, error)
	DeleteFine(ctx context.Context, actor *model.Actor, id uint64) error

	ListStaff(ctx context.Context, actor *model.Actor) ([]model.Staff, error)
	GetStaff(ctx context.Context, actor *model.Actor, id uint64) (model.Staff, error)
	CreateStaff(ctx context.Context, actor *model.Actor, st model.Staff) (model.Staff, error)
	UpdateStaff(ctx context.Context, actor *model.Actor, st model.Staff) (model.Staff, error)
	DeleteStaff(ctx context.Context, actor *model.Actor, id uint64) error
}

// RecordHandler serves the record management endpoints: units, residents,
// accounts, visitors, fines and staff.
type RecordHandler struct {
	Records Records
}

func NewRecordHandler(r Records) *RecordHandler { return &RecordHandler{Records: r} }
