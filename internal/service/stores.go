// Package service holds the core engines: booking, notification tracking,
// messaging and record management.  Every operation takes the resolved
// actor explicitly, asks the policy package for permission and runs its
// read-check-write sequence in one transaction.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/condo-manager/internal/model"
)

// TxRunner runs fn in a single transaction carried by the context passed
// to it.  database.TxManager is the production implementation.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReservationStore is the subset of repository.ReservationRepo the booking
// engine uses.
type ReservationStore interface {
	LockSlot(ctx context.Context, area string, date model.Date) error
	FindOverlapping(ctx context.Context, area string, date model.Date, start, end model.TimeOfDay) (*model.Reservation, error)
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	GetForUpdate(ctx context.Context, id uint64) (model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) error
	List(ctx context.Context, residentID *uint64) ([]model.Reservation, error)
	BusyIntervals(ctx context.Context, area string, date model.Date) ([]model.Interval, error)
}

type ResidentStore interface {
	List(ctx context.Context, unitID *uint64) ([]model.Resident, error)
	GetByID(ctx context.Context, id uint64) (model.Resident, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	Create(ctx context.Context, r *model.Resident) error
	Update(ctx context.Context, r model.Resident) error
	Delete(ctx context.Context, id uint64) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id uint64) (model.Notification, error)
	ListWithReadState(ctx context.Context, accountID uint64, residentID *uint64) ([]model.NotificationItem, error)
	CountUnread(ctx context.Context, accountID uint64, residentID *uint64) (int, error)
	InsertReceipt(ctx context.Context, notificationID, accountID uint64) (bool, error)
	Delete(ctx context.Context, id uint64) error
}

type MessageStore interface {
	Create(ctx context.Context, m *model.DirectMessage) error
	ListInvolving(ctx context.Context, accountID uint64) ([]model.DirectMessage, error)
	Thread(ctx context.Context, a, b uint64) ([]model.DirectMessage, error)
	MarkRead(ctx context.Context, recipientID, senderID uint64) (int64, error)
	CountUnread(ctx context.Context, accountID uint64) (int, error)
}

type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id uint64) (model.Account, error)
	GetSummary(ctx context.Context, id uint64) (model.AccountSummary, error)
	GetSummaries(ctx context.Context, ids []uint64) (map[uint64]model.AccountSummary, error)
	List(ctx context.Context) ([]model.Account, error)
	ListSummaries(ctx context.Context, activeOnly bool, role *model.Role) ([]model.AccountSummary, error)
	SetActive(ctx context.Context, id uint64, active bool) error
	SetPassword(ctx context.Context, id uint64, hash string) error
}

type UnitStore interface {
	List(ctx context.Context) ([]model.Unit, error)
	GetByID(ctx context.Context, id uint64) (model.Unit, error)
	Create(ctx context.Context, u *model.Unit) error
	Update(ctx context.Context, u model.Unit) error
	Delete(ctx context.Context, id uint64) error
	HasResidents(ctx context.Context, id uint64) (bool, error)
}

type VisitorStore interface {
	List(ctx context.Context, unitID *uint64) ([]model.Visitor, error)
	GetByID(ctx context.Context, id uint64) (model.Visitor, error)
	Create(ctx context.Context, v *model.Visitor) error
	MarkDeparted(ctx context.Context, id uint64, at time.Time) error
	Delete(ctx context.Context, id uint64) error
}

type FineStore interface {
	List(ctx context.Context, unitID *uint64) ([]model.Fine, error)
	GetByID(ctx context.Context, id uint64) (model.Fine, error)
	Create(ctx context.Context, f *model.Fine) error
	SetPaid(ctx context.Context, id uint64, paid bool) error
	Delete(ctx context.Context, id uint64) error
}

type StaffStore interface {
	List(ctx context.Context) ([]model.Staff, error)
	GetByID(ctx context.Context, id uint64) (model.Staff, error)
	Create(ctx context.Context, s *model.Staff) error
	Update(ctx context.Context, s model.Staff) error
	Delete(ctx context.Context, id uint64) error
}
