// Package app wires the record store, the core services and the event
// publisher together so the server and the command-line tools share one
// construction path.
package app

import (
	"database/sql"

	"github.com/iliyamo/condo-manager/internal/database"
	"github.com/iliyamo/condo-manager/internal/queue"
	"github.com/iliyamo/condo-manager/internal/repository"
	"github.com/iliyamo/condo-manager/internal/service"
	"github.com/iliyamo/condo-manager/internal/utils"
)

// App holds the repositories and services built over one *sql.DB.
type App struct {
	DB     *sql.DB
	Tx     *database.TxManager
	Events queue.EventPublisher

	Accounts      *repository.AccountRepo
	Tokens        *repository.TokenRepo
	Units         *repository.UnitRepo
	Residents     *repository.ResidentRepo
	Reservations  *repository.ReservationRepo
	Notifications *repository.NotificationRepo
	Messages      *repository.MessageRepo

	Booking   *service.BookingService
	Notifier  *service.NotificationService
	Messaging *service.MessagingService
	Records   *service.RecordService
}

// New builds the application over db.  A nil events publisher drops
// events.
func New(db *sql.DB, bcryptCost int, events queue.EventPublisher) *App {
	if events == nil {
		events = queue.NopPublisher{}
	}
	a := &App{
		DB:            db,
		Tx:            database.NewTxManager(db),
		Events:        events,
		Accounts:      repository.NewAccountRepo(db),
		Tokens:        repository.NewTokenRepo(db),
		Units:         repository.NewUnitRepo(db),
		Residents:     repository.NewResidentRepo(db),
		Reservations:  repository.NewReservationRepo(db),
		Notifications: repository.NewNotificationRepo(db),
		Messages:      repository.NewMessageRepo(db),
	}
	a.Booking = service.NewBookingService(a.Tx, a.Reservations, a.Residents, events)
	a.Notifier = service.NewNotificationService(a.Tx, a.Notifications, a.Residents, events)
	a.Messaging = service.NewMessagingService(a.Tx, a.Messages, a.Accounts, events)
	a.Records = service.NewRecordService(a.Tx, service.RecordStores{
		Units:     a.Units,
		Residents: a.Residents,
		Accounts:  a.Accounts,
		Visitors:  repository.NewVisitorRepo(db),
		Fines:     repository.NewFineRepo(db),
		Staff:     repository.NewStaffRepo(db),
	}, func(plain string) (string, error) {
		return utils.HashPassword(plain, bcryptCost)
	})
	return a
}
