package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/condo-manager/internal/model"
)

// ReservationRepo persists amenity reservations and the per-(area, date)
// lock rows that serialize booking of the same slot.  All timestamp fields
// are stored in UTC.
type ReservationRepo struct{ db *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, resident_id, area, date, start_time, end_time, status, notes, created_at`

// activeStatuses is the SQL list of statuses that occupy a slot.
const activeStatuses = `('PENDING', 'APPROVED')`

func scanReservation(s rowScanner) (model.Reservation, error) {
	var r model.Reservation
	err := s.Scan(&r.ID, &r.ResidentID, &r.Area, &r.Date, &r.Start, &r.End, &r.Status, &r.Notes, &r.CreatedAt)
	return r, mapError(err)
}

// LockSlot takes an exclusive row lock on the (area, date) lock row,
// creating it on first use.  Two transactions booking the same amenity on
// the same day therefore run their conflict scans one after the other.
// Must be called inside a transaction; the lock is held until commit.
func (r *ReservationRepo) LockSlot(ctx context.Context, area string, date model.Date) error {
	_, err := querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO amenity_slot_locks (area, date) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE area = VALUES(area)`, area, date)
	return mapError(err)
}

// FindOverlapping returns the first active reservation of (area, date)
// whose half-open range intersects [start, end), or nil when the range is
// free.  It is a locking read, so inside a transaction it sees the latest
// committed rows rather than the transaction's snapshot.
func (r *ReservationRepo) FindOverlapping(ctx context.Context, area string, date model.Date, start, end model.TimeOfDay) (*model.Reservation, error) {
	res, err := scanReservation(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		  WHERE area = ? AND date = ? AND status IN `+activeStatuses+`
		    AND start_time < ? AND end_time > ?
		  ORDER BY start_time, id LIMIT 1 FOR UPDATE`, area, date, end, start))
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Create inserts res and reads back its id and creation time.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	q := querier(ctx, r.db)
	id, err := insertID(q.ExecContext(ctx,
		`INSERT INTO reservations (resident_id, area, date, start_time, end_time, status, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.ResidentID, res.Area, res.Date, res.Start, res.End, res.Status, res.Notes))
	if err != nil {
		return err
	}
	res.ID = id
	return mapError(q.QueryRowContext(ctx, `SELECT created_at FROM reservations WHERE id = ?`, id).Scan(&res.CreatedAt))
}

// GetByID returns ErrNotFound when the reservation does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return scanReservation(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
}

// GetForUpdate is GetByID with an exclusive row lock.  Outside a
// transaction the lock is released immediately.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	return scanReservation(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id))
}

// UpdateStatus overwrites the status of a reservation.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	return affected(querier(ctx, r.db).ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, id))
}

// List returns reservations newest day first and, within a day, by start
// time.  A non-nil residentID restricts the result to that resident.
func (r *ReservationRepo) List(ctx context.Context, residentID *uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	var args []any
	if residentID != nil {
		q += ` WHERE resident_id = ?`
		args = append(args, *residentID)
	}
	q += ` ORDER BY date DESC, start_time ASC, id ASC`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, args...)
	return collect(rows, err, scanReservation)
}

// BusyIntervals returns the active ranges booked for (area, date) in start
// order.
func (r *ReservationRepo) BusyIntervals(ctx context.Context, area string, date model.Date) ([]model.Interval, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT id, start_time, end_time, status FROM reservations
		  WHERE area = ? AND date = ? AND status IN `+activeStatuses+`
		  ORDER BY start_time, id`, area, date)
	return collect(rows, err, func(s rowScanner) (model.Interval, error) {
		var iv model.Interval
		err := s.Scan(&iv.ReservationID, &iv.Start, &iv.End, &iv.Status)
		return iv, mapError(err)
	})
}
