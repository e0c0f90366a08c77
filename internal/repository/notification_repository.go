package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/condo-manager/internal/model"
)

// NotificationRepo persists notifications and their per-account read
// receipts (`notification_reads`, unique on notification_id+account_id).
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationColumns = `n.id, n.title, n.body, n.target_resident_id, n.author_id, n.sent_at`

func scanNotification(s rowScanner, extra ...any) (model.Notification, error) {
	var (
		n      model.Notification
		target sql.NullInt64
	)
	dest := append([]any{&n.ID, &n.Title, &n.Body, &target, &n.AuthorID, &n.SentAt}, extra...)
	err := s.Scan(dest...)
	n.TargetResidentID = idPtr(target)
	return n, mapError(err)
}

// visibility appends the resident filter: a nil residentID sees every
// notification, otherwise broadcasts plus those targeting the resident.
func visibility(q string, args []any, residentID *uint64) (string, []any) {
	if residentID == nil {
		return q, args
	}
	return q + ` AND (n.target_resident_id IS NULL OR n.target_resident_id = ?)`, append(args, *residentID)
}

// Create inserts n and reads back its id and sent_at.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	q := querier(ctx, r.db)
	id, err := insertID(q.ExecContext(ctx,
		`INSERT INTO notifications (title, body, target_resident_id, author_id) VALUES (?, ?, ?, ?)`,
		n.Title, n.Body, nullableID(n.TargetResidentID), n.AuthorID))
	if err != nil {
		return err
	}
	n.ID = id
	return mapError(q.QueryRowContext(ctx, `SELECT sent_at FROM notifications WHERE id = ?`, id).Scan(&n.SentAt))
}

// GetByID returns ErrNotFound when the notification does not exist.
func (r *NotificationRepo) GetByID(ctx context.Context, id uint64) (model.Notification, error) {
	return scanNotification(querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications n WHERE n.id = ?`, id))
}

// ListWithReadState returns the notifications visible to residentID
// (every one when nil), newest first, each flagged with whether accountID
// holds a receipt for it.
func (r *NotificationRepo) ListWithReadState(ctx context.Context, accountID uint64, residentID *uint64) ([]model.NotificationItem, error) {
	q, args := visibility(
		`SELECT `+notificationColumns+`, nr.account_id IS NOT NULL
		   FROM notifications n
		   LEFT JOIN notification_reads nr ON nr.notification_id = n.id AND nr.account_id = ?
		  WHERE 1 = 1`, []any{accountID}, residentID)
	q += ` ORDER BY n.sent_at DESC, n.id DESC`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, args...)
	return collect(rows, err, func(s rowScanner) (model.NotificationItem, error) {
		var read bool
		n, err := scanNotification(s, &read)
		return model.NotificationItem{Notification: n, Read: read}, err
	})
}

// CountUnread counts the notifications visible to residentID that
// accountID has no receipt for.
func (r *NotificationRepo) CountUnread(ctx context.Context, accountID uint64, residentID *uint64) (int, error) {
	q, args := visibility(
		`SELECT COUNT(*)
		   FROM notifications n
		   LEFT JOIN notification_reads nr ON nr.notification_id = n.id AND nr.account_id = ?
		  WHERE nr.account_id IS NULL`, []any{accountID}, residentID)
	var n int
	err := querier(ctx, r.db).QueryRowContext(ctx, q, args...).Scan(&n)
	return n, mapError(err)
}

// InsertReceipt records that accountID has seen the notification.  It
// reports false without error when a receipt already exists, which is how
// a concurrent listing that won the race shows up.
func (r *NotificationRepo) InsertReceipt(ctx context.Context, notificationID, accountID uint64) (bool, error) {
	_, err := querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO notification_reads (notification_id, account_id) VALUES (?, ?)`,
		notificationID, accountID)
	if err != nil {
		if IsDuplicate(err) {
			return false, nil
		}
		return false, mapError(err)
	}
	return true, nil
}

// Delete removes the notification and every receipt it owns.  Callers run
// it inside a transaction so both statements commit together.
func (r *NotificationRepo) Delete(ctx context.Context, id uint64) error {
	q := querier(ctx, r.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM notification_reads WHERE notification_id = ?`, id); err != nil {
		return mapError(err)
	}
	return affected(q.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id))
}
