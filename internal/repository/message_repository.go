package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/condo-manager/internal/model"
)

// MessageRepo persists direct messages.  Messages are append-only; the
// only mutation is stamping read_at.
type MessageRepo struct{ db *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageColumns = `id, sender_id, recipient_id, body, sent_at, read_at`

func scanMessage(s rowScanner) (model.DirectMessage, error) {
	var (
		m    model.DirectMessage
		read sql.NullTime
	)
	err := s.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.SentAt, &read)
	m.ReadAt = timePtr(read)
	return m, mapError(err)
}

// Create inserts m and reads back its id and sent_at.
func (r *MessageRepo) Create(ctx context.Context, m *model.DirectMessage) error {
	q := querier(ctx, r.db)
	id, err := insertID(q.ExecContext(ctx,
		`INSERT INTO direct_messages (sender_id, recipient_id, body) VALUES (?, ?, ?)`,
		m.SenderID, m.RecipientID, m.Body))
	if err != nil {
		return err
	}
	m.ID = id
	return mapError(q.QueryRowContext(ctx, `SELECT sent_at FROM direct_messages WHERE id = ?`, id).Scan(&m.SentAt))
}

// ListInvolving returns every message sent or received by accountID,
// newest first.
func (r *MessageRepo) ListInvolving(ctx context.Context, accountID uint64) ([]model.DirectMessage, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT `+messageColumns+` FROM direct_messages
		  WHERE sender_id = ? OR recipient_id = ?
		  ORDER BY sent_at DESC, id DESC`, accountID, accountID)
	return collect(rows, err, scanMessage)
}

// Thread returns the messages exchanged between a and b, oldest first.
func (r *MessageRepo) Thread(ctx context.Context, a, b uint64) ([]model.DirectMessage, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT `+messageColumns+` FROM direct_messages
		  WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		  ORDER BY sent_at ASC, id ASC`, a, b, b, a)
	return collect(rows, err, scanMessage)
}

// MarkRead stamps read_at on every unread message from sender to
// recipient in one statement and returns how many it stamped.
func (r *MessageRepo) MarkRead(ctx context.Context, recipientID, senderID uint64) (int64, error) {
	res, err := querier(ctx, r.db).ExecContext(ctx,
		`UPDATE direct_messages SET read_at = UTC_TIMESTAMP(6)
		  WHERE sender_id = ? AND recipient_id = ? AND read_at IS NULL`, senderID, recipientID)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

// CountUnread counts messages addressed to accountID that are still
// unread.
func (r *MessageRepo) CountUnread(ctx context.Context, accountID uint64) (int, error) {
	var n int
	err := querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM direct_messages WHERE recipient_id = ? AND read_at IS NULL`, accountID).Scan(&n)
	return n, mapError(err)
}
