package model

import "time"

// Notification is an announcement written by an administrator.  A nil
// TargetResidentID makes it a broadcast visible to every resident.
// Notifications are immutable after publication; only their read
// receipts grow.
type Notification struct {
	ID               uint64    `json:"id"`                           // notifications.id
	Title            string    `json:"title"`                        // notifications.title
	Body             string    `json:"body"`                         // notifications.body
	TargetResidentID *uint64   `json:"target_resident_id,omitempty"` // notifications.target_resident_id (nullable)
	AuthorID         uint64    `json:"author_id"`                    // notifications.author_id
	SentAt           time.Time `json:"sent_at"`                      // notifications.sent_at
}

// Broadcast reports whether the notification targets every resident.
func (n Notification) Broadcast() bool { return n.TargetResidentID == nil }

// VisibleTo reports whether a resident may see the notification.
func (n Notification) VisibleTo(residentID uint64) bool {
	return n.TargetResidentID == nil || *n.TargetResidentID == residentID
}

// ReadReceipt marks that an account has seen a notification.  The pair
// (NotificationID, AccountID) is unique in `notification_reads`.
type ReadReceipt struct {
	NotificationID uint64    // notification_reads.notification_id
	AccountID      uint64    // notification_reads.account_id
	ReadAt         time.Time // notification_reads.read_at
}

// NotificationItem pairs a notification with whether the viewer had
// already read it before the current listing.
type NotificationItem struct {
	Notification
	Read bool `json:"read"`
}
