package model

import "time"

// DirectMessage is a message from one account to another.  ReadAt is
// nil until the recipient opens the conversation.  Messages are never
// deleted.
type DirectMessage struct {
	ID          uint64     `json:"id"`           // direct_messages.id
	SenderID    uint64     `json:"sender_id"`    // direct_messages.sender_id
	RecipientID uint64     `json:"recipient_id"` // direct_messages.recipient_id
	Body        string     `json:"body"`         // direct_messages.body
	SentAt      time.Time  `json:"sent_at"`      // direct_messages.sent_at
	ReadAt      *time.Time `json:"read_at"`      // direct_messages.read_at (nullable)
}

// PeerOf returns the other party of m from the point of view of self.
func (m DirectMessage) PeerOf(self uint64) uint64 {
	if m.SenderID == self {
		return m.RecipientID
	}
	return m.SenderID
}

// Conversation summarizes the exchange between the viewer and one peer.
// LastMessage is nil for a peer the viewer opened but never wrote to.
type Conversation struct {
	Peer          AccountSummary `json:"peer"`
	LastMessage   *DirectMessage `json:"last_message"`
	LastTimestamp *time.Time     `json:"last_timestamp"`
	UnreadCount   int            `json:"unread_count"`
}
