package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/policy"
	"github.com/iliyamo/condo-manager/internal/queue"
	"github.com/iliyamo/condo-manager/internal/repository"
)

// MessagingService is the two-party messaging engine.  Residents may only
// write to administrators; administrators may write to anyone active.
type MessagingService struct {
	tx       TxRunner
	messages MessageStore
	accounts AccountStore
	events   queue.EventPublisher
}

func NewMessagingService(tx TxRunner, messages MessageStore, accounts AccountStore, events queue.EventPublisher) *MessagingService {
	return &MessagingService{tx: tx, messages: messages, accounts: accounts, events: events}
}

// CanMessage reports whether from may send to to.
func (s *MessagingService) CanMessage(from, to model.AccountSummary) bool {
	return policy.CanMessage(from, to)
}

// Send delivers body from actor to recipientID.
func (s *MessagingService) Send(ctx context.Context, actor *model.Actor, recipientID uint64, body string) (model.DirectMessage, error) {
	if err := policy.Authorize(actor, policy.ActionSendMessage, nil); err != nil {
		return model.DirectMessage{}, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return model.DirectMessage{}, ErrEmptyBody
	}
	m := model.DirectMessage{SenderID: actor.AccountID, RecipientID: recipientID, Body: body}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		to, err := s.accounts.GetSummary(ctx, recipientID)
		if err != nil {
			return err
		}
		if !policy.CanMessage(summaryOf(actor), to) {
			return fmt.Errorf("%w: cannot message account %d", policy.ErrPermissionDenied, recipientID)
		}
		return s.messages.Create(ctx, &m)
	})
	if err != nil {
		return model.DirectMessage{}, err
	}
	queue.Emit(ctx, s.events, queue.EventMessageSent, actor.AccountID, queue.MessageEvent{
		MessageID:   m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
	})
	return m, nil
}

// Conversations summarizes the actor's exchanges, one entry per peer,
// most recent first.  When activePeer names an account with no messages
// yet it is appended last so a freshly opened thread still shows up.
func (s *MessagingService) Conversations(ctx context.Context, actor *model.Actor, activePeer *uint64) ([]model.Conversation, error) {
	if err := policy.Authenticated(actor); err != nil {
		return nil, err
	}
	self := actor.AccountID
	msgs, err := s.messages.ListInvolving(ctx, self)
	if err != nil {
		return nil, err
	}

	byPeer := map[uint64]*model.Conversation{}
	var order []uint64
	for i := range msgs {
		m := msgs[i]
		peer := m.PeerOf(self)
		if peer == self {
			continue
		}
		c, ok := byPeer[peer]
		if !ok {
			c = &model.Conversation{Peer: model.AccountSummary{ID: peer}}
			byPeer[peer] = c
			order = append(order, peer)
		}
		if c.LastMessage == nil || m.SentAt.After(*c.LastTimestamp) ||
			(m.SentAt.Equal(*c.LastTimestamp) && m.ID > c.LastMessage.ID) {
			c.LastMessage = &m
			ts := m.SentAt
			c.LastTimestamp = &ts
		}
		if m.RecipientID == self && m.SenderID == peer && m.ReadAt == nil {
			c.UnreadCount++
		}
	}

	ids := append([]uint64(nil), order...)
	appendActive := activePeer != nil && *activePeer != self && byPeer[*activePeer] == nil
	if appendActive {
		ids = append(ids, *activePeer)
	}
	peers, err := s.accounts.GetSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.Conversation, 0, len(ids))
	for _, id := range order {
		c := byPeer[id]
		if p, ok := peers[id]; ok {
			c.Peer = p
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastTimestamp.After(*out[j].LastTimestamp)
	})
	if appendActive {
		if p, ok := peers[*activePeer]; ok {
			out = append(out, model.Conversation{Peer: p})
		}
	}
	return out, nil
}

// OpenThread marks every unread message from peerID to the actor as read
// and returns the whole exchange oldest first, in one transaction.
//
// A non-administrator may open a thread with an administrator, or with any
// account they already share messages with.  Every other peer id, missing
// or not, yields ErrPermissionDenied so account ids cannot be enumerated.
func (s *MessagingService) OpenThread(ctx context.Context, actor *model.Actor, peerID uint64) ([]model.DirectMessage, error) {
	if err := policy.Authenticated(actor); err != nil {
		return nil, err
	}
	if peerID == actor.AccountID {
		return nil, invalid("peer", "cannot open a thread with yourself")
	}
	var thread []model.DirectMessage
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		peer, err := s.accounts.GetSummary(ctx, peerID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if !actor.IsAdmin() {
				return fmt.Errorf("%w: no thread with account %d", policy.ErrPermissionDenied, peerID)
			}
			return fmt.Errorf("account %d: %w", peerID, err)
		}
		if !actor.IsAdmin() && peer.Role != model.RoleAdministrator {
			prior, err := s.messages.Thread(ctx, actor.AccountID, peerID)
			if err != nil {
				return err
			}
			if len(prior) == 0 {
				return fmt.Errorf("%w: no thread with account %d", policy.ErrPermissionDenied, peerID)
			}
		}
		if _, err := s.messages.MarkRead(ctx, actor.AccountID, peerID); err != nil {
			return err
		}
		thread, err = s.messages.Thread(ctx, actor.AccountID, peerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return thread, nil
}

// Contacts lists the active accounts the actor may write to.
func (s *MessagingService) Contacts(ctx context.Context, actor *model.Actor) ([]model.AccountSummary, error) {
	if err := policy.Authenticated(actor); err != nil {
		return nil, err
	}
	var role *model.Role
	if !actor.IsAdmin() {
		admin := model.RoleAdministrator
		role = &admin
	}
	all, err := s.accounts.ListSummaries(ctx, true, role)
	if err != nil {
		return nil, err
	}
	from := summaryOf(actor)
	out := make([]model.AccountSummary, 0, len(all))
	for _, a := range all {
		if policy.CanMessage(from, a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// UnreadTotal counts the actor's unread direct messages across all peers.
func (s *MessagingService) UnreadTotal(ctx context.Context, actor *model.Actor) (int, error) {
	if err := policy.Authenticated(actor); err != nil {
		return 0, err
	}
	return s.messages.CountUnread(ctx, actor.AccountID)
}

func summaryOf(a *model.Actor) model.AccountSummary {
	return model.AccountSummary{ID: a.AccountID, Login: a.Login, Role: a.Role, Active: a.Active}
}
