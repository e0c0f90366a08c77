package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/policy"
	"github.com/iliyamo/condo-manager/internal/queue"
	"github.com/iliyamo/condo-manager/internal/repository"
)

// NotificationService tracks announcements and who has read them.
// Listing is what marks notifications read: the feed reports the state
// before the call and the same transaction records receipts for the rest.
type NotificationService struct {
	tx            TxRunner
	notifications NotificationStore
	residents     ResidentStore
	events        queue.EventPublisher
}

func NewNotificationService(tx TxRunner, notifications NotificationStore, residents ResidentStore, events queue.EventPublisher) *NotificationService {
	return &NotificationService{tx: tx, notifications: notifications, residents: residents, events: events}
}

// NotificationFeed is the result of ListFor.  Items carry the read state
// observed before the call; NewCount is how many of them this call marked
// read.
type NotificationFeed struct {
	Items    []model.NotificationItem `json:"items"`
	NewCount int                      `json:"new_count"`
}

// Publish creates a notification.  A nil target makes it a broadcast.
func (s *NotificationService) Publish(ctx context.Context, actor *model.Actor, title, body string, targetResidentID *uint64) (model.Notification, error) {
	if err := policy.Authorize(actor, policy.ActionPublishNotification, nil); err != nil {
		return model.Notification{}, err
	}
	n := model.Notification{
		Title:            strings.TrimSpace(title),
		Body:             strings.TrimSpace(body),
		TargetResidentID: targetResidentID,
		AuthorID:         actor.AccountID,
	}
	if n.Title == "" {
		return model.Notification{}, invalid("title", "is required")
	}
	if n.Body == "" {
		return model.Notification{}, invalid("body", "is required")
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if targetResidentID != nil {
			ok, err := s.residents.Exists(ctx, *targetResidentID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("resident %d: %w", *targetResidentID, repository.ErrNotFound)
			}
		}
		return s.notifications.Create(ctx, &n)
	})
	if err != nil {
		return model.Notification{}, err
	}
	queue.Emit(ctx, s.events, queue.EventNotificationPublished, actor.AccountID, queue.NotificationEvent{
		NotificationID:   n.ID,
		Title:            n.Title,
		TargetResidentID: n.TargetResidentID,
		AuthorID:         n.AuthorID,
	})
	return n, nil
}

// ListFor returns the notifications visible to actor, newest first, and
// marks every unread one as read.  A receipt that a concurrent listing
// already created counts as read, not as new and not as an error.
func (s *NotificationService) ListFor(ctx context.Context, actor *model.Actor) (NotificationFeed, error) {
	visibleTo, err := s.visibility(actor)
	if err != nil {
		return NotificationFeed{}, err
	}
	var feed NotificationFeed
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		items, err := s.notifications.ListWithReadState(ctx, actor.AccountID, visibleTo)
		if err != nil {
			return err
		}
		created := 0
		for _, it := range items {
			if it.Read {
				continue
			}
			ok, err := s.notifications.InsertReceipt(ctx, it.ID, actor.AccountID)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		feed = NotificationFeed{Items: items, NewCount: created}
		return nil
	})
	if err != nil {
		return NotificationFeed{}, err
	}
	return feed, nil
}

// UnreadCount reports how many visible notifications the actor has not
// seen, without marking anything.
func (s *NotificationService) UnreadCount(ctx context.Context, actor *model.Actor) (int, error) {
	visibleTo, err := s.visibility(actor)
	if err != nil {
		return 0, err
	}
	return s.notifications.CountUnread(ctx, actor.AccountID, visibleTo)
}

// Delete removes a notification and its receipts.  Administrators only.
func (s *NotificationService) Delete(ctx context.Context, actor *model.Actor, id uint64) error {
	if err := policy.Authenticated(actor); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.notifications.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionDeleteNotification, policy.NotificationTarget(n)); err != nil {
			return err
		}
		return s.notifications.Delete(ctx, id)
	})
}

// visibility maps the actor's scope onto the store filter: nil for
// administrators, the resident id otherwise.
func (s *NotificationService) visibility(actor *model.Actor) (*uint64, error) {
	scope, err := policy.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	if scope.All {
		return nil, nil
	}
	id := scope.ResidentID
	return &id, nil
}
