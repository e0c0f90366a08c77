package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/model"
)

// Messaging is implemented by service.MessagingService.
type Messaging interface {
	Send(ctx context.Context, actor *model.Actor, recipientID uint64, body string) (model.DirectMessage, error)
	Conversations(ctx context.Context, actor *model.Actor, activePeer *uint64) ([]model.Conversation, error)
	OpenThread(ctx context.Context, actor *model.Actor, peerID uint64) ([]model.DirectMessage, error)
	Contacts(ctx context.Context, actor *model.Actor) ([]model.AccountSummary, error)
	UnreadTotal(ctx context.Context, actor *model.Actor) (int, error)
}

type MessageHandler struct {
	Messaging Messaging
}

func NewMessageHandler(m Messaging) *MessageHandler { return &MessageHandler{Messaging: m} }

type sendReq struct {
	Body string `json:"body" validate:"max=4000"`
}

// Conversations lists one entry per peer; ?peer= keeps a freshly opened
// thread in the list even before the first message.
func (h *MessageHandler) Conversations(c echo.Context) error {
	peer, ok, err := optionalID(c, "peer")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	convs, err := h.Messaging.Conversations(ctx, actor(c), peer)
	if err != nil {
		return respondError(c, err)
	}
	unread, err := h.Messaging.UnreadTotal(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": convs, "unread_total": unread})
}

func (h *MessageHandler) Contacts(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Messaging.Contacts(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// Thread opens the exchange with :peer, marking their messages read.
func (h *MessageHandler) Thread(c echo.Context) error {
	peer, ok, err := pathID(c, "peer")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	msgs, err := h.Messaging.OpenThread(ctx, actor(c), peer)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": msgs})
}

func (h *MessageHandler) Send(c echo.Context) error {
	peer, ok, err := pathID(c, "peer")
	if !ok {
		return err
	}
	var req sendReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	m, err := h.Messaging.Send(ctx, actor(c), peer, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}
