package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/condo-manager/internal/model"
	"github.com/iliyamo/condo-manager/internal/service"
)

// Notifications is implemented by service.NotificationService.
type Notifications interface {
	Publish(ctx context.Context, actor *model.Actor, title, body string, targetResidentID *uint64) (model.Notification, error)
	ListFor(ctx context.Context, actor *model.Actor) (service.NotificationFeed, error)
	UnreadCount(ctx context.Context, actor *model.Actor) (int, error)
	Delete(ctx context.Context, actor *model.Actor, id uint64) error
}

type NotificationHandler struct {
	Notifications Notifications
}

func NewNotificationHandler(n Notifications) *NotificationHandler {
	return &NotificationHandler{Notifications: n}
}

type publishReq struct {
	Title            string  `json:"title" validate:"required,max=200"`
	Body             string  `json:"body" validate:"required"`
	TargetResidentID *uint64 `json:"target_resident_id"`
}

func (h *NotificationHandler) Publish(c echo.Context) error {
	var req publishReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	n, err := h.Notifications.Publish(ctx, actor(c), req.Title, req.Body, req.TargetResidentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, n)
}

// List returns the caller's feed and marks it read.
func (h *NotificationHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	feed, err := h.Notifications.ListFor(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, feed)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	n, err := h.Notifications.UnreadCount(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Notifications.Delete(ctx, actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
