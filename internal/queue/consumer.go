package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ConsumerConfig names the queue the activity log drains and where it is
// bound.
type ConsumerConfig struct {
	URL        string
	Exchange   string
	Queue      string
	BindingKey string // "#" receives every event
	Prefetch   int
}

// Handler processes one decoded event.  A returned error rejects the
// delivery without requeueing it.
type Handler func(ev Event) error

// Consume connects to the broker, declares the exchange and a durable
// queue bound to it, and feeds every delivery to handle.  It reconnects
// with exponential backoff until ctx is cancelled, then returns ctx.Err().
func Consume(ctx context.Context, cfg ConsumerConfig, log *logrus.Logger, handle Handler) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.WithError(err).Warnf("activity-consumer: failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, cfg, log, handle)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("activity-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, log *logrus.Logger, handle Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 50
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		log.WithError(err).Warn("activity-consumer: set QoS failed")
	}
	if err := DeclareExchange(ch, cfg.Exchange); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	key := cfg.BindingKey
	if key == "" {
		key = "#"
	}
	if err := ch.QueueBind(cfg.Queue, key, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleDelivery(d.Body, handle); err != nil {
				log.WithError(err).Warn("activity-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleDelivery decodes a message body and passes it to handle.
func HandleDelivery(body []byte, handle Handler) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	return handle(ev)
}

// ActivityLogger returns a Handler that writes one structured line per
// event to log.
func ActivityLogger(log *logrus.Logger) Handler {
	return func(ev Event) error {
		fields := logrus.Fields{
			"event_id":    ev.ID,
			"event":       ev.Type,
			"actor_id":    ev.ActorID,
			"occurred_at": ev.OccurredAt.Format(time.RFC3339),
		}
		var data map[string]any
		if len(ev.Data) > 0 {
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				return fmt.Errorf("decode %s payload: %w", ev.Type, err)
			}
		}
		for k, v := range data {
			fields["data."+k] = v
		}
		log.WithFields(fields).Info(describe(ev.Type))
		return nil
	}
}

func describe(t EventType) string {
	switch t {
	case EventReservationCreated:
		return "Reservation created"
	case EventReservationStatusChanged:
		return "Reservation status changed"
	case EventNotificationPublished:
		return "Notification published"
	case EventMessageSent:
		return "Message sent"
	}
	return string(t)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
