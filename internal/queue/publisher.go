package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/condo-manager/internal/utils"
)

// EventPublisher is what the services depend on to announce changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Publisher sends domain events to a durable topic exchange.  The
// connection is opened lazily and re-dialed after a failure, so a broker
// outage never blocks the API; Publish just reports the error.
type Publisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher for exchange on the broker at url.  No
// connection is made until the first Publish.
func NewPublisher(url, exchange string) *Publisher {
	return &Publisher{url: url, exchange: exchange}
}

// Publish marshals ev and publishes it with routing key ev.Type.  Messages
// are marked persistent.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.ID,
		Type:         string(ev.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, pub); err != nil {
		p.reset()
		return err
	}
	return nil
}

// channel returns the open channel, dialing and declaring the exchange
// when needed.  Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareExchange(ch, p.exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// DeclareExchange declares the durable topic exchange events travel on.
// Declaring is idempotent.
func DeclareExchange(ch *amqp.Channel, exchange string) error {
	if exchange == "" {
		return errors.New("queue: empty exchange name")
	}
	return ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	)
}

// NopPublisher discards events.  It is used when EVENTS_ENABLED is off.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Emit builds an event and hands it to pub, logging instead of failing:
// the change it describes is already committed.
func Emit(ctx context.Context, pub EventPublisher, typ EventType, actorID uint64, data any) {
	if pub == nil {
		return
	}
	ev, err := NewEvent(typ, actorID, data)
	if err == nil {
		err = pub.Publish(ctx, ev)
	}
	if err != nil {
		utils.Logger.WithError(err).WithField("event", typ).Warn("event publish failed")
	}
}
