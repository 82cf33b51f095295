package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/roboricindustries/raycon-guild-events/pkg/schemas/common"
)

type Publisher interface {
	Publish(ctx context.Context, key string, msg common.Envelope) error
	Close() error
}

type rmqClient struct {
	conn     *amqp091.Connection
	exchange string
	log      *slog.Logger

	mu sync.Mutex
	ch *amqp091.Channel
}

// NewPublisher publishes to exchange over conn, which the caller keeps
// ownership of. Every Publish waits for the broker confirm.
func NewPublisher(conn *amqp091.Connection, exchange string, logger *slog.Logger) (Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, err
	}

	return &rmqClient{
		conn:     conn,
		exchange: exchange,
		log:      resolveLogger(logger),
		ch:       ch,
	}, nil
}

// channel returns the confirm channel, reopening it after a channel-level
// error. Callers hold r.mu.
func (r *rmqClient) channel() (*amqp091.Channel, error) {
	if r.ch != nil && !r.ch.IsClosed() {
		return r.ch, nil
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, err
	}
	r.ch = ch
	return ch, nil
}

func (r *rmqClient) Publish(ctx context.Context, key string, msg common.Envelope) error {
	pub, err := publishing(msg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, err := r.channel()
	if err != nil {
		return fmt.Errorf("open publish channel: %w", err)
	}
	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, r.exchange, key, false, false, pub)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", key, err)
	}
	if !acked {
		return fmt.Errorf("publish %s: nacked by broker", key)
	}

	r.log.Info("published",
		slog.String("key", key),
		slog.String("exchange", r.exchange),
		slog.String("message_id", pub.MessageId),
	)
	return nil
}

// publishing builds the AMQP message for msg. Missing ids are generated.
func publishing(msg common.Envelope) (amqp091.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("encode %s: %w", msg.Meta.Type, err)
	}

	msgID := msg.Meta.ID
	if msgID == "" {
		msgID = uuid.NewString()
	}
	var cid string
	if msg.Meta.CorrelationID != nil {
		cid = *msg.Meta.CorrelationID
	} else {
		cid = uuid.NewString()
	}
	ts := msg.Meta.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var appID string
	if msg.Meta.Producer != nil {
		appID = *msg.Meta.Producer
	}

	return amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msgID,
		CorrelationId: cid,
		Timestamp:     ts,
		Type:          msg.Meta.Type,
		AppId:         appID,
		Body:          body,
	}, nil
}

func (r *rmqClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch == nil || r.ch.IsClosed() {
		return nil
	}
	return r.ch.Close()
}
