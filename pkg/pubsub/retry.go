package pubsub

import (
	"context"
	"errors"
	"time"

	"github.com/jzelinskie/stringz"
	"github.com/rabbitmq/amqp091-go"
)

// RetryConfig describes the DLX retry stage of one queue. Failed deliveries
// are dead-lettered to DeadExchange, wait TTL in DeadQueue and are then
// dead-lettered back to RetryExchange with their original routing key.
// Deliveries that exhausted MaxAttempts, and poison ones, are parked in
// FinalQueue.
type RetryConfig struct {
	Channel *amqp091.Channel

	DeadExchange  string
	FinalExchange string
	RetryExchange string

	DeadQueue  string
	FinalQueue string

	TTL         time.Duration
	MaxAttempts int
}

// RetryPolicy is the subscriber-facing part of RetryConfig. Names left
// empty derive from the queue name.
type RetryPolicy struct {
	TTL         time.Duration
	MaxAttempts int

	DeadExchange  string
	DeadQueue     string
	FinalExchange string
	FinalQueue    string
}

func (p RetryPolicy) config(ch *amqp091.Channel, queue, exchange string) *RetryConfig {
	return &RetryConfig{
		Channel:       ch,
		DeadExchange:  stringz.DefaultEmpty(p.DeadExchange, queue+".dead"),
		DeadQueue:     stringz.DefaultEmpty(p.DeadQueue, queue+".dead"),
		FinalExchange: stringz.DefaultEmpty(p.FinalExchange, queue+".final"),
		FinalQueue:    stringz.DefaultEmpty(p.FinalQueue, queue+".final"),
		RetryExchange: exchange,
		TTL:           p.TTL,
		MaxAttempts:   p.MaxAttempts,
	}
}

// MainQueueArgs are the arguments the consuming queue must be declared
// with so rejected deliveries enter the retry stage.
func (cfg *RetryConfig) MainQueueArgs() amqp091.Table {
	return amqp091.Table{"x-dead-letter-exchange": cfg.DeadExchange}
}

func SetupRetryInfra(cfg *RetryConfig) error {
	if cfg == nil || cfg.Channel == nil {
		return errors.New("empty config")
	}
	if err := cfg.Channel.ExchangeDeclare(cfg.DeadExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := cfg.Channel.ExchangeDeclare(cfg.RetryExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := cfg.Channel.ExchangeDeclare(cfg.FinalExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	args := amqp091.Table{
		"x-message-ttl":          int32(cfg.TTL.Milliseconds()),
		"x-dead-letter-exchange": cfg.RetryExchange,
	}

	dq, err := cfg.Channel.QueueDeclare(cfg.DeadQueue, true, false, false, false, args)
	if err != nil {
		return err
	}
	if err := cfg.Channel.QueueBind(
		dq.Name, "#", cfg.DeadExchange, false, nil,
	); err != nil {
		return err
	}

	fq, err := cfg.Channel.QueueDeclare(cfg.FinalQueue, true, false, false, false, nil)
	if err != nil {
		return err
	}
	if err := cfg.Channel.QueueBind(
		fq.Name, "#", cfg.FinalExchange, false, nil,
	); err != nil {
		return err
	}
	return nil
}

// DeathCount is how often d was dead-lettered out of queue.
func DeathCount(d amqp091.Delivery, queue string) int {
	raw, ok := d.Headers["x-death"]
	if !ok {
		return 0
	}
	list, ok := raw.([]any)
	if !ok {
		return 0
	}
	for _, it := range list {
		m, ok := it.(amqp091.Table)
		if !ok {
			continue
		}
		if q, _ := m["queue"].(string); q != queue {
			continue
		}
		switch n := m["count"].(type) {
		case int64:
			return int(n)
		case int32:
			return int(n)
		case int:
			return n
		}
	}
	return 0
}

// publishFinal parks a copy of d in the final exchange under its original
// routing key.
func publishFinal(ctx context.Context, ch *amqp091.Channel, exchange string, d amqp091.Delivery) error {
	return ch.PublishWithContext(ctx, exchange, d.RoutingKey, false, false, amqp091.Publishing{
		ContentType:   stringz.DefaultEmpty(d.ContentType, "application/json"),
		Body:          d.Body,
		Headers:       d.Headers,
		MessageId:     d.MessageId,
		CorrelationId: d.CorrelationId,
		DeliveryMode:  amqp091.Persistent,
		Timestamp:     time.Now(),
		Type:          d.Type,
		AppId:         d.AppId,
	})
}
