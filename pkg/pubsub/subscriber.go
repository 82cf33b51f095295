package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jzelinskie/stringz"
	"github.com/rabbitmq/amqp091-go"
)

// ErrPoison marks a delivery that can never succeed, such as one whose body
// does not decode. Poison deliveries are not retried.
var ErrPoison = errors.New("poison message")

type correlationKey struct{}

// WithCorrelationID attaches the correlation id of the delivery being
// handled, so messages published while handling it can carry it on.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

type HandlerFunc func(context.Context, amqp091.Delivery) error

// JSONHandler decodes the body into T before calling h. Decode failures are
// reported as ErrPoison.
func JSONHandler[T any](h func(context.Context, T) error) HandlerFunc {
	return func(ctx context.Context, d amqp091.Delivery) error {
		var v T
		if err := json.Unmarshal(d.Body, &v); err != nil {
			return fmt.Errorf("%w: %v", ErrPoison, err)
		}
		return h(ctx, v)
	}
}

type Subscriber interface {
	RegisterHandler(routingKey string, handler HandlerFunc)
	Start(queueName string) error
	Close() error
}

type SubscriberOptions struct {
	BufferCap      int
	Workers        int
	Prefetch       int
	HandlerTimeout time.Duration
	// Retry enables the DLX retry stage; nil requeues failed deliveries
	// immediately.
	Retry *RetryPolicy
}

func (o SubscriberOptions) withDefaults() SubscriberOptions {
	if o.BufferCap <= 0 {
		o.BufferCap = 64
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Prefetch <= 0 {
		o.Prefetch = 10
	}
	if o.HandlerTimeout <= 0 {
		o.HandlerTimeout = 10 * time.Second
	}
	return o
}

type rmqSubscriber struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
	log      *slog.Logger
	opts     SubscriberOptions
	handlers map[string]HandlerFunc
	msgChan  chan amqp091.Delivery
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	stopOnce sync.Once

	queue string
	retry *RetryConfig
	// park copies a delivery to the final queue.
	park func(context.Context, amqp091.Delivery) error
}

// NewSubscriber consumes from exchange over conn. The caller keeps
// ownership of conn.
func NewSubscriber(conn *amqp091.Connection, exchange string, logger *slog.Logger, opts SubscriberOptions) (Subscriber, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	s := newSubscriber(exchange, logger, opts)
	s.conn = conn
	s.ch = ch
	return s, nil
}

func newSubscriber(exchange string, logger *slog.Logger, opts SubscriberOptions) *rmqSubscriber {
	opts = opts.withDefaults()
	return &rmqSubscriber{
		exchange: exchange,
		log:      resolveLogger(logger),
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
		msgChan:  make(chan amqp091.Delivery, opts.BufferCap),
		done:     make(chan struct{}),
	}
}

// RegisterHandler must be called before Start.
func (s *rmqSubscriber) RegisterHandler(routingKey string, handler HandlerFunc) {
	s.handlers[routingKey] = handler
}

func (s *rmqSubscriber) Start(queueName string) error {
	var startErr error
	s.once.Do(func() {
		if err := s.setupQueue(queueName); err != nil {
			startErr = err
			return
		}

		s.runWorkerPool()
		s.log.Info("subscriber started",
			slog.String("queue", queueName),
			slog.Int("workers", s.opts.Workers),
			slog.Bool("retry", s.retry != nil),
		)
	})
	return startErr
}

func (s *rmqSubscriber) setupQueue(queueName string) error {
	s.queue = queueName
	if err := s.ch.Qos(s.opts.Prefetch, 0, false); err != nil {
		return err
	}

	var args amqp091.Table
	if s.opts.Retry != nil {
		s.retry = s.opts.Retry.config(s.ch, queueName, s.exchange)
		if err := SetupRetryInfra(s.retry); err != nil {
			return fmt.Errorf("retry topology for %s: %w", queueName, err)
		}
		args = s.retry.MainQueueArgs()
		final := s.retry.FinalExchange
		s.park = func(ctx context.Context, d amqp091.Delivery) error {
			return publishFinal(ctx, s.ch, final, d)
		}
	}

	q, err := s.ch.QueueDeclare(queueName, true, false, false, false, args)
	if err != nil {
		return err
	}
	for key := range s.handlers {
		if err := s.ch.QueueBind(q.Name, key, s.exchange, false, nil); err != nil {
			return err
		}
	}
	msgs, err := s.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		defer close(s.msgChan)
		for {
			select {
			case <-s.done:
				return
			case msg, ok := <-msgs:
				if !ok {
					s.log.Warn("delivery channel closed", slog.String("queue", queueName))
					return
				}
				select {
				case s.msgChan <- msg:
				case <-s.done:
					_ = msg.Nack(false, true)
					return
				}
			}
		}
	}()
	return nil
}

func (s *rmqSubscriber) runWorkerPool() {
	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.workerLoop()
	}
}

func (s *rmqSubscriber) workerLoop() {
	defer s.wg.Done()
	for msg := range s.msgChan {
		s.handle(msg)
	}
}

// handle runs the handler for one delivery and settles it.
func (s *rmqSubscriber) handle(msg amqp091.Delivery) {
	logger := s.log.With(slog.String("key", msg.RoutingKey), slog.String("message_id", msg.MessageId))

	if s.retry != nil && s.retry.MaxAttempts > 0 && DeathCount(msg, s.queue) >= s.retry.MaxAttempts {
		logger.Error("retries exhausted", slog.Int("attempts", s.retry.MaxAttempts))
		s.reject(logger, msg)
		return
	}

	handler, ok := s.handlers[msg.RoutingKey]
	if !ok {
		logger.Warn("no handler")
		s.reject(logger, msg)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.HandlerTimeout)
	ctx = WithCorrelationID(ctx, stringz.DefaultEmpty(msg.CorrelationId, msg.MessageId))
	err := handler(ctx, msg)
	cancel()

	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, ErrPoison):
		logger.Error("poison message", slog.Any("err", err))
		s.reject(logger, msg)
	case s.retry != nil:
		logger.Error("handler error, scheduling retry", slog.Any("err", err))
		_ = msg.Nack(false, false)
	default:
		logger.Error("handler error", slog.Any("err", err))
		_ = msg.Nack(false, true)
	}
}

// reject drops msg for good, keeping a copy in the final queue when the
// retry stage is configured.
func (s *rmqSubscriber) reject(logger *slog.Logger, msg amqp091.Delivery) {
	if s.park == nil {
		_ = msg.Nack(false, false)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.HandlerTimeout)
	defer cancel()
	if err := s.park(ctx, msg); err != nil {
		logger.Error("park message failed", slog.Any("err", err))
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

// Close stops consuming, waits for in-flight handlers and closes the
// channel.
func (s *rmqSubscriber) Close() error {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	if s.ch == nil {
		return nil
	}
	return s.ch.Close()
}
