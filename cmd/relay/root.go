package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/roboricindustries/raycon-guild-events/internal/config"
	"github.com/roboricindustries/raycon-guild-events/pkg/pubsub"
	"github.com/roboricindustries/raycon-guild-events/pkg/relay"
	"github.com/roboricindustries/raycon-guild-events/pkg/scheduled"
)

func newRootCmd() *cobra.Command {
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Relays guild scheduled event changes to the message bus",
		Long: "Consumes scheduled event dispatches from the gateway exchange, keeps the latest " +
			"snapshot of every event and publishes one notification per changed field.\n\n" +
			"Every flag can also be set through the environment, e.g. --amqp-url as " + config.EnvName("amqp-url") + ".",
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ApplyEnv(cmd.Flags(), nil); err != nil {
				return err
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), &cfg)
		},
	}
	cfg.RegisterFlags(rootCmd.Flags())
	return rootCmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	conn, err := pubsub.DialWithRetry(ctx, pubsub.ConnectionOptions{
		URL:           cfg.AMQP.ConnectionURL(),
		RetryAttempts: cfg.AMQP.DialAttempts,
		Delay:         cfg.AMQP.DialDelay,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	pub, err := pubsub.NewPublisher(conn, cfg.Relay.EventsExchange, logger)
	if err != nil {
		if !cfg.Relay.PublishOptional {
			return fmt.Errorf("events publisher: %w", err)
		}
		logger.Warn("events exchange unavailable, notifications will be dropped",
			slog.String("exchange", cfg.Relay.EventsExchange),
			slog.Any("error", err),
		)
		pub = pubsub.NewFallback(logger)
	}
	defer pub.Close()

	store := relay.NewStore(cfg.Relay.StoreTTL)
	sink := relay.NewPublisherSink(pub, cfg.Relay.Producer, logger)
	emitter := scheduled.NewEmitter(sink, scheduled.WithLogger(logger))
	handler := relay.NewHandler(store, emitter, logger)

	opts := pubsub.SubscriberOptions{
		BufferCap:      cfg.Relay.Buffer,
		Workers:        cfg.Relay.Workers,
		Prefetch:       cfg.Relay.Prefetch,
		HandlerTimeout: cfg.Relay.HandlerTimeout,
	}
	if cfg.Relay.RetryTTL > 0 {
		opts.Retry = &pubsub.RetryPolicy{TTL: cfg.Relay.RetryTTL, MaxAttempts: cfg.Relay.MaxAttempts}
	}
	sub, err := pubsub.NewSubscriber(conn, cfg.Relay.DispatchExchange, logger, opts)
	if err != nil {
		return fmt.Errorf("dispatch subscriber: %w", err)
	}
	handler.Register(sub)
	if err := sub.Start(cfg.Relay.Queue); err != nil {
		_ = sub.Close()
		return fmt.Errorf("start %s: %w", cfg.Relay.Queue, err)
	}

	closed := conn.NotifyClose(make(chan *amqp091.Error, 1))
	select {
	case <-ctx.Done():
		logger.Info("shutting down", slog.Int("cached_events", store.Len()))
		return sub.Close()
	case amqpErr := <-closed:
		_ = sub.Close()
		return fmt.Errorf("amqp connection closed: %v", amqpErr)
	}
}
