package pubsub

import (
	"context"
	"log/slog"

	"github.com/roboricindustries/raycon-guild-events/pkg/schemas/common"
)

// FallbackPublisher drops every message. The relay uses it when the broker
// is unreachable at startup and publishing is optional.
type FallbackPublisher struct {
	log *slog.Logger
}

func (p *FallbackPublisher) Publish(ctx context.Context, key string, msg common.Envelope) error {
	p.log.Warn("FallbackPublisher: skipped publish",
		slog.String("key", key),
		slog.String("type", msg.Meta.Type),
	)
	return nil
}

func (p *FallbackPublisher) Close() error {
	return nil
}

func NewFallback(logger *slog.Logger) Publisher {
	return &FallbackPublisher{
		log: resolveLogger(logger),
	}
}
