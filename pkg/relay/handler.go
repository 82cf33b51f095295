package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roboricindustries/raycon-guild-events/pkg/pubsub"
	"github.com/roboricindustries/raycon-guild-events/pkg/scheduled"
	scheduledevent "github.com/roboricindustries/raycon-guild-events/pkg/schemas/scheduledevent/v1"
)

// Handler applies gateway dispatches to the Store and emits the resulting
// notifications. A failed emission rolls the Store back so the redelivered
// dispatch produces the same notifications again.
type Handler struct {
	store   *Store
	emitter *scheduled.Emitter
	log     *slog.Logger
}

func NewHandler(store *Store, emitter *scheduled.Emitter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, emitter: emitter, log: logger}
}

// Register binds the handler to every scheduled event dispatch key.
func (h *Handler) Register(sub pubsub.Subscriber) {
	handle := pubsub.JSONHandler(h.Handle)
	for _, t := range []string{scheduledevent.DispatchCreate, scheduledevent.DispatchUpdate, scheduledevent.DispatchDelete} {
		key, _ := scheduledevent.DispatchRoutingKey(t)
		sub.RegisterHandler(key, handle)
	}
}

func (h *Handler) Handle(ctx context.Context, d scheduledevent.DispatchV1) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pubsub.ErrPoison, err)
	}
	snap, err := scheduled.UnmarshalSnapshot(d.D)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", pubsub.ErrPoison, d.T, err)
	}

	switch d.T {
	case scheduledevent.DispatchCreate:
		return h.created(ctx, snap)
	case scheduledevent.DispatchUpdate:
		return h.updated(ctx, snap)
	default:
		return h.deleted(ctx, snap)
	}
}

func (h *Handler) created(ctx context.Context, snap scheduled.Snapshot) error {
	h.store.Put(snap)
	return h.emitter.Created(ctx, snap)
}

func (h *Handler) updated(ctx context.Context, snap scheduled.Snapshot) error {
	old, ok := h.store.Swap(snap)
	if !ok {
		h.log.Debug("update for uncached scheduled event, caching without notification",
			slog.String("event_id", snap.ID.String()),
			slog.String("guild_id", snap.GuildID.String()),
		)
		return nil
	}
	if err := h.emitter.Updated(ctx, old, snap); err != nil {
		h.store.Restore(old, snap)
		return err
	}
	return nil
}

func (h *Handler) deleted(ctx context.Context, snap scheduled.Snapshot) error {
	old, ok := h.store.Remove(snap.ID)
	if !ok {
		h.log.Debug("delete for uncached scheduled event, ignoring",
			slog.String("event_id", snap.ID.String()),
			slog.String("guild_id", snap.GuildID.String()),
		)
		return nil
	}
	if err := h.emitter.Deleted(ctx, old); err != nil {
		h.store.Restore(old, scheduled.Snapshot{})
		return err
	}
	return nil
}
