package scheduled

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type NotificationKind string

const (
	NotificationCreated NotificationKind = "created"
	NotificationUpdated NotificationKind = "updated"
	NotificationDeleted NotificationKind = "deleted"
)

// Notification is handed to a Sink. Snapshot is the new state for created
// and updated notifications and the last known state for deleted ones.
// Delta is set only for updated notifications.
type Notification struct {
	Kind     NotificationKind
	Snapshot Snapshot
	Delta    *FieldDelta
}

// Sink is the host's event-dispatch system.
type Sink interface {
	Emit(ctx context.Context, n Notification) error
}

type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Emit(ctx context.Context, n Notification) error { return f(ctx, n) }

// Emitter turns snapshot transitions into per-field notifications.
type Emitter struct {
	sink Sink
	log  *slog.Logger
}

func NewEmitter(sink Sink, opts ...Option) *Emitter {
	o := buildOptions(opts)
	return &Emitter{sink: sink, log: o.logger}
}

// Updated emits one notification per changed field. Every delta is
// attempted; failures are joined into the returned error.
func (e *Emitter) Updated(ctx context.Context, old, updated Snapshot) error {
	if old.ID != updated.ID {
		return fmt.Errorf("diff of different events %s and %s", old.ID, updated.ID)
	}

	deltas := Diff(old, updated)
	if len(deltas) == 0 {
		e.log.Debug("scheduled event update without observable change",
			slog.String("event_id", updated.ID.String()))
		return nil
	}

	var errs []error
	for _, d := range deltas {
		n := Notification{Kind: NotificationUpdated, Snapshot: updated, Delta: &d}
		if err := e.sink.Emit(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("emit %s change: %w", d.Field, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Emitter) Created(ctx context.Context, s Snapshot) error {
	return e.sink.Emit(ctx, Notification{Kind: NotificationCreated, Snapshot: s})
}

func (e *Emitter) Deleted(ctx context.Context, s Snapshot) error {
	return e.sink.Emit(ctx, Notification{Kind: NotificationDeleted, Snapshot: s})
}
