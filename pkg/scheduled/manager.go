package scheduled

import (
	"context"
	"fmt"
	"log/slog"
)

// Manager stages a partial update of an existing scheduled event. It is
// not safe for concurrent use, and only one Submit may be in flight.
type Manager struct {
	draft

	baseline  Snapshot
	requester Requester
	opts      options
}

func NewManager(baseline Snapshot, requester Requester, opts ...Option) *Manager {
	return &Manager{
		baseline:  baseline,
		requester: requester,
		opts:      buildOptions(opts),
	}
}

// Baseline is the snapshot the staged changes apply to, refreshed from the
// configured SnapshotSource when it knows a newer one.
func (m *Manager) Baseline() Snapshot {
	if m.opts.source != nil {
		if s, ok := m.opts.source.SnapshotOf(m.baseline.ID); ok {
			m.baseline = s
		}
	}
	return m.baseline
}

// Finalize validates the change set and returns the payload of the dirty
// fields. On success the change set is cleared.
func (m *Manager) Finalize() (Payload, error) {
	base := m.Baseline()
	if err := m.validate(&base); err != nil {
		return nil, err
	}
	p := m.payload(false)
	m.Reset()
	return p, nil
}

// Submit sends the change set to the platform. The change set is cleared
// only once the requester reports success, so a failed Submit can be
// retried as is. An empty change set returns the baseline without a
// request.
func (m *Manager) Submit(ctx context.Context) (Snapshot, error) {
	base := m.Baseline()
	if err := m.validate(&base); err != nil {
		return Snapshot{}, err
	}
	if m.dirty.empty() {
		return base, nil
	}

	route := ModifyScheduledEventRoute(base.GuildID, base.ID)
	resp, err := execute(ctx, m.requester, Request{Route: route, Body: m.payload(false)})
	if err != nil {
		return Snapshot{}, err
	}
	m.Reset()

	updated, err := UnmarshalSnapshot(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("modified %s: %w", base, err)
	}
	m.baseline = updated

	if m.opts.emitter != nil {
		if err := m.opts.emitter.Updated(ctx, base, updated); err != nil {
			m.opts.logger.Error("scheduled event update notification failed",
				slog.String("event_id", updated.ID.String()),
				slog.Any("error", err),
			)
		}
	}
	return updated, nil
}

// Delete removes the event on the platform.
func (m *Manager) Delete(ctx context.Context) error {
	base := m.Baseline()
	route := DeleteScheduledEventRoute(base.GuildID, base.ID)
	if _, err := execute(ctx, m.requester, Request{Route: route}); err != nil {
		return err
	}
	m.Reset()

	if m.opts.emitter != nil {
		if err := m.opts.emitter.Deleted(ctx, base); err != nil {
			m.opts.logger.Error("scheduled event delete notification failed",
				slog.String("event_id", base.ID.String()),
				slog.Any("error", err),
			)
		}
	}
	return nil
}
