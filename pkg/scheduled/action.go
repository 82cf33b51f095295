package scheduled

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/snowflake"
)

// Action stages the creation of a new scheduled event in a guild. Name,
// start time and location are required.
type Action struct {
	draft

	guildID   snowflake.ID
	requester Requester
	opts      options
}

func NewAction(guildID snowflake.ID, requester Requester, opts ...Option) *Action {
	return &Action{
		guildID:   guildID,
		requester: requester,
		opts:      buildOptions(opts),
	}
}

func (a *Action) GuildID() snowflake.ID { return a.guildID }

// Finalize validates the staged event and returns the creation payload.
// On success the change set is cleared.
func (a *Action) Finalize() (Payload, error) {
	if err := a.validate(nil); err != nil {
		return nil, err
	}
	p := a.payload(true)
	a.Reset()
	return p, nil
}

// Submit creates the event. The change set survives a failed request.
func (a *Action) Submit(ctx context.Context) (Snapshot, error) {
	if err := a.validate(nil); err != nil {
		return Snapshot{}, err
	}

	route := CreateScheduledEventRoute(a.guildID)
	resp, err := execute(ctx, a.requester, Request{Route: route, Body: a.payload(true)})
	if err != nil {
		return Snapshot{}, err
	}
	a.Reset()

	created, err := UnmarshalSnapshot(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("created scheduled event in guild %s: %w", a.guildID, err)
	}

	if a.opts.emitter != nil {
		if err := a.opts.emitter.Created(ctx, created); err != nil {
			a.opts.logger.Error("scheduled event create notification failed",
				slog.String("event_id", created.ID.String()),
				slog.Any("error", err),
			)
		}
	}
	return created, nil
}
