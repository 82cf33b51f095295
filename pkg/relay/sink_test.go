package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roboricindustries/raycon-guild-events/pkg/pubsub"
	"github.com/roboricindustries/raycon-guild-events/pkg/scheduled"
	scheduledevent "github.com/roboricindustries/raycon-guild-events/pkg/schemas/scheduledevent/v1"
)

func newTestSink(pub *fakePublisher) *PublisherSink {
	s := NewPublisherSink(pub, "", quietLogger)
	s.now = func() time.Time { return startTime.Add(-time.Hour) }
	return s
}

func TestSinkCreated(t *testing.T) {
	pub := &fakePublisher{}
	sink := newTestSink(pub)

	ctx := pubsub.WithCorrelationID(context.Background(), "corr-9")
	require.NoError(t, sink.Emit(ctx, scheduled.Notification{Kind: scheduled.NotificationCreated, Snapshot: eventSnapshot()}))

	require.Equal(t, []string{scheduledevent.EventCreated}, pub.keys())
	env := pub.msgs[0].env
	require.Equal(t, scheduledevent.EventCreated, env.Meta.Type)
	require.Equal(t, "corr-9", *env.Meta.CorrelationID)
	require.Equal(t, DefaultProducer, *env.Meta.Producer)

	data := dataJSON(t, env)
	snap := data["snapshot"].(map[string]any)
	require.Equal(t, map[string]any{"guild_id": "81384788765712384", "event_id": "1052246218612668458"}, snap["event"])
	require.Equal(t, map[string]any{"entity_type": "voice", "channel_id": "155101607195836416"}, snap["location"])
	require.Equal(t, "scheduled", snap["status"])
	require.Equal(t, "2026-11-01T17:00:00Z", data["observed_at"])
}

func TestSinkFieldUpdated(t *testing.T) {
	end := startTime.Add(time.Hour)
	testCases := []struct {
		name    string
		delta   scheduled.FieldDelta
		wantKey string
		wantOld any
		wantNew any
	}{
		{
			name:    "description set",
			delta:   scheduled.FieldDelta{Field: scheduled.FieldDescription, Old: nil, New: "Bring snacks"},
			wantKey: "scheduled_events.updated.description.v1",
			wantOld: nil,
			wantNew: "Bring snacks",
		},
		{
			name: "location",
			delta: scheduled.FieldDelta{
				Field: scheduled.FieldLocation,
				Old:   scheduled.VoiceLocation{ChannelID: voiceID},
				New:   scheduled.ExternalLocation{Text: "Pier 9"},
			},
			wantKey: "scheduled_events.updated.location.v1",
			wantOld: map[string]any{"entity_type": "voice", "channel_id": "155101607195836416"},
			wantNew: map[string]any{"entity_type": "external", "text": "Pier 9"},
		},
		{
			name:    "status",
			delta:   scheduled.FieldDelta{Field: scheduled.FieldStatus, Old: scheduled.StatusScheduled, New: scheduled.StatusActive},
			wantKey: "scheduled_events.updated.status.v1",
			wantOld: "scheduled",
			wantNew: "active",
		},
		{
			name:    "end time",
			delta:   scheduled.FieldDelta{Field: scheduled.FieldEndTime, Old: nil, New: end.In(time.FixedZone("CET", 3600))},
			wantKey: "scheduled_events.updated.end_time.v1",
			wantOld: nil,
			wantNew: "2026-11-01T19:00:00Z",
		},
		{
			name:    "interested count",
			delta:   scheduled.FieldDelta{Field: scheduled.FieldInterestedCount, Old: 3, New: 4},
			wantKey: "scheduled_events.updated.interested_count.v1",
			wantOld: float64(3),
			wantNew: float64(4),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &fakePublisher{}
			delta := tc.delta
			n := scheduled.Notification{Kind: scheduled.NotificationUpdated, Snapshot: eventSnapshot(), Delta: &delta}
			require.NoError(t, newTestSink(pub).Emit(context.Background(), n))

			require.Equal(t, []string{tc.wantKey}, pub.keys())
			env := pub.msgs[0].env
			require.Equal(t, scheduledevent.EventFieldUpdated, env.Meta.Type)
			data := dataJSON(t, env)
			require.Equal(t, tc.delta.Field.String(), data["field"])
			require.Equal(t, tc.wantOld, data["old"])
			require.Equal(t, tc.wantNew, data["new"])
		})
	}
}

func TestSinkRejects(t *testing.T) {
	pub := &fakePublisher{}
	sink := newTestSink(pub)

	invalid := eventSnapshot()
	invalid.Status = scheduled.StatusUnknown
	err := sink.Emit(context.Background(), scheduled.Notification{Kind: scheduled.NotificationDeleted, Snapshot: invalid})
	require.ErrorIs(t, err, scheduledevent.ErrInvalidContract)

	err = sink.Emit(context.Background(), scheduled.Notification{Kind: scheduled.NotificationUpdated, Snapshot: eventSnapshot()})
	require.Error(t, err)

	err = sink.Emit(context.Background(), scheduled.Notification{Kind: "renamed", Snapshot: eventSnapshot()})
	require.Error(t, err)
	require.Empty(t, pub.keys())

	pub.err = errBroker
	err = sink.Emit(context.Background(), scheduled.Notification{Kind: scheduled.NotificationCreated, Snapshot: eventSnapshot()})
	require.ErrorIs(t, err, errBroker)
}
