package scheduledevent

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var observed = time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

func validSnapshot() SnapshotV1 {
	end := observed.Add(3 * time.Hour)
	return SnapshotV1{
		Event:     EventRef{GuildID: "81384788765712384", EventID: "1052246218612668458"},
		Name:      "Harbour cleanup",
		Location:  LocationV1{EntityType: EntityExternal, Text: "Pier 9"},
		StartTime: observed.Add(time.Hour),
		EndTime:   &end,
		Status:    "scheduled",
	}
}

func issueFields(t *testing.T, err error) []string {
	t.Helper()
	require.ErrorIs(t, err, ErrInvalidContract)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	fields := make([]string, 0, len(ve.Issues))
	for _, is := range ve.Issues {
		fields = append(fields, is.Field)
	}
	return fields
}

func TestCreatedValidate(t *testing.T) {
	c := CreatedV1{Snapshot: validSnapshot(), ObservedAt: observed}
	require.NoError(t, c.Validate())

	c.Snapshot.EndTime = nil
	c.Snapshot.Status = "paused"
	c.ObservedAt = time.Time{}
	require.ElementsMatch(t,
		[]string{"snapshot.status", "snapshot.end_time", "observed_at"},
		issueFields(t, c.Validate()))
}

func TestSnapshotLocationRules(t *testing.T) {
	s := validSnapshot()
	s.Location = LocationV1{EntityType: EntityVoice, Text: "Pier 9"}
	d := DeletedV1{Snapshot: s, ObservedAt: observed}
	require.ElementsMatch(t,
		[]string{"snapshot.location.channel_id", "snapshot.location.text"},
		issueFields(t, d.Validate()))

	d.Snapshot.Location = LocationV1{EntityType: "forum"}
	require.Equal(t, []string{"snapshot.location.entity_type"}, issueFields(t, d.Validate()))

	d.Snapshot.Location = LocationV1{EntityType: EntityStageInstance, ChannelID: "155101607195836417"}
	d.Snapshot.EndTime = nil
	require.NoError(t, d.Validate())
}

func TestFieldUpdatedValidate(t *testing.T) {
	s := validSnapshot()
	u := FieldUpdatedV1{
		Event:      s.Event,
		Field:      "status",
		Old:        json.RawMessage(`"scheduled"`),
		New:        json.RawMessage(`"active"`),
		Snapshot:   s,
		ObservedAt: observed,
	}
	u.Snapshot.Status = "active"
	require.NoError(t, u.Validate())

	u.Field = "privacy"
	u.Old = nil
	u.Event.EventID = "1"
	require.ElementsMatch(t,
		[]string{"field", "old", "snapshot.event"},
		issueFields(t, u.Validate()))
}

func TestRoutingKeys(t *testing.T) {
	require.Equal(t, "scheduled_events.updated.start_time.v1", UpdatedRoutingKey("start_time"))
	m := UpdatedMeta("name")
	require.Equal(t, EventFieldUpdated, m.EventType)
	require.Equal(t, Exchange, m.Exchange)
	require.Equal(t, "scheduled_events.updated.name.v1", m.RoutingKey)

	key, ok := DispatchRoutingKey(DispatchDelete)
	require.True(t, ok)
	require.Equal(t, "gateway.guild_scheduled_event.delete", key)
	_, ok = DispatchRoutingKey("GUILD_CREATE")
	require.False(t, ok)
}

func TestDispatchValidate(t *testing.T) {
	d, err := UnmarshalDispatchV1([]byte(`{"t":"GUILD_SCHEDULED_EVENT_UPDATE","s":42,"d":{"id":"1"}}`))
	require.NoError(t, err)
	require.NoError(t, d.Validate())
	require.EqualValues(t, 42, d.S)
	require.JSONEq(t, `{"id":"1"}`, string(d.D))

	d, err = UnmarshalDispatchV1([]byte(`{"t":"MESSAGE_CREATE","d":null}`))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"t", "d"}, issueFields(t, d.Validate()))
}
