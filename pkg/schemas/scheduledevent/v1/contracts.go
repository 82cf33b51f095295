package scheduledevent

import (
	"encoding/json"
	"slices"
	"time"
)

const (
	EntityStageInstance = "stage_instance"
	EntityVoice         = "voice"
	EntityExternal      = "external"
)

var statuses = []string{"scheduled", "active", "completed", "canceled"}

// Fields that can appear in FieldUpdatedV1.Field.
var Fields = []string{
	"name", "description", "location", "start_time", "end_time", "image", "status", "interested_count",
}

type EventRef struct {
	GuildID string `json:"guild_id"`
	EventID string `json:"event_id"`
}

type LocationV1 struct {
	EntityType string `json:"entity_type"`          // stage_instance|voice|external
	ChannelID  string `json:"channel_id,omitempty"` // stage_instance, voice
	Text       string `json:"text,omitempty"`       // external
}

type SnapshotV1 struct {
	Event           EventRef   `json:"event"`
	Name            string     `json:"name"`
	Description     *string    `json:"description,omitempty"`
	Location        LocationV1 `json:"location"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	Status          string     `json:"status"`
	CreatorID       string     `json:"creator_id,omitempty"`
	InterestedCount int        `json:"interested_count"`
}

type CreatedV1 struct {
	Snapshot   SnapshotV1 `json:"snapshot"`
	ObservedAt time.Time  `json:"observed_at"`
}

// FieldUpdatedV1 carries one changed field. Old and New are JSON null when
// the value is absent.
type FieldUpdatedV1 struct {
	Event      EventRef        `json:"event"`
	Field      string          `json:"field"`
	Old        json.RawMessage `json:"old"`
	New        json.RawMessage `json:"new"`
	Snapshot   SnapshotV1      `json:"snapshot"`
	ObservedAt time.Time       `json:"observed_at"`
}

type DeletedV1 struct {
	Snapshot   SnapshotV1 `json:"snapshot"`
	ObservedAt time.Time  `json:"observed_at"`
}

func (r EventRef) validate(ve *ValidationError, prefix string) {
	if r.GuildID == "" {
		ve.add(prefix+"guild_id", "required")
	}
	if r.EventID == "" {
		ve.add(prefix+"event_id", "required")
	}
}

func (s *SnapshotV1) validate(ve *ValidationError) {
	s.Event.validate(ve, "snapshot.event.")
	if s.Name == "" {
		ve.add("snapshot.name", "required")
	}
	if s.StartTime.IsZero() {
		ve.add("snapshot.start_time", "required")
	}
	if s.EndTime != nil && !s.StartTime.Before(*s.EndTime) {
		ve.add("snapshot.end_time", "must be after start_time")
	}
	if !slices.Contains(statuses, s.Status) {
		ve.add("snapshot.status", "unknown")
	}

	switch s.Location.EntityType {
	case EntityStageInstance, EntityVoice:
		if s.Location.ChannelID == "" {
			ve.add("snapshot.location.channel_id", "required for channel locations")
		}
		if s.Location.Text != "" {
			ve.add("snapshot.location.text", "omit for channel locations")
		}
	case EntityExternal:
		if s.Location.Text == "" {
			ve.add("snapshot.location.text", "required for external")
		}
		if s.EndTime == nil {
			ve.add("snapshot.end_time", "required for external")
		}
	default:
		ve.add("snapshot.location.entity_type", "unknown")
	}
}

func (c *CreatedV1) Validate() error {
	ve := &ValidationError{}
	c.Snapshot.validate(ve)
	if c.ObservedAt.IsZero() {
		ve.add("observed_at", "required")
	}
	return ve.orNil()
}

func (d *DeletedV1) Validate() error {
	ve := &ValidationError{}
	d.Snapshot.validate(ve)
	if d.ObservedAt.IsZero() {
		ve.add("observed_at", "required")
	}
	return ve.orNil()
}

func (u *FieldUpdatedV1) Validate() error {
	ve := &ValidationError{}
	u.Event.validate(ve, "event.")
	if !slices.Contains(Fields, u.Field) {
		ve.add("field", "unknown")
	}
	if !json.Valid(u.Old) {
		ve.add("old", "must be JSON")
	}
	if !json.Valid(u.New) {
		ve.add("new", "must be JSON")
	}
	u.Snapshot.validate(ve)
	if u.Snapshot.Event != u.Event {
		ve.add("snapshot.event", "must match event")
	}
	if u.ObservedAt.IsZero() {
		ve.add("observed_at", "required")
	}
	return ve.orNil()
}
