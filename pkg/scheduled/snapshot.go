package scheduled

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const imageURLFormat = "https://cdn.discordapp.com/guild-events/%s/%s.%s"

// PrivacyGuildOnly is the only privacy level the platform accepts for
// scheduled events.
const PrivacyGuildOnly = 2

type EntityType int

const (
	EntityUnknown       EntityType = 0
	EntityStageInstance EntityType = 1
	EntityVoice         EntityType = 2
	EntityExternal      EntityType = 3
)

func (t EntityType) String() string {
	switch t {
	case EntityStageInstance:
		return "STAGE_INSTANCE"
	case EntityVoice:
		return "VOICE"
	case EntityExternal:
		return "EXTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Status is the lifecycle state of a scheduled event. The remote service
// decides which transitions are legal.
type Status int

const (
	StatusUnknown   Status = 0
	StatusScheduled Status = 1
	StatusActive    Status = 2
	StatusCompleted Status = 3
	StatusCanceled  Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "SCHEDULED"
	case StatusActive:
		return "ACTIVE"
	case StatusCompleted:
		return "COMPLETED"
	case StatusCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

func (s Status) Valid() bool {
	return s >= StatusScheduled && s <= StatusCanceled
}

// Location is where an event takes place. Exactly one of StageLocation,
// VoiceLocation or ExternalLocation.
type Location interface {
	EntityType() EntityType
	// String is the channel id for channel locations and the free text for
	// external ones.
	String() string
	location()
}

type StageLocation struct {
	ChannelID snowflake.ID
}

func (StageLocation) EntityType() EntityType { return EntityStageInstance }
func (l StageLocation) String() string { return l.ChannelID.String() }
func (StageLocation) location() {}

type VoiceLocation struct {
	ChannelID snowflake.ID
}

func (VoiceLocation) EntityType() EntityType { return EntityVoice }
func (l VoiceLocation) String() string { return l.ChannelID.String() }
func (VoiceLocation) location() {}

// ExternalLocation is a free-text location outside the guild. Events held
// externally must carry an end time.
type ExternalLocation struct {
	Text string
}

func (ExternalLocation) EntityType() EntityType { return EntityExternal }
func (l ExternalLocation) String() string { return l.Text }
func (ExternalLocation) location() {}

// channelOf returns the channel of a channel-bound location.
func channelOf(l Location) (snowflake.ID, bool) {
	switch loc := l.(type) {
	case StageLocation:
		return loc.ChannelID, true
	case VoiceLocation:
		return loc.ChannelID, true
	default:
		return 0, false
	}
}

// Snapshot is the state of a scheduled event at one point in time. Values
// are never mutated after construction; builders and the diff work on
// copies.
type Snapshot struct {
	ID              snowflake.ID
	GuildID         snowflake.ID
	Name            string
	Description     *string
	Location        Location
	StartTime       time.Time
	EndTime         *time.Time
	Image           *string
	Status          Status
	CreatorID       snowflake.ID
	InterestedCount int
}

func (s Snapshot) EntityType() EntityType {
	if s.Location == nil {
		return EntityUnknown
	}
	return s.Location.EntityType()
}

// ChannelID reports the hosting channel for stage and voice events.
func (s Snapshot) ChannelID() (snowflake.ID, bool) {
	return channelOf(s.Location)
}

// LocationString is the channel id or external text, empty when unknown.
func (s Snapshot) LocationString() string {
	if s.Location == nil {
		return ""
	}
	return s.Location.String()
}

// ImageURL renders the cover image url, or "" when the event has none.
func (s Snapshot) ImageURL() string {
	if s.Image == nil || *s.Image == "" {
		return ""
	}
	ext := "png"
	if strings.HasPrefix(*s.Image, "a_") {
		ext = "gif"
	}
	return fmt.Sprintf(imageURLFormat, s.ID, *s.Image, ext)
}

func (s Snapshot) String() string {
	return "ScheduledEvent:" + s.Name + "(" + s.ID.String() + ")"
}

// Compare orders events by start instant, then by id.
func Compare(a, b Snapshot) int {
	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
