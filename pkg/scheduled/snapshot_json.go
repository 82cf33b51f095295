package scheduled

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type entityMetadataJSON struct {
	Location *string `json:"location,omitempty"`
}

// snapshotJSON mirrors the platform's scheduled event object.
type snapshotJSON struct {
	ID                 snowflake.ID        `json:"id"`
	GuildID            snowflake.ID        `json:"guild_id"`
	ChannelID          *snowflake.ID       `json:"channel_id"`
	CreatorID          *snowflake.ID       `json:"creator_id,omitempty"`
	Name               string              `json:"name"`
	Description        *string             `json:"description"`
	ScheduledStartTime time.Time           `json:"scheduled_start_time"`
	ScheduledEndTime   *time.Time          `json:"scheduled_end_time"`
	PrivacyLevel       int                 `json:"privacy_level"`
	Status             Status              `json:"status"`
	EntityType         EntityType          `json:"entity_type"`
	EntityMetadata     *entityMetadataJSON `json:"entity_metadata"`
	UserCount          int                 `json:"user_count,omitempty"`
	Image              *string             `json:"image"`
}

// UnmarshalSnapshot decodes a scheduled event object as returned by the
// platform.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	err := json.Unmarshal(data, &s)
	return s, err
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode scheduled event: %w", err)
	}
	if raw.ID == 0 {
		return errors.New("decode scheduled event: missing id")
	}

	loc, err := decodeLocation(raw)
	if err != nil {
		return fmt.Errorf("decode scheduled event %s: %w", raw.ID, err)
	}

	*s = Snapshot{
		ID:              raw.ID,
		GuildID:         raw.GuildID,
		Name:            raw.Name,
		Description:     raw.Description,
		Location:        loc,
		StartTime:       raw.ScheduledStartTime,
		EndTime:         raw.ScheduledEndTime,
		Image:           raw.Image,
		Status:          raw.Status,
		InterestedCount: raw.UserCount,
	}
	if raw.CreatorID != nil {
		s.CreatorID = *raw.CreatorID
	}
	return nil
}

func decodeLocation(raw snapshotJSON) (Location, error) {
	switch raw.EntityType {
	case EntityStageInstance, EntityVoice:
		if raw.ChannelID == nil || *raw.ChannelID == 0 {
			return nil, fmt.Errorf("%s event without channel_id", raw.EntityType)
		}
		if raw.EntityType == EntityStageInstance {
			return StageLocation{ChannelID: *raw.ChannelID}, nil
		}
		return VoiceLocation{ChannelID: *raw.ChannelID}, nil
	case EntityExternal:
		if raw.EntityMetadata == nil || raw.EntityMetadata.Location == nil ||
			strings.TrimSpace(*raw.EntityMetadata.Location) == "" {
			return nil, errors.New("external event without entity_metadata.location")
		}
		if raw.ScheduledEndTime == nil {
			return nil, ErrMissingEndTime
		}
		return ExternalLocation{Text: *raw.EntityMetadata.Location}, nil
	default:
		return nil, fmt.Errorf("unknown entity_type %d", raw.EntityType)
	}
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	raw := snapshotJSON{
		ID:                 s.ID,
		GuildID:            s.GuildID,
		Name:               s.Name,
		Description:        s.Description,
		ScheduledStartTime: s.StartTime,
		ScheduledEndTime:   s.EndTime,
		PrivacyLevel:       PrivacyGuildOnly,
		Status:             s.Status,
		EntityType:         s.EntityType(),
		UserCount:          s.InterestedCount,
		Image:              s.Image,
	}
	if s.CreatorID != 0 {
		creator := s.CreatorID
		raw.CreatorID = &creator
	}
	if ch, ok := s.ChannelID(); ok {
		raw.ChannelID = &ch
	}
	if ext, ok := s.Location.(ExternalLocation); ok {
		text := ext.Text
		raw.EntityMetadata = &entityMetadataJSON{Location: &text}
	}
	return json.Marshal(raw)
}
