package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jzelinskie/stringz"

	"github.com/roboricindustries/raycon-guild-events/pkg/pubsub"
	"github.com/roboricindustries/raycon-guild-events/pkg/scheduled"
	"github.com/roboricindustries/raycon-guild-events/pkg/schemas/common"
	scheduledevent "github.com/roboricindustries/raycon-guild-events/pkg/schemas/scheduledevent/v1"
)

const DefaultProducer = "raycon-guild-events/relay"

// PublisherSink publishes every notification as a scheduledevent contract.
type PublisherSink struct {
	pub      pubsub.Publisher
	producer string
	log      *slog.Logger
	now      func() time.Time
}

func NewPublisherSink(pub pubsub.Publisher, producer string, logger *slog.Logger) *PublisherSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublisherSink{
		pub:      pub,
		producer: stringz.DefaultEmpty(producer, DefaultProducer),
		log:      logger,
		now:      time.Now,
	}
}

type contract interface{ Validate() error }

func (s *PublisherSink) Emit(ctx context.Context, n scheduled.Notification) error {
	observed := s.now().UTC()
	snap := snapshotContract(n.Snapshot)

	var (
		meta common.EventMeta
		data contract
	)
	switch n.Kind {
	case scheduled.NotificationCreated:
		meta = scheduledevent.CreatedMeta
		data = &scheduledevent.CreatedV1{Snapshot: snap, ObservedAt: observed}
	case scheduled.NotificationDeleted:
		meta = scheduledevent.DeletedMeta
		data = &scheduledevent.DeletedV1{Snapshot: snap, ObservedAt: observed}
	case scheduled.NotificationUpdated:
		if n.Delta == nil {
			return fmt.Errorf("updated notification for %s without delta", n.Snapshot)
		}
		field := n.Delta.Field.String()
		oldVal, err := encodeValue(n.Delta.Old)
		if err != nil {
			return fmt.Errorf("encode old %s: %w", field, err)
		}
		newVal, err := encodeValue(n.Delta.New)
		if err != nil {
			return fmt.Errorf("encode new %s: %w", field, err)
		}
		meta = scheduledevent.UpdatedMeta(field)
		data = &scheduledevent.FieldUpdatedV1{
			Event:      snap.Event,
			Field:      field,
			Old:        oldVal,
			New:        newVal,
			Snapshot:   snap,
			ObservedAt: observed,
		}
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	if err := data.Validate(); err != nil {
		s.log.Error("refusing to publish invalid contract",
			slog.String("type", meta.EventType),
			slog.String("event_id", snap.Event.EventID),
			slog.Any("error", err),
		)
		return err
	}

	env := common.NewEnvelope(meta, s.producer, pubsub.CorrelationID(ctx), data)
	if err := s.pub.Publish(ctx, meta.RoutingKey, env); err != nil {
		return fmt.Errorf("publish %s for %s: %w", meta.EventType, n.Snapshot, err)
	}
	return nil
}

func snapshotContract(s scheduled.Snapshot) scheduledevent.SnapshotV1 {
	out := scheduledevent.SnapshotV1{
		Event: scheduledevent.EventRef{
			GuildID: s.GuildID.String(),
			EventID: s.ID.String(),
		},
		Name:            s.Name,
		Description:     s.Description,
		Location:        locationContract(s.Location),
		StartTime:       s.StartTime.UTC(),
		ImageURL:        s.ImageURL(),
		Status:          statusName(s.Status),
		InterestedCount: s.InterestedCount,
	}
	if s.EndTime != nil {
		end := s.EndTime.UTC()
		out.EndTime = &end
	}
	if s.CreatorID != 0 {
		out.CreatorID = s.CreatorID.String()
	}
	return out
}

func locationContract(l scheduled.Location) scheduledevent.LocationV1 {
	switch loc := l.(type) {
	case scheduled.StageLocation:
		return scheduledevent.LocationV1{EntityType: scheduledevent.EntityStageInstance, ChannelID: loc.ChannelID.String()}
	case scheduled.VoiceLocation:
		return scheduledevent.LocationV1{EntityType: scheduledevent.EntityVoice, ChannelID: loc.ChannelID.String()}
	case scheduled.ExternalLocation:
		return scheduledevent.LocationV1{EntityType: scheduledevent.EntityExternal, Text: loc.Text}
	default:
		return scheduledevent.LocationV1{}
	}
}

func statusName(s scheduled.Status) string {
	return strings.ToLower(s.String())
}

// encodeValue renders a FieldDelta value in its contract form.
func encodeValue(v any) (json.RawMessage, error) {
	switch val := v.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case scheduled.Location:
		v = locationContract(val)
	case scheduled.Status:
		v = statusName(val)
	case time.Time:
		v = val.UTC()
	}
	return json.Marshal(v)
}
