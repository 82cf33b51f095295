package scheduledevent

import "github.com/roboricindustries/raycon-guild-events/pkg/schemas/common"

const (
	Exchange = "scheduled_events"

	EventCreated      = "scheduled_events.created.v1"
	EventFieldUpdated = "scheduled_events.updated.v1"
	EventDeleted      = "scheduled_events.deleted.v1"
)

var CreatedMeta = common.EventMeta{
	EventType:  EventCreated,
	Exchange:   Exchange,
	RoutingKey: EventCreated,
}

var DeletedMeta = common.EventMeta{
	EventType:  EventDeleted,
	Exchange:   Exchange,
	RoutingKey: EventDeleted,
}

// UpdatedRoutingKey is scheduled_events.updated.<field>.v1, so consumers
// can bind to a single field or to scheduled_events.updated.*.v1.
func UpdatedRoutingKey(field string) string {
	return "scheduled_events.updated." + field + ".v1"
}

func UpdatedMeta(field string) common.EventMeta {
	return common.EventMeta{
		EventType:  EventFieldUpdated,
		Exchange:   Exchange,
		RoutingKey: UpdatedRoutingKey(field),
	}
}
