package common

import (
	"time"

	"github.com/google/uuid"
)

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type GenericEnvelope[T any] struct {
	Meta Meta `json:"meta"`
	Data T    `json:"data"`
}

type Meta struct {
	// Trace / request correlation ID
	CorrelationID *string `json:"correlation_id,omitempty"`
	// Unique event ID
	ID string `json:"id"`
	// Emitting service and version
	Producer *string `json:"producer,omitempty"`
	// Timestamp when the event was emitted
	Time time.Time `json:"time"`
	// Event name and version, e.g. scheduled_events.updated.v1
	Type string `json:"type"`
}

// EventMeta tells a publisher where an event type goes.
type EventMeta struct {
	EventType  string // e.g. "scheduled_events.created.v1"
	Exchange   string // e.g. "scheduled_events"
	RoutingKey string // e.g. "scheduled_events.created.v1"
}

// NewMeta stamps a fresh id and the current UTC time. Empty producer and
// correlation values are left out of the encoded meta.
func NewMeta(eventType, producer, correlationID string) Meta {
	m := Meta{
		ID:   uuid.NewString(),
		Time: time.Now().UTC(),
		Type: eventType,
	}
	if producer != "" {
		m.Producer = &producer
	}
	if correlationID != "" {
		m.CorrelationID = &correlationID
	}
	return m
}

// NewEnvelope wraps data for the event described by em.
func NewEnvelope(em EventMeta, producer, correlationID string, data any) Envelope {
	return Envelope{Meta: NewMeta(em.EventType, producer, correlationID), Data: data}
}
