package scheduled

import (
	"maps"
	"slices"
	"time"
)

// Payload is the JSON object sent to the platform. A key mapped to nil is
// sent as null, which clears the field remotely.
type Payload map[string]any

func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Payload) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// payload renders the dirty fields. Creation payloads also carry the keys
// the platform always requires.
func (d *draft) payload(creating bool) Payload {
	p := Payload{}
	if creating {
		p["privacy_level"] = PrivacyGuildOnly
	}
	for _, f := range d.dirty.fields() {
		switch f {
		case FieldName:
			p["name"] = d.name
		case FieldDescription:
			if d.description == nil {
				p["description"] = nil
			} else {
				p["description"] = *d.description
			}
		case FieldLocation:
			p["entity_type"] = d.location.EntityType()
			switch loc := d.location.(type) {
			case ExternalLocation:
				p["entity_metadata"] = map[string]any{"location": loc.Text}
				if !creating {
					p["channel_id"] = nil
				}
			default:
				ch, _ := channelOf(loc)
				p["channel_id"] = ch
				if !creating {
					p["entity_metadata"] = nil
				}
			}
		case FieldStartTime:
			p["scheduled_start_time"] = formatTime(d.startTime)
		case FieldEndTime:
			if d.endTime == nil {
				p["scheduled_end_time"] = nil
			} else {
				p["scheduled_end_time"] = formatTime(*d.endTime)
			}
		case FieldImage:
			if d.image == nil {
				p["image"] = nil
			} else {
				p["image"] = d.image.DataURI()
			}
		case FieldStatus:
			p["status"] = d.status
		}
	}
	return p
}
