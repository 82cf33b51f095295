package scheduledevent

import "encoding/json"

// Gateway dispatches arrive on DispatchExchange with one routing key per
// dispatch type.
const (
	DispatchExchange   = "gateway.dispatch"
	DispatchBindingKey = "gateway.guild_scheduled_event.*"

	DispatchCreate = "GUILD_SCHEDULED_EVENT_CREATE"
	DispatchUpdate = "GUILD_SCHEDULED_EVENT_UPDATE"
	DispatchDelete = "GUILD_SCHEDULED_EVENT_DELETE"
)

var dispatchRoutingKeys = map[string]string{
	DispatchCreate: "gateway.guild_scheduled_event.create",
	DispatchUpdate: "gateway.guild_scheduled_event.update",
	DispatchDelete: "gateway.guild_scheduled_event.delete",
}

// DispatchRoutingKey returns the key a dispatch of type t is routed with.
func DispatchRoutingKey(t string) (string, bool) {
	k, ok := dispatchRoutingKeys[t]
	return k, ok
}

// DispatchV1 is one raw gateway dispatch. D is the platform's scheduled
// event object, left undecoded.
type DispatchV1 struct {
	T string          `json:"t"`
	S int64           `json:"s,omitempty"`
	D json.RawMessage `json:"d"`
}

func UnmarshalDispatchV1(data []byte) (DispatchV1, error) {
	var r DispatchV1
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *DispatchV1) Validate() error {
	ve := &ValidationError{}
	if _, ok := dispatchRoutingKeys[r.T]; !ok {
		ve.add("t", "unknown dispatch type")
	}
	if len(r.D) == 0 || string(r.D) == "null" {
		ve.add("d", "required")
	}
	return ve.orNil()
}
