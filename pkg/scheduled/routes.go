package scheduled

import (
	"net/http"
	"net/url"

	"github.com/bwmarrin/snowflake"
)

// CompiledRoute is a fully resolved endpoint of the platform API.
type CompiledRoute struct {
	Method string
	Path   string
	Query  url.Values
}

func (r CompiledRoute) String() string {
	if len(r.Query) == 0 {
		return r.Method + " " + r.Path
	}
	return r.Method + " " + r.Path + "?" + r.Query.Encode()
}

// WithQuery returns a copy of the route with key set to value.
func (r CompiledRoute) WithQuery(key, value string) CompiledRoute {
	q := make(url.Values, len(r.Query)+1)
	for k, v := range r.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set(key, value)
	r.Query = q
	return r
}

func eventsPath(guildID snowflake.ID) string {
	return "/guilds/" + guildID.String() + "/scheduled-events"
}

func CreateScheduledEventRoute(guildID snowflake.ID) CompiledRoute {
	return CompiledRoute{Method: http.MethodPost, Path: eventsPath(guildID)}
}

func ModifyScheduledEventRoute(guildID, eventID snowflake.ID) CompiledRoute {
	return CompiledRoute{Method: http.MethodPatch, Path: eventsPath(guildID) + "/" + eventID.String()}
}

func DeleteScheduledEventRoute(guildID, eventID snowflake.ID) CompiledRoute {
	return CompiledRoute{Method: http.MethodDelete, Path: eventsPath(guildID) + "/" + eventID.String()}
}

func GetScheduledEventUsersRoute(guildID, eventID snowflake.ID) CompiledRoute {
	return CompiledRoute{Method: http.MethodGet, Path: eventsPath(guildID) + "/" + eventID.String() + "/users"}
}
