package scheduled

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// InterestedUser is a user who marked interest in an event.
type InterestedUser struct {
	ID         snowflake.ID `json:"id"`
	Username   string       `json:"username"`
	GlobalName *string      `json:"global_name,omitempty"`
	Avatar     *string      `json:"avatar,omitempty"`
	Bot        bool         `json:"bot,omitempty"`
}

// InterestedMember is an interested user together with their guild
// membership.
type InterestedMember struct {
	User     InterestedUser
	Nick     *string
	Roles    []snowflake.ID
	JoinedAt time.Time
}

type memberJSON struct {
	Nick     *string        `json:"nick"`
	Roles    []snowflake.ID `json:"roles"`
	JoinedAt time.Time      `json:"joined_at"`
}

// rsvpEntry is one element of the users endpoint response.
type rsvpEntry struct {
	EventID snowflake.ID    `json:"guild_scheduled_event_id"`
	User    *InterestedUser `json:"user"`
	Member  *memberJSON     `json:"member"`
}

var (
	errEntryMissingUser   = errors.New("entry has no user")
	errEntryMissingMember = errors.New("entry has no member")
	errEntryMissingID     = errors.New("entry user has no id")
)

func decodeEntry(raw json.RawMessage) (rsvpEntry, error) {
	var e rsvpEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, err
	}
	if e.User == nil {
		return e, errEntryMissingUser
	}
	if e.User.ID == 0 {
		return e, errEntryMissingID
	}
	return e, nil
}

func parseInterestedUser(raw json.RawMessage) (InterestedUser, snowflake.ID, error) {
	e, err := decodeEntry(raw)
	if err != nil {
		return InterestedUser{}, 0, err
	}
	return *e.User, e.User.ID, nil
}

func parseInterestedMember(raw json.RawMessage) (InterestedMember, snowflake.ID, error) {
	e, err := decodeEntry(raw)
	if err != nil {
		return InterestedMember{}, 0, err
	}
	if e.Member == nil {
		return InterestedMember{}, 0, errEntryMissingMember
	}
	return InterestedMember{
		User:     *e.User,
		Nick:     e.Member.Nick,
		Roles:    e.Member.Roles,
		JoinedAt: e.Member.JoinedAt,
	}, e.User.ID, nil
}

// probeUserKey reads only user.id, ignoring everything else in the entry.
func probeUserKey(raw json.RawMessage) (snowflake.ID, bool) {
	var e struct {
		User struct {
			ID json.RawMessage `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(raw, &e); err != nil || len(e.User.ID) == 0 {
		return 0, false
	}
	var id snowflake.ID
	if err := id.UnmarshalJSON(e.User.ID); err != nil {
		return 0, false
	}
	return id, true
}

// NewUsersPaginator pages through the users interested in event.
func NewUsersPaginator(event Snapshot, requester Requester, opts ...Option) *Paginator[InterestedUser] {
	route := GetScheduledEventUsersRoute(event.GuildID, event.ID)
	return NewPaginator(requester, route, parseInterestedUser, probeUserKey, opts...)
}

// NewMembersPaginator pages through interested users with their guild
// membership. Entries of users who left the guild are skipped.
func NewMembersPaginator(event Snapshot, requester Requester, opts ...Option) *Paginator[InterestedMember] {
	route := GetScheduledEventUsersRoute(event.GuildID, event.ID).WithQuery("with_member", "true")
	return NewPaginator(requester, route, parseInterestedMember, probeUserKey, opts...)
}
