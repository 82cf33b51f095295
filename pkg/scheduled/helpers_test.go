package scheduled

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID snowflake.ID = 81384788765712384
	testEventID snowflake.ID = 1052246218612668458
	testVoiceID snowflake.ID = 155101607195836416
	testStageID snowflake.ID = 155101607195836417
)

var (
	testStart = time.Date(2026, time.November, 1, 18, 0, 0, 0, time.UTC)
	errBoom   = errors.New("connection reset")
)

func ptr[T any](v T) *T { return &v }

func baselineSnapshot() Snapshot {
	return Snapshot{
		ID:              testEventID,
		GuildID:         testGuildID,
		Name:            "Community night",
		Description:     ptr("Monthly hangout"),
		Location:        VoiceLocation{ChannelID: testVoiceID},
		StartTime:       testStart,
		Status:          StatusScheduled,
		CreatorID:       53908232506183680,
		InterestedCount: 12,
	}
}

type fakeRequester struct {
	calls   []Request
	respond func(req Request) (Response, error)
}

func (f *fakeRequester) Execute(_ context.Context, req Request) (Response, error) {
	f.calls = append(f.calls, req)
	if f.respond == nil {
		return Response{StatusCode: 204}, nil
	}
	return f.respond(req)
}

func respondWith(t *testing.T, s Snapshot) func(Request) (Response, error) {
	t.Helper()
	body, err := json.Marshal(s)
	require.NoError(t, err)
	return func(Request) (Response, error) {
		return Response{StatusCode: 200, Body: body}, nil
	}
}

type recordingSink struct {
	got []Notification
	err error
}

func (s *recordingSink) Emit(_ context.Context, n Notification) error {
	s.got = append(s.got, n)
	return s.err
}
