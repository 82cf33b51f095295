package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"github.com/roboricindustries/raycon-guild-events/pkg/scheduled"
	"github.com/roboricindustries/raycon-guild-events/pkg/schemas/common"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	guildID snowflake.ID = 81384788765712384
	eventID snowflake.ID = 1052246218612668458
	voiceID snowflake.ID = 155101607195836416
)

var startTime = time.Date(2026, time.November, 1, 18, 0, 0, 0, time.UTC)

func eventSnapshot() scheduled.Snapshot {
	return scheduled.Snapshot{
		ID:              eventID,
		GuildID:         guildID,
		Name:            "Community night",
		Location:        scheduled.VoiceLocation{ChannelID: voiceID},
		StartTime:       startTime,
		Status:          scheduled.StatusScheduled,
		InterestedCount: 3,
	}
}

type published struct {
	key string
	env common.Envelope
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, key string, msg common.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{key: key, env: msg})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.key)
	}
	return out
}

// dataJSON re-encodes the envelope payload so tests can inspect it as the
// consumer would.
func dataJSON(t *testing.T, env common.Envelope) map[string]any {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

var errBroker = errors.New("broker unavailable")
