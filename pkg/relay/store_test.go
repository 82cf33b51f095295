package relay

import (
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"github.com/roboricindustries/raycon-guild-events/pkg/scheduled"
)

func TestStore(t *testing.T) {
	s := NewStore(0)
	_, ok := s.SnapshotOf(eventID)
	require.False(t, ok)

	snap := eventSnapshot()
	s.Put(snap)
	got, ok := s.SnapshotOf(eventID)
	require.True(t, ok)
	require.Equal(t, snap, got)

	updated := snap
	updated.Name = "Renamed"
	prev, ok := s.Swap(updated)
	require.True(t, ok)
	require.Equal(t, snap, prev)

	removed, ok := s.Remove(eventID)
	require.True(t, ok)
	require.Equal(t, updated, removed)
	require.Zero(t, s.Len())

	_, ok = s.Remove(eventID)
	require.False(t, ok)
}

func TestStoreTTL(t *testing.T) {
	now := startTime
	s := NewStore(time.Minute)
	s.now = func() time.Time { return now }

	s.Put(eventSnapshot())
	now = now.Add(time.Minute)
	_, ok := s.SnapshotOf(eventID)
	require.True(t, ok)

	now = now.Add(time.Second)
	_, ok = s.SnapshotOf(eventID)
	require.False(t, ok)
	require.Zero(t, s.Len(), "expired entries are dropped on read")

	s.Put(eventSnapshot())
	now = now.Add(2 * time.Minute)
	_, ok = s.Swap(eventSnapshot())
	require.False(t, ok, "an expired entry is not a previous state")
	_, ok = s.SnapshotOf(eventID)
	require.True(t, ok)
}

func TestStoreRestore(t *testing.T) {
	old := eventSnapshot()
	cur := old
	cur.Name = "Renamed"

	s := NewStore(0)
	s.Put(cur)
	s.Restore(old, cur)
	got, _ := s.SnapshotOf(eventID)
	require.Equal(t, old, got)

	newer := cur
	newer.Name = "Renamed again"
	s.Put(newer)
	s.Restore(old, cur)
	got, _ = s.SnapshotOf(eventID)
	require.Equal(t, newer, got, "a newer state is never rolled back")

	s.Remove(eventID)
	s.Restore(old, scheduled.Snapshot{})
	got, ok := s.SnapshotOf(eventID)
	require.True(t, ok)
	require.Equal(t, old, got)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(time.Hour)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := eventSnapshot()
			snap.ID = snowflake.ID(i + 1)
			for range 100 {
				s.Put(snap)
				s.SnapshotOf(snap.ID)
				s.Swap(snap)
			}
			s.Remove(snap.ID)
		}()
	}
	wg.Wait()
	require.Zero(t, s.Len())
}
