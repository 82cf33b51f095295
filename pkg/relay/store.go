package relay

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/roboricindustries/raycon-guild-events/pkg/scheduled"
)

type storeEntry struct {
	snapshot  scheduled.Snapshot
	expiresAt time.Time
}

// Store keeps the latest known snapshot of every scheduled event seen on
// the gateway. It is safe for concurrent use. Entries older than the TTL
// are treated as unknown; a zero TTL keeps them forever.
type Store struct {
	mu    sync.RWMutex
	items map[snowflake.ID]storeEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		items: make(map[snowflake.ID]storeEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *Store) entry(snap scheduled.Snapshot) storeEntry {
	e := storeEntry{snapshot: snap}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	return e
}

func (s *Store) live(e storeEntry) bool {
	return e.expiresAt.IsZero() || !s.now().After(e.expiresAt)
}

// SnapshotOf implements scheduled.SnapshotSource.
func (s *Store) SnapshotOf(id snowflake.ID) (scheduled.Snapshot, bool) {
	s.mu.RLock()
	e, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduled.Snapshot{}, false
	}
	if !s.live(e) {
		s.mu.Lock()
		if cur, ok := s.items[id]; ok && !s.live(cur) {
			delete(s.items, id)
		}
		s.mu.Unlock()
		return scheduled.Snapshot{}, false
	}
	return e.snapshot, true
}

func (s *Store) Put(snap scheduled.Snapshot) {
	s.mu.Lock()
	s.items[snap.ID] = s.entry(snap)
	s.mu.Unlock()
}

// Swap stores snap and returns the snapshot it replaced, if a live one
// existed.
func (s *Store) Swap(snap scheduled.Snapshot) (scheduled.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.items[snap.ID]
	s.items[snap.ID] = s.entry(snap)
	if !ok || !s.live(prev) {
		return scheduled.Snapshot{}, false
	}
	return prev.snapshot, true
}

// Remove deletes the entry of id and returns it, if a live one existed.
func (s *Store) Remove(id snowflake.ID) (scheduled.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.items[id]
	delete(s.items, id)
	if !ok || !s.live(prev) {
		return scheduled.Snapshot{}, false
	}
	return prev.snapshot, true
}

// Restore puts prev back unless the entry changed since it was replaced by
// cur. A zero cur means prev was removed.
func (s *Store) Restore(prev, cur scheduled.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[prev.ID]
	switch {
	case cur.ID == 0 && ok:
		return
	case cur.ID != 0 && (!ok || e.snapshot != cur):
		return
	}
	s.items[prev.ID] = s.entry(prev)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
