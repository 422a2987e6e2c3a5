package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/consolerelay/consolerelay/pkg/types"
)

// kinds fixes the replay order: warnings before errors, as broadcast.
var kinds = []types.Kind{types.KindWarnings, types.KindErrors}

// Entry is the last event of one kind together with its encoded payload.
type Entry struct {
	Event     types.Event
	Payload   []byte
	UpdatedAt time.Time
}

// Store is a thread-safe map of the latest event per kind. A background
// goroutine (Run) evicts entries older than the TTL.
type Store struct {
	mu   sync.RWMutex
	data map[types.Kind]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[types.Kind]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the retention window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put replaces the entry for ev.Type. Callers must not modify payload after
// calling Put.
func (s *Store) Put(ev types.Event, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[ev.Type] = &Entry{
		Event:     ev,
		Payload:   payload,
		UpdatedAt: s.now(),
	}
}

// Get returns the entry for kind, live or stale.
func (s *Store) Get(kind types.Kind) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[kind]
	return e, ok
}

// List returns the live entries, warnings first. Stale entries that have not
// yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(kinds))
	for _, k := range kinds {
		if e, ok := s.data[k]; ok && e.UpdatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Payloads returns the encoded payloads of List, in the same order.
func (s *Store) Payloads() [][]byte {
	entries := s.List()
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Payload
	}
	return out
}

// Count returns the number of entries held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL and
// returns how many were removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for k, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

// Run evicts stale entries every half TTL (minimum 1 second) until ctx is
// cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale diagnostics", "count", n)
			}
		}
	}
}
