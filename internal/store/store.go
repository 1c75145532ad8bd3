// Package store holds the live game of every visible table.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/omahareader/internal/game"
	"github.com/lox/omahareader/internal/handid"
	"github.com/lox/omahareader/internal/readmodel"
)

// Store maps table IDs to games. A single mutex guards every read and
// write, including the last update timestamp, so a payload never carries a
// timestamp newer than the data it describes.
type Store struct {
	mu         sync.Mutex
	games      map[string]*game.Game
	lastUpdate time.Time
	clock      quartz.Clock
	renderer   *readmodel.Renderer
}

// New creates an empty store. The renderer serializes games for
// SnapshotAll and NotificationPayload.
func New(clock quartz.Clock, renderer *readmodel.Renderer) *Store {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if renderer == nil {
		renderer = readmodel.NewRenderer(readmodel.DefaultDisplay())
	}
	return &Store{
		games:    make(map[string]*game.Game),
		clock:    clock,
		renderer: renderer,
	}
}

// Get returns a copy of the game for a table.
func (s *Store) Get(tableID string) (*game.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[tableID]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// CreateFromSnapshot replaces any existing game for the table with a fresh
// one seeded from the snapshot, and returns a copy of it.
func (s *Store) CreateFromSnapshot(tableID string, snap game.Snapshot) *game.Game {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	g := game.NewFromSnapshot(handid.New(now), snap, now)
	s.games[tableID] = g
	s.touch(now)
	return g.Clone()
}

// Update applies fn to the live game under the store lock and returns a
// copy of the result. It reports false, without calling fn, when the table
// has no game.
func (s *Store) Update(tableID string, fn func(*game.Game)) (*game.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[tableID]
	if !ok {
		return nil, false
	}
	fn(g)
	s.touch(s.clock.Now())
	return g.Clone(), true
}

// Remove deletes the given tables and reports whether any existed. The last
// update time only moves when something was removed.
func (s *Store) Remove(tableIDs ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	for _, id := range tableIDs {
		if _, ok := s.games[id]; ok {
			delete(s.games, id)
			removed = true
		}
	}
	if removed {
		s.touch(s.clock.Now())
	}
	return removed
}

// SnapshotAll renders every table together with the last update time.
func (s *Store) SnapshotAll() readmodel.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastUpdate *time.Time
	if !s.lastUpdate.IsZero() {
		ts := s.lastUpdate
		lastUpdate = &ts
	}
	return s.renderer.Payload(s.games, lastUpdate)
}

// NotificationPayload is SnapshotAll tagged for push delivery.
func (s *Store) NotificationPayload() readmodel.Payload {
	p := s.SnapshotAll()
	p.Type = readmodel.UpdateType
	return p
}

// LastUpdate returns the time of the most recent mutation, zero if none.
func (s *Store) LastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// TableIDs returns the stored table IDs in sorted order.
func (s *Store) TableIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// touch advances the last update time, never moving it backwards.
func (s *Store) touch(now time.Time) {
	if now.After(s.lastUpdate) {
		s.lastUpdate = now
	}
}
