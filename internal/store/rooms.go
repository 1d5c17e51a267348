// internal/store/rooms.go
//
// In-memory room registry: one engine session per room id.
// This is a lightweight persistence layer for ephemeral game rooms;
// state is lost when the process restarts, which is acceptable because
// in-memory play is authoritative.
//
// Characteristics:
//   - Stores *Room objects keyed by a uuid id in a map.
//   - Registry is concurrency-safe via RWMutex (concurrent reads allowed,
//     writes exclusive).
//   - Each Room carries its own mutex; all session mutation must happen
//     under it (single-writer discipline for the engine).

package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rdren0/literate-waddle/internal/engine"
	"github.com/rdren0/literate-waddle/internal/trivia"
)

// ErrRoomNotFound is returned by Get for unknown room ids.
var ErrRoomNotFound = errors.New("room not found")

// Room is one game room: an id, its engine session, and the lock that
// serializes every mutation of that session.
type Room struct {
	ID string

	mu         sync.Mutex
	session    *engine.Session
	lastActive time.Time
}

// Lock acquires the room's mutation lock.
func (r *Room) Lock() { r.mu.Lock() }

// Unlock releases the room's mutation lock.
func (r *Room) Unlock() { r.mu.Unlock() }

// Session returns the room's engine session. Callers must hold the lock.
func (r *Room) Session() *engine.Session { return r.session }

// ReplaceSession swaps in a fresh session (room reset). Callers must hold
// the lock; the old session must already be Reset.
func (r *Room) ReplaceSession(s *engine.Session) { r.session = s }

// Touch records activity. Callers must hold the lock.
func (r *Room) Touch() { r.lastActive = time.Now() }

// LastActive returns the last recorded activity time. Callers must hold
// the lock.
func (r *Room) LastActive() time.Time { return r.lastActive }

// Rooms is the registry of live rooms.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRooms constructs an empty registry.
func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[string]*Room)}
}

// Create opens a new room with a fresh session and returns it.
func (rs *Rooms) Create(bank *trivia.Bank) *Room {
	r := &Room{
		ID:         uuid.NewString(),
		session:    engine.NewSession(bank),
		lastActive: time.Now(),
	}
	rs.mu.Lock()
	rs.rooms[r.ID] = r
	rs.mu.Unlock()
	return r
}

// Get looks up a room by id.
func (rs *Rooms) Get(id string) (*Room, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if r, ok := rs.rooms[id]; ok {
		return r, nil
	}
	return nil, ErrRoomNotFound
}

// Delete removes a room, resetting its session so pending timers die.
func (rs *Rooms) Delete(id string) {
	rs.mu.Lock()
	r, ok := rs.rooms[id]
	delete(rs.rooms, id)
	rs.mu.Unlock()
	if ok {
		r.Lock()
		r.session.Reset()
		r.Unlock()
	}
}

// Len returns the number of live rooms.
func (rs *Rooms) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rooms)
}

// SweepIdle deletes rooms with no activity since the cutoff and returns
// how many were removed.
func (rs *Rooms) SweepIdle(cutoff time.Duration, now time.Time) int {
	rs.mu.Lock()
	var stale []*Room
	for id, r := range rs.rooms {
		r.Lock()
		idle := now.Sub(r.lastActive) > cutoff
		r.Unlock()
		if idle {
			delete(rs.rooms, id)
			stale = append(stale, r)
		}
	}
	rs.mu.Unlock()

	for _, r := range stale {
		r.Lock()
		r.session.Reset()
		r.Unlock()
	}
	return len(stale)
}
