// Package roster tracks the set of rooms this process currently belongs
// to. It is the in-memory stand-in for the chat transport's membership
// list: the scheduler consults it to detect rooms the bot has left.
package roster

import "sync"

type Roster struct {
	mu    sync.RWMutex
	rooms map[int64]bool
}

func New() *Roster {
	return &Roster{rooms: make(map[int64]bool)}
}

// Join marks a room as live.
func (r *Roster) Join(roomID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[roomID] = true
}

// Leave marks a room as no longer live.
func (r *Roster) Leave(roomID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}

// IsLive reports whether the room is in the live set.
func (r *Roster) IsLive(roomID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[roomID]
}

// Seed marks every given room as live. Used at startup from the registry.
func (r *Roster) Seed(roomIDs []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range roomIDs {
		r.rooms[id] = true
	}
}
