package tui

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// PlayerID identifies one connected SSH session.
type PlayerID string

// Player is a connected SSH session.
type Player struct {
	ID     PlayerID
	User   string
	Remote string
	Since  time.Time
}

// PlayerRegistry tracks connected players. Safe for concurrent use.
type PlayerRegistry struct {
	mu      sync.RWMutex
	seq     uint64
	players map[PlayerID]Player
}

// NewPlayerRegistry creates an empty registry.
func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{players: make(map[PlayerID]Player)}
}

// Join registers a session and returns its id.
func (r *PlayerRegistry) Join(user, remote string, now time.Time) PlayerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := PlayerID(fmt.Sprintf("%s-%d", user, r.seq))
	r.players[id] = Player{ID: id, User: user, Remote: remote, Since: now}
	return id
}

// Leave removes a session.
func (r *PlayerRegistry) Leave(id PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
}

// Count returns the number of connected sessions.
func (r *PlayerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Players returns the connected sessions, oldest first.
func (r *PlayerRegistry) Players() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Since.Equal(out[j].Since) {
			return out[i].Since.Before(out[j].Since)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
