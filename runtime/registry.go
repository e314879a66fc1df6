package runtime

import (
	"sync"

	"quiz-lab/contract"
)

type Set map[string]struct{}

// Registry tracks which live connections belong to which room so the
// fanout worker can resolve a room-addressed event into sinks.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.EventSink // connID -> sink
	roomMembers map[string]Set                // room code -> connIDs
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]contract.EventSink),
		roomMembers: make(map[string]Set),
	}
}

// GetSinksForRoom retrieves all active communication channels for a room.
// It performs a two-step lookup:
// 1. Identifies connection IDs associated with the room via roomMembers.
// 2. Resolves those IDs into actual EventSinks using the sessions map.
//
// Returns nil if the room doesn't exist or has no members.
func (r *Registry) GetSinksForRoom(code string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[code]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for connID := range members {
		if sink, exists := r.sessions[connID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers a connection's sink and assigns it to a room.
// If the room does not yet exist in the registry, it is initialized on the fly.
func (r *Registry) Subscribe(connID, code string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connID] = sink

	if _, ok := r.roomMembers[code]; !ok {
		r.roomMembers[code] = make(Set)
	}
	r.roomMembers[code][connID] = struct{}{}
}

// DropRoom purges an ended room's entire membership in one call. Without
// it, subscribers that outlive their room would resolve again when the
// code is reallocated to a fresh session. A member that later joins
// another room re-subscribes with a fresh entry.
func (r *Registry) DropRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for connID := range r.roomMembers[code] {
		delete(r.sessions, connID)
	}
	delete(r.roomMembers, code)
}

// Unsubscribe removes a connection from the registry and its room.
// Empty member sets are removed entirely to prevent the room map from
// growing over time.
func (r *Registry) Unsubscribe(connID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, connID)

	if members, ok := r.roomMembers[code]; ok {
		delete(members, connID)

		if len(members) == 0 {
			delete(r.roomMembers, code)
		}
	}
}
