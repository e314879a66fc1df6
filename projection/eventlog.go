// Package projection builds local read models from observed events.
// It never emits events or touches live room state.
package projection

import (
	"context"
	"sync"

	"quiz-lab/domain/event"
)

// EventLog retains the most recent events per room. It is wired as a
// permanent fanout sink and read by tests and debugging tooling.
type EventLog struct {
	mu      sync.RWMutex
	limit   int
	entries map[string][]event.DomainEvent
}

func NewEventLog(limit int) *EventLog {
	return &EventLog{limit: limit, entries: make(map[string][]event.DomainEvent)}
}

func (l *EventLog) Consume(_ context.Context, e event.DomainEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	code := e.RoomCode()
	log := append(l.entries[code], e)
	if l.limit > 0 && len(log) > l.limit {
		log = log[len(log)-l.limit:]
	}
	l.entries[code] = log

	// A room that ended will never produce again; drop its history.
	if _, ended := e.(event.RoomEnded); ended {
		delete(l.entries, code)
	}
	return nil
}

// Events returns a copy of the retained events for one room.
func (l *EventLog) Events(code string) []event.DomainEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	log := l.entries[code]
	out := make([]event.DomainEvent, len(log))
	copy(out, log)
	return out
}
