// Package observability aggregates engine counters for logging and the
// stats worker. Counters are atomic; no lock is shared with the rooms.
package observability

import "sync/atomic"

// Stats is a point-in-time snapshot of the engine counters.
type Stats struct {
	ActiveRooms     int64
	RoomsCreated    uint64
	CommandsApplied uint64
	EventsFanned    uint64
	DroppedSends    uint64
}

// Monitor collects engine-wide counters. Safe for concurrent use.
type Monitor struct {
	activeRooms     atomic.Int64
	roomsCreated    atomic.Uint64
	commandsApplied atomic.Uint64
	eventsFanned    atomic.Uint64
	droppedSends    atomic.Uint64
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RoomOpened() {
	m.activeRooms.Add(1)
	m.roomsCreated.Add(1)
}

func (m *Monitor) RoomClosed() {
	m.activeRooms.Add(-1)
}

func (m *Monitor) CommandApplied() {
	m.commandsApplied.Add(1)
}

func (m *Monitor) EventFanned() {
	m.eventsFanned.Add(1)
}

// DroppedSend counts a delivery abandoned because a consumer was slow or
// gone. Fanout is best effort; this is the visibility for it.
func (m *Monitor) DroppedSend() {
	m.droppedSends.Add(1)
}

func (m *Monitor) Snapshot() Stats {
	return Stats{
		ActiveRooms:     m.activeRooms.Load(),
		RoomsCreated:    m.roomsCreated.Load(),
		CommandsApplied: m.commandsApplied.Load(),
		EventsFanned:    m.eventsFanned.Load(),
		DroppedSends:    m.droppedSends.Load(),
	}
}
