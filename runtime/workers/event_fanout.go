package workers

import (
	"context"
	"log/slog"
	"time"

	"quiz-lab/contract"
	"quiz-lab/domain/event"
	"quiz-lab/observability"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout delivers room-addressed domain events to the sinks of that
// room's members, plus any permanent sinks (projections, logging).
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering across rooms, durability, or retries. EventFanout is not a
// message broker: it exists so a slow client can never stall the session
// coordinator that produced the event.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	registry    contract.IRegistry
	monitor     *observability.Monitor
	sinkTimeout time.Duration
	permanent   []contract.EventSink

	onRoomDrained func(code string)
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent,
	registry contract.IRegistry, monitor *observability.Monitor,
	sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      events,
		registry:    registry,
		monitor:     monitor,
		sinkTimeout: sinkTimeout,
	}
}

// Add appends permanent sinks that receive every event regardless of room.
func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.permanent = append(w.permanent, sinks...)
	return w
}

// OnRoomDrained registers a callback fired once a room's RoomEnded event
// has been delivered and its subscriptions purged.
func (w *EventFanout) OnRoomDrained(fn func(code string)) *EventFanout {
	w.onRoomDrained = fn
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		case evt := <-w.events:
			w.fanout(ctx, evt)
		}
	}
}

func (w *EventFanout) fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.registry.GetSinksForRoom(evt.RoomCode())
	sinks = append(sinks, w.permanent...)

	for _, sink := range sinks {
		deliveryCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(deliveryCtx, evt); err != nil {
			w.monitor.DroppedSend()
			w.log.Debug("Sink refused event", "room", evt.RoomCode(), "error", err)
		}
		cancel()
	}
	w.monitor.EventFanned()

	// RoomEnded is the last frame a member can receive. Purging here, in
	// event order, means members above still got their final frame but
	// will see nothing from a later session that reuses the code.
	if _, ended := evt.(event.RoomEnded); ended {
		w.registry.DropRoom(evt.RoomCode())
		if w.onRoomDrained != nil {
			w.onRoomDrained(evt.RoomCode())
		}
	}
}
