package ws

import (
	"context"
	"fmt"
	"log/slog"

	"quiz-lab/contract"
	"quiz-lab/domain/event"
)

var _ contract.EventSink = Sink{}

// Sink adapts one connection's send channel to the fanout contract.
// Delivery respects the fanout's per-sink timeout through ctx; a consumer
// that cannot keep up loses the frame instead of stalling the room.
type Sink struct {
	log  *slog.Logger
	send chan<- []byte
}

func NewSink(log *slog.Logger, send chan<- []byte) Sink {
	return Sink{log: log, send: send}
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	frame, ok := EncodeEvent(e)
	if !ok {
		s.log.Debug(fmt.Sprintf("No wire mapping for event %T", e))
		return nil
	}
	select {
	case s.send <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
