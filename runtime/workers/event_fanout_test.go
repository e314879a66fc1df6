package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quiz-lab/contract"
	"quiz-lab/domain/event"
	"quiz-lab/observability"
)

type stubRegistry struct {
	sinks   map[string][]contract.EventSink
	dropped []string
}

func (r *stubRegistry) GetSinksForRoom(code string) []contract.EventSink {
	return r.sinks[code]
}

func (r *stubRegistry) Subscribe(connID, code string, sink contract.EventSink) {}
func (r *stubRegistry) Unsubscribe(connID, code string)                        {}

func (r *stubRegistry) DropRoom(code string) {
	delete(r.sinks, code)
	r.dropped = append(r.dropped, code)
}

type captureSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
	err    error
	block  bool
}

func (s *captureSink) Consume(ctx context.Context, evt event.DomainEvent) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return s.err
}

func (s *captureSink) Received() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func TestEventFanout_DeliversToRoomMembersAndPermanentSinks(t *testing.T) {
	member := &captureSink{}
	permanent := &captureSink{}
	other := &captureSink{}

	registry := &stubRegistry{sinks: map[string][]contract.EventSink{
		"4242": {member},
		"9999": {other},
	}}

	events := make(chan event.DomainEvent, 4)
	fanout := NewEventFanout(testLogger(), events, registry,
		observability.NewMonitor(), time.Second)
	fanout.Add(permanent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = fanout.Run(ctx)
		close(done)
	}()

	events <- event.RoomEnded{Code: "4242"}

	require.Eventually(t, func() bool {
		return len(member.Received()) == 1 && len(permanent.Received()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, other.Received(), "events must stay scoped to their room")

	cancel()
	<-done
}

func TestEventFanout_RoomEndedPurgesSubscriptionsAfterDelivery(t *testing.T) {
	member := &captureSink{}
	registry := &stubRegistry{sinks: map[string][]contract.EventSink{
		"4242": {member},
	}}

	events := make(chan event.DomainEvent, 1)
	fanout := NewEventFanout(testLogger(), events, registry,
		observability.NewMonitor(), time.Second)
	drained := make(chan string, 1)
	fanout.OnRoomDrained(func(code string) { drained <- code })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	events <- event.RoomEnded{Code: "4242"}

	select {
	case code := <-drained:
		require.Equal(t, "4242", code)
	case <-time.After(time.Second):
		t.Fatal("room was never reported drained")
	}

	// The member got its final frame before the purge, and the purge
	// happened before the drain callback.
	require.Len(t, member.Received(), 1)
	require.Equal(t, []string{"4242"}, registry.dropped)
}

func TestEventFanout_SlowSinkDoesNotBlockOthers(t *testing.T) {
	slow := &captureSink{block: true}
	fast := &captureSink{}

	registry := &stubRegistry{sinks: map[string][]contract.EventSink{
		"4242": {slow, fast},
	}}

	events := make(chan event.DomainEvent, 1)
	monitor := observability.NewMonitor()
	fanout := NewEventFanout(testLogger(), events, registry, monitor, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	events <- event.GameOver{Code: "4242"}

	require.Eventually(t, func() bool {
		return len(fast.Received()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return monitor.Snapshot().DroppedSends == 1
	}, time.Second, 5*time.Millisecond)
}
