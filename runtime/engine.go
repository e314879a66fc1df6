// Package runtime hosts the session engine: room code allocation, the
// per-room coordinators, sink registry and event fanout. It orchestrates
// sessions without containing question or scoring rules, which live in
// domain.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"quiz-lab/contract"
	"quiz-lab/domain"
	"quiz-lab/domain/event"
	"quiz-lab/errors"
	"quiz-lab/observability"
	"quiz-lab/repositories"
	"quiz-lab/runtime/workers"
)

var _ contract.IEngine = (*Engine)(nil)

// Engine is the orchestration facade. It owns the code→coordinator map
// (the room registry), routes commands to the coordinator that owns the
// target room, and runs the shared fanout worker. Rooms themselves never
// share mutable state; the engine lock only guards the routing maps.
type Engine struct {
	mu    sync.Mutex
	log   *slog.Logger
	sup   contract.ISupervisor
	sinks contract.IRegistry

	store   repositories.IRoomStore
	monitor *observability.Monitor
	quiz    domain.Quiz
	codes   *CodeAllocator
	timing  Timing

	bufferSize  int
	sinkTimeout time.Duration
	events      chan event.DomainEvent

	rooms   map[string]*Coordinator
	hosts   map[string]string // host connID -> room code
	players map[string]string // player connID -> room code

	// draining holds codes of ended rooms whose final events are still in
	// the fanout queue. Such a code is not mintable again until the fanout
	// reports it drained, so a reused code can never resolve to the dead
	// session's subscribers.
	drainMu  sync.Mutex
	draining map[string]struct{}

	permanentSinks []contract.EventSink

	ctx context.Context // supervision context, set by Start
}

func NewEngine(log *slog.Logger, sup contract.ISupervisor, sinks contract.IRegistry,
	store repositories.IRoomStore, monitor *observability.Monitor,
	quiz domain.Quiz, codes *CodeAllocator, timing Timing,
	bufferSize int, sinkTimeout time.Duration) *Engine {
	return &Engine{
		log:         log,
		sup:         sup,
		sinks:       sinks,
		store:       store,
		monitor:     monitor,
		quiz:        withEffectiveLimits(quiz, timing.QuestionTime),
		codes:       codes,
		timing:      timing,
		bufferSize:  bufferSize,
		sinkTimeout: sinkTimeout,
		events:      make(chan event.DomainEvent, bufferSize),
		rooms:       make(map[string]*Coordinator),
		hosts:       make(map[string]string),
		players:     make(map[string]string),
		draining:    make(map[string]struct{}),
	}
}

// withEffectiveLimits resolves every question's answer window once, against
// the configured default, so the timer a coordinator arms and the limit
// clients render are always the same number.
func withEffectiveLimits(quiz domain.Quiz, questionTime time.Duration) domain.Quiz {
	fallback := int(math.Ceil(questionTime.Seconds()))
	questions := slices.Clone(quiz.Questions)
	for i := range questions {
		if questions[i].TimeLimitSeconds <= 0 {
			questions[i].TimeLimitSeconds = fallback
		}
	}
	return domain.Quiz{Questions: questions}
}

// AddSinks registers permanent sinks (projections, logging) that receive
// every event regardless of room. Must be called before Start.
func (e *Engine) AddSinks(sinks ...contract.EventSink) {
	e.permanentSinks = append(e.permanentSinks, sinks...)
}

// Start wires the fanout worker and runs the supervisor. It blocks until
// the context is cancelled, so callers run it in its own goroutine.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	e.ctx = ctx
	fanout := workers.NewEventFanout(e.log, e.events, e.sinks, e.monitor, e.sinkTimeout)
	fanout.Add(e.permanentSinks...)
	fanout.OnRoomDrained(e.releaseCode)
	e.sup.Add(fanout)
	e.mu.Unlock()

	e.log.Info("Starting engine and supervised workers")
	e.sup.Run(ctx)
	return nil
}

// Stop initiates a graceful shutdown: every coordinator and worker sees
// its context cancelled and drains.
func (e *Engine) Stop() {
	e.log.Info("Requesting engine shutdown")
	e.sup.Stop()
}

// CreateRoom allocates a collision-free code, spawns a coordinator in
// lobby state under supervision and returns the code. Allocation probes
// take the lock per code instead of holding it across retries, so a
// retiring room can always finish its removal while a create is searching.
func (e *Engine) CreateRoom(_ context.Context, hostConnID string) (string, error) {
	e.mu.Lock()
	if e.ctx == nil {
		e.mu.Unlock()
		return "", fmt.Errorf("engine not started")
	}
	ctx := e.ctx
	e.mu.Unlock()

	for {
		code := e.codes.Next(func(code string) bool {
			if e.isDraining(code) {
				return true
			}
			e.mu.Lock()
			_, live := e.rooms[code]
			e.mu.Unlock()
			if live {
				return true
			}
			// A code may also survive in storage from a previous process.
			_, err := e.store.GetByCode(code)
			return err == nil
		})

		e.mu.Lock()
		// One live room per host connection: a second create would orphan
		// the first room, since a disconnect only ends the room it maps to.
		if _, hosting := e.hosts[hostConnID]; hosting {
			e.mu.Unlock()
			return "", errors.ErrInvalidState
		}
		// Another create may have raced us to the same digits.
		if _, live := e.rooms[code]; live {
			e.mu.Unlock()
			continue
		}

		room := domain.NewRoom(code, hostConnID)
		coordinator := NewCoordinator(e.log, room, e.quiz, e.timing, e.store,
			e.events, e.bufferSize, e.removeRoom)

		e.rooms[code] = coordinator
		e.hosts[hostConnID] = code
		e.monitor.RoomOpened()
		e.sup.Start(ctx, coordinator)
		e.mu.Unlock()

		e.log.Info("Room created", "code", code, "host", hostConnID)
		return code, nil
	}
}

// Lookup reports whether a code maps to a live session.
func (e *Engine) Lookup(code string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.rooms[code]
	return ok
}

// Dispatch routes a command to the coordinator owning its room code and
// waits for the structured result. An unknown or already-ended room yields
// ErrRoomNotFound, a rejected command its taxonomy error; neither is ever
// fatal to other rooms.
func (e *Engine) Dispatch(ctx context.Context, cmd domain.Command) error {
	e.mu.Lock()
	coordinator, ok := e.rooms[cmd.RoomCode()]
	e.mu.Unlock()
	if !ok {
		return errors.ErrRoomNotFound
	}

	env := envelope{cmd: cmd, reply: make(chan error, 1)}
	select {
	case coordinator.commands <- env:
	case <-coordinator.Done():
		return errors.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	var err error
	select {
	case err = <-env.reply:
	case <-coordinator.Done():
		// The coordinator can retire with this command still queued, e.g.
		// behind the host's end of the room. It also closes Done right
		// after serving a command, so take a buffered reply if one was
		// written before giving up.
		select {
		case err = <-env.reply:
		default:
			return errors.ErrRoomNotFound
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	e.monitor.CommandApplied()
	e.trackMembership(cmd)
	return nil
}

func (e *Engine) trackMembership(cmd domain.Command) {
	switch cmd := cmd.(type) {
	case domain.JoinRoomCommand:
		e.mu.Lock()
		e.players[cmd.ConnID] = cmd.Code
		e.mu.Unlock()
	case domain.LeaveRoomCommand:
		e.mu.Lock()
		delete(e.players, cmd.ConnID)
		e.mu.Unlock()
	}
}

// Disconnect maps a dropped connection to its role. A host departure ends
// the whole room; a player departure only removes the player. Connections
// that never joined anything are a silent no-op, as is a room that already
// ended on its own.
func (e *Engine) Disconnect(ctx context.Context, connID string) error {
	e.mu.Lock()
	hostedCode, isHost := e.hosts[connID]
	playerCode, isPlayer := e.players[connID]
	e.mu.Unlock()

	var err error
	switch {
	case isHost:
		err = e.Dispatch(ctx, domain.EndRoomCommand{Code: hostedCode, ConnID: connID})
	case isPlayer:
		err = e.Dispatch(ctx, domain.LeaveRoomCommand{Code: playerCode, ConnID: connID})
	default:
		return nil
	}
	if err == errors.ErrRoomNotFound {
		return nil
	}
	return err
}

func (e *Engine) Subscribe(connID, code string, sink contract.EventSink) {
	e.sinks.Subscribe(connID, code, sink)
}

func (e *Engine) Unsubscribe(connID, code string) {
	e.sinks.Unsubscribe(connID, code)
}

// removeRoom is the coordinator's close callback: it forgets every
// connection routed at the room and parks the code as draining until the
// fanout has delivered the room's final events.
func (e *Engine) removeRoom(code string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.drainMu.Lock()
	e.draining[code] = struct{}{}
	e.drainMu.Unlock()

	delete(e.rooms, code)
	for connID, hosted := range e.hosts {
		if hosted == code {
			delete(e.hosts, connID)
		}
	}
	for connID, joined := range e.players {
		if joined == code {
			delete(e.players, connID)
		}
	}
	e.monitor.RoomClosed()
	e.log.Info("Room removed", "code", code)
}

func (e *Engine) isDraining(code string) bool {
	e.drainMu.Lock()
	defer e.drainMu.Unlock()
	_, draining := e.draining[code]
	return draining
}

// releaseCode is the fanout's drain callback: the room's subscriptions are
// purged and its RoomEnded has been delivered, so the code may be minted
// again.
func (e *Engine) releaseCode(code string) {
	e.drainMu.Lock()
	defer e.drainMu.Unlock()
	delete(e.draining, code)
}
