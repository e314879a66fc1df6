package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quiz-lab/contract"
	"quiz-lab/domain"
	"quiz-lab/domain/event"
	"quiz-lab/errors"
	"quiz-lab/repositories"
)

// Ensure *Coordinator implements the contract.Worker interface at compile time.
var _ contract.Worker = (*Coordinator)(nil)

// Timing holds the two clocks a session runs on.
type Timing struct {
	// QuestionTime is the answer window used when a question carries no
	// limit of its own.
	QuestionTime time.Duration
	// RevealPause is how long the answer stays on screen before the next
	// question starts.
	RevealPause time.Duration
}

type envelope struct {
	cmd   domain.Command
	reply chan error
}

// Coordinator owns one room for the lifetime of its session: the state
// machine, both timers, scoring and persistence. Everything that can move
// the room forward - player commands, host commands, the question timeout
// and the reveal pause - is consumed by a single Run loop, so effects are
// applied strictly one at a time and a transition is observably atomic.
//
// The race this layout exists to solve: a question timeout expiring in the
// same tick as the last answer arriving must produce exactly one reveal.
// Both triggers funnel through the same select; whichever is served first
// transitions the room out of question state, and the loser's Reveal is a
// state-guarded no-op.
type Coordinator struct {
	log    *slog.Logger
	room   *domain.Room
	quiz   domain.Quiz
	timing Timing
	store  repositories.IRoomStore
	events chan<- event.DomainEvent

	commands chan envelope
	done     chan struct{}
	once     sync.Once
	onClose  func(code string)

	// Timers are owned here, never shared: cancelling them is part of the
	// coordinator's own transition logic.
	questionTimer *time.Timer
	revealTimer   *time.Timer
	ended         bool
}

func NewCoordinator(log *slog.Logger, room *domain.Room, quiz domain.Quiz,
	timing Timing, store repositories.IRoomStore,
	events chan<- event.DomainEvent, bufferSize int, onClose func(code string)) *Coordinator {
	return &Coordinator{
		log:      log.With("room", room.Code),
		room:     room,
		quiz:     quiz,
		timing:   timing,
		store:    store,
		events:   events,
		commands: make(chan envelope, bufferSize),
		done:     make(chan struct{}),
		onClose:  onClose,
	}
}

// Run serializes every trigger for this room. It returns nil when the
// session ends so the supervisor does not restart a finished room.
func (c *Coordinator) Run(ctx context.Context) error {
	// The room constructor leaves the initial lobby snapshot in the
	// outbox; flush it so clients see the room as soon as it exists.
	c.flush()

	for {
		select {
		case <-ctx.Done():
			c.stopTimers()
			c.close()
			return nil

		case env := <-c.commands:
			err := c.apply(env.cmd)
			c.flush()
			env.reply <- err
			if c.ended {
				c.close()
				return nil
			}

		case <-timerChan(c.questionTimer):
			// Time's up: reveal unless an early reveal already won.
			c.questionTimer = nil
			c.reveal()
			c.flush()

		case <-timerChan(c.revealTimer):
			c.revealTimer = nil
			c.advance()
			c.flush()
		}
	}
}

// Done is closed once the coordinator stops consuming commands.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

func (c *Coordinator) apply(cmd domain.Command) error {
	switch cmd := cmd.(type) {
	case domain.JoinRoomCommand:
		return c.room.Join(cmd.ConnID, cmd.Name)

	case domain.StartGameCommand:
		if err := c.room.Start(cmd.ConnID); err != nil {
			return err
		}
		c.advance()
		return nil

	case domain.SubmitAnswerCommand:
		allAnswered, err := c.room.SubmitAnswer(cmd.ConnID, cmd.Choice, c.quiz)
		if err != nil {
			return err
		}
		if allAnswered {
			c.reveal()
		}
		return nil

	case domain.LeaveRoomCommand:
		// A departure can complete the current question for everyone left.
		if c.room.RemovePlayer(cmd.ConnID) {
			c.reveal()
		}
		return nil

	case domain.EndRoomCommand:
		if cmd.ConnID != c.room.HostID {
			return errors.ErrForbidden
		}
		c.stopTimers()
		c.room.End()
		c.ended = true
		return nil

	default:
		c.log.Warn(fmt.Sprintf("Unknown command %T, ignoring", cmd))
		return nil
	}
}

// advance opens the next question and arms its timeout, or finishes the
// game when the quiz is exhausted.
func (c *Coordinator) advance() {
	if questionOpen := c.room.Advance(c.quiz); !questionOpen {
		c.stopTimers()
		return
	}

	limit := c.timing.QuestionTime
	if s := c.quiz.Questions[c.room.QuestionIndex].TimeLimitSeconds; s > 0 {
		limit = time.Duration(s) * time.Second
	}
	c.questionTimer = time.NewTimer(limit)
}

// reveal closes the current question if it is still open, cancels the
// pending timeout and arms the reveal pause. Outside question state it is
// a no-op, which is what defuses the timeout-vs-all-answered race.
func (c *Coordinator) reveal() {
	if !c.room.Reveal(c.quiz) {
		return
	}
	stopTimer(&c.questionTimer)
	c.revealTimer = time.NewTimer(c.timing.RevealPause)
}

// flush persists the room after the mutation that just happened and hands
// the outbox to the fanout channel. Storage trouble is logged, never
// propagated: one room's persistence hiccup must not take down a session,
// and the in-memory state machine stays authoritative.
func (c *Coordinator) flush() {
	if c.ended {
		if err := c.store.Delete(c.room.Code); err != nil {
			c.log.Error("Failed to delete room record", "error", err)
		}
	} else {
		if err := c.store.Save(repositories.FromRoom(c.room)); err != nil {
			c.log.Error("Failed to persist room record", "error", err)
		}
	}

	for _, evt := range c.room.FlushEvents() {
		select {
		case c.events <- evt:
		default:
			c.log.Warn(fmt.Sprintf("Event channel full, dropping %T", evt))
		}
	}
}

func (c *Coordinator) stopTimers() {
	stopTimer(&c.questionTimer)
	stopTimer(&c.revealTimer)
}

func (c *Coordinator) close() {
	c.once.Do(func() {
		if c.onClose != nil {
			c.onClose(c.room.Code)
		}
		close(c.done)
	})
}

func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// stopTimer cancels a pending timer and drains an already-fired one so a
// stale expiry can never be read later in the select loop.
func stopTimer(t **time.Timer) {
	timer := *t
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	*t = nil
}
