// Package domain contains the core concepts of the quiz system: rooms,
// players, quizzes and the commands that drive a session.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"slices"

	"github.com/samber/lo"

	"quiz-lab/domain/event"
	"quiz-lab/errors"
)

type Status string

const (
	StatusLobby    Status = "lobby"
	StatusQuestion Status = "question"
	StatusReveal   Status = "reveal"
	StatusOver     Status = "over"
)

// Player is a connected participant. ConnID is the opaque connection
// handle minted by the transport; it is unique within a room.
type Player struct {
	ConnID   string
	Name     string
	Score    int
	Answered bool
}

// Room is the aggregate owned by a single session coordinator.
// All mutators are command shaped: they update state and append immutable
// event payloads to an outbox, which the coordinator flushes after every
// command. The outbox pattern keeps the state machine the single source of
// truth regardless of the storage technology behind it.
//
// Room is not safe for concurrent use; the coordinator serializes access.
type Room struct {
	Code          string
	HostID        string
	Status        Status
	QuestionIndex int
	Accepting     bool
	Players       []Player // join order, preserved for leaderboard ties

	outbox []event.DomainEvent
}

func NewRoom(code, hostID string) *Room {
	r := &Room{
		Code:          code,
		HostID:        hostID,
		Status:        StatusLobby,
		QuestionIndex: -1,
	}
	r.emit(r.snapshot())
	return r
}

// FlushEvents drains the outbox. The caller owns the returned slice.
func (r *Room) FlushEvents() []event.DomainEvent {
	events := r.outbox
	r.outbox = nil
	return events
}

func (r *Room) emit(e event.DomainEvent) {
	r.outbox = append(r.outbox, e)
}

func (r *Room) player(connID string) *Player {
	for i := range r.Players {
		if r.Players[i].ConnID == connID {
			return &r.Players[i]
		}
	}
	return nil
}

// Join enrolls a player with score 0. Joining twice with the same
// connection is idempotent. Joining a finished room is a conflict.
func (r *Room) Join(connID, name string) error {
	if r.Status == StatusOver {
		return errors.ErrGameOver
	}
	if r.player(connID) == nil {
		r.Players = append(r.Players, Player{ConnID: connID, Name: name})
	}
	r.emit(r.snapshot())
	return nil
}

// RemovePlayer drops a player from the set. Scores of remaining players are
// untouched. It reports whether the departure completed the current
// question, i.e. everyone still connected has answered.
func (r *Room) RemovePlayer(connID string) (allAnswered bool) {
	before := len(r.Players)
	r.Players = slices.DeleteFunc(r.Players, func(p Player) bool {
		return p.ConnID == connID
	})
	if len(r.Players) == before {
		return false
	}
	r.emit(r.snapshot())
	return r.allAnswered()
}

// Start validates a host start request from the lobby and rewinds the
// question index so the first Advance lands on question 0. Starting an
// empty room is rejected: a session never enters question state with
// nobody able to answer.
func (r *Room) Start(connID string) error {
	if connID != r.HostID {
		return errors.ErrForbidden
	}
	if r.Status != StatusLobby {
		return errors.ErrInvalidState
	}
	if len(r.Players) == 0 {
		return errors.ErrInvalidState
	}
	r.QuestionIndex = -1
	return nil
}

// Advance moves to the next question, or to game over when the quiz is
// exhausted. It reports whether a question was opened; when false the
// session is over and no timer must be armed.
func (r *Room) Advance(quiz Quiz) (questionOpen bool) {
	r.QuestionIndex++

	if r.QuestionIndex >= len(quiz.Questions) {
		r.Status = StatusOver
		r.Accepting = false
		r.emit(event.GameOver{Code: r.Code, Leaderboard: r.Leaderboard()})
		return false
	}

	r.Status = StatusQuestion
	r.Accepting = true
	for i := range r.Players {
		r.Players[i].Answered = false
	}

	q := quiz.Questions[r.QuestionIndex]
	r.emit(event.QuestionStarted{
		Code:             r.Code,
		Index:            r.QuestionIndex + 1,
		Total:            len(quiz.Questions),
		Prompt:           q.Prompt,
		Choices:          slices.Clone(q.Choices),
		TimeLimitSeconds: q.TimeLimitSeconds,
	})
	r.emit(r.snapshot())
	return true
}

// SubmitAnswer records a player's choice for the current question and
// awards one point on a correct answer. A second submission from the same
// player is acknowledged without rescoring. It reports whether every
// connected player has now answered.
func (r *Room) SubmitAnswer(connID string, choice int, quiz Quiz) (allAnswered bool, err error) {
	if r.Status != StatusQuestion || !r.Accepting {
		return false, errors.ErrInvalidState
	}
	p := r.player(connID)
	if p == nil {
		return false, errors.ErrPlayerNotFound
	}
	if p.Answered {
		return false, nil
	}

	p.Answered = true
	if q := quiz.Questions[r.QuestionIndex]; choice == q.CorrectIndex {
		p.Score++
	}
	return r.allAnswered(), nil
}

// Reveal closes the current question. It is the convergence point of the
// "all answered" trigger and the question timeout: whichever fires first
// observes question state and wins, the loser sees reveal state and backs
// off. The returned flag tells the caller whether it won.
func (r *Room) Reveal(quiz Quiz) bool {
	if r.Status != StatusQuestion {
		return false
	}
	r.Accepting = false
	r.Status = StatusReveal
	r.emit(event.AnswerRevealed{
		Code:         r.Code,
		CorrectIndex: quiz.Questions[r.QuestionIndex].CorrectIndex,
		Leaderboard:  r.Leaderboard(),
	})
	return true
}

// End marks the session terminated by its host.
func (r *Room) End() {
	r.Status = StatusOver
	r.Accepting = false
	r.emit(event.RoomEnded{Code: r.Code})
}

func (r *Room) allAnswered() bool {
	if r.Status != StatusQuestion || !r.Accepting || len(r.Players) == 0 {
		return false
	}
	return !slices.ContainsFunc(r.Players, func(p Player) bool {
		return !p.Answered
	})
}

// Leaderboard recomputes the standings from current scores: stable sort by
// score descending, ties keep join order. The result is a copy, never a
// view into live state.
func (r *Room) Leaderboard() []event.ScoreEntry {
	entries := lo.Map(r.Players, func(p Player, _ int) event.ScoreEntry {
		return event.ScoreEntry{Name: p.Name, Score: p.Score}
	})
	slices.SortStableFunc(entries, func(a, b event.ScoreEntry) int {
		return b.Score - a.Score
	})
	return entries
}

func (r *Room) snapshot() event.RoomUpdated {
	return event.RoomUpdated{
		Code:          r.Code,
		Status:        string(r.Status),
		QuestionIndex: r.QuestionIndex,
		Players: lo.Map(r.Players, func(p Player, _ int) event.ScoreEntry {
			return event.ScoreEntry{Name: p.Name, Score: p.Score}
		}),
	}
}
