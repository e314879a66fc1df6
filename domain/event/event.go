// Package event defines the payloads emitted by a running session.
// Events are immutable snapshots; they never alias live room state.
package event

type DomainEvent interface {
	RoomCode() string
}

// ScoreEntry is one row of a leaderboard or player listing.
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RoomUpdated is broadcast whenever the member list or status changes.
type RoomUpdated struct {
	Code          string       `json:"code"`
	Status        string       `json:"status"`
	QuestionIndex int          `json:"questionIndex"`
	Players       []ScoreEntry `json:"players"`
}

func (e RoomUpdated) RoomCode() string { return e.Code }

// QuestionStarted carries everything a client needs to render a question.
// Index is 1-based for display.
type QuestionStarted struct {
	Code             string   `json:"-"`
	Index            int      `json:"index"`
	Total            int      `json:"total"`
	Prompt           string   `json:"q"`
	Choices          []string `json:"choices"`
	TimeLimitSeconds int      `json:"timeLimit"`
}

func (e QuestionStarted) RoomCode() string { return e.Code }

// AnswerRevealed closes a question: the correct choice plus the standings.
type AnswerRevealed struct {
	Code         string       `json:"-"`
	CorrectIndex int          `json:"correct"`
	Leaderboard  []ScoreEntry `json:"leaderboard"`
}

func (e AnswerRevealed) RoomCode() string { return e.Code }

// GameOver carries the final leaderboard.
type GameOver struct {
	Code        string       `json:"-"`
	Leaderboard []ScoreEntry `json:"leaderboard"`
}

func (e GameOver) RoomCode() string { return e.Code }

// RoomEnded signals the host left and the room no longer exists.
type RoomEnded struct {
	Code string `json:"-"`
}

func (e RoomEnded) RoomCode() string { return e.Code }
