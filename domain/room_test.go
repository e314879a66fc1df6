package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"quiz-lab/domain/event"
	"quiz-lab/errors"
)

func testQuiz() Quiz {
	return Quiz{Questions: []Question{
		{Prompt: "2+2?", Choices: []string{"3", "4"}, CorrectIndex: 1, TimeLimitSeconds: 10},
		{Prompt: "3+3?", Choices: []string{"6", "7"}, CorrectIndex: 0, TimeLimitSeconds: 10},
	}}
}

func TestNewRoom_StartsInLobbyWithSnapshot(t *testing.T) {
	room := NewRoom("4821", "host-1")

	require.Equal(t, StatusLobby, room.Status)
	require.Equal(t, -1, room.QuestionIndex)
	require.False(t, room.Accepting)

	events := room.FlushEvents()
	require.Len(t, events, 1)
	snapshot, ok := events[0].(event.RoomUpdated)
	require.True(t, ok)
	require.Equal(t, "4821", snapshot.Code)
	require.Equal(t, "lobby", snapshot.Status)
	require.Empty(t, room.FlushEvents())
}

func TestRoom_Join_IsIdempotentPerConnection(t *testing.T) {
	room := NewRoom("1234", "host-1")
	room.FlushEvents()

	require.NoError(t, room.Join("conn-a", "Ava"))
	require.NoError(t, room.Join("conn-a", "Ava"))

	require.Len(t, room.Players, 1)
}

func TestRoom_Join_FinishedRoomIsConflict(t *testing.T) {
	room := NewRoom("1234", "host-1")
	room.Status = StatusOver

	require.ErrorIs(t, room.Join("conn-a", "Ava"), errors.ErrGameOver)
}

func TestRoom_Start_Guards(t *testing.T) {
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")

	require.ErrorIs(t, room.Start("conn-a"), errors.ErrForbidden)

	empty := NewRoom("5678", "host-2")
	require.ErrorIs(t, empty.Start("host-2"), errors.ErrInvalidState)

	require.NoError(t, room.Start("host-1"))
	room.Advance(testQuiz())
	require.ErrorIs(t, room.Start("host-1"), errors.ErrInvalidState)
}

func TestRoom_Advance_OpensQuestionAndResetsFlags(t *testing.T) {
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")
	require.NoError(t, room.Start("host-1"))
	room.FlushEvents()

	open := room.Advance(testQuiz())

	require.True(t, open)
	require.Equal(t, StatusQuestion, room.Status)
	require.True(t, room.Accepting)
	require.Equal(t, 0, room.QuestionIndex)

	events := room.FlushEvents()
	require.Len(t, events, 2)
	question, ok := events[0].(event.QuestionStarted)
	require.True(t, ok)
	require.Equal(t, 1, question.Index)
	require.Equal(t, 2, question.Total)
	require.Equal(t, "2+2?", question.Prompt)
}

func TestRoom_Advance_PastLastQuestionEndsGame(t *testing.T) {
	quiz := testQuiz()
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")
	require.NoError(t, room.Start("host-1"))

	require.True(t, room.Advance(quiz))
	require.True(t, room.Reveal(quiz))
	require.True(t, room.Advance(quiz))
	require.True(t, room.Reveal(quiz))
	room.FlushEvents()

	open := room.Advance(quiz)

	require.False(t, open)
	require.Equal(t, StatusOver, room.Status)
	require.False(t, room.Accepting)

	events := room.FlushEvents()
	require.Len(t, events, 1)
	_, ok := events[0].(event.GameOver)
	require.True(t, ok)
}

func TestRoom_SubmitAnswer_ScoresOnlyCorrectChoice(t *testing.T) {
	quiz := testQuiz()
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")
	_ = room.Join("conn-b", "Bo")
	require.NoError(t, room.Start("host-1"))
	room.Advance(quiz)

	all, err := room.SubmitAnswer("conn-a", 1, quiz)
	require.NoError(t, err)
	require.False(t, all)

	all, err = room.SubmitAnswer("conn-b", 0, quiz)
	require.NoError(t, err)
	require.True(t, all)

	require.Equal(t, 1, room.Players[0].Score)
	require.Equal(t, 0, room.Players[1].Score)
}

func TestRoom_SubmitAnswer_DuplicateIsAcceptedWithoutRescoring(t *testing.T) {
	quiz := testQuiz()
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")
	require.NoError(t, room.Start("host-1"))
	room.Advance(quiz)

	_, err := room.SubmitAnswer("conn-a", 1, quiz)
	require.NoError(t, err)

	// Second submission succeeds but changes nothing, even with a
	// different choice.
	all, err := room.SubmitAnswer("conn-a", 0, quiz)
	require.NoError(t, err)
	require.False(t, all)
	require.Equal(t, 1, room.Players[0].Score)
}

func TestRoom_SubmitAnswer_Guards(t *testing.T) {
	quiz := testQuiz()
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")

	_, err := room.SubmitAnswer("conn-a", 1, quiz)
	require.ErrorIs(t, err, errors.ErrInvalidState)

	require.NoError(t, room.Start("host-1"))
	room.Advance(quiz)

	_, err = room.SubmitAnswer("conn-stranger", 1, quiz)
	require.ErrorIs(t, err, errors.ErrPlayerNotFound)

	require.True(t, room.Reveal(quiz))
	_, err = room.SubmitAnswer("conn-a", 1, quiz)
	require.ErrorIs(t, err, errors.ErrInvalidState)
}

func TestRoom_ScoreNeverDecreasesAcrossQuestions(t *testing.T) {
	quiz := testQuiz()
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")
	require.NoError(t, room.Start("host-1"))

	room.Advance(quiz)
	_, _ = room.SubmitAnswer("conn-a", 1, quiz) // correct
	previous := room.Players[0].Score
	require.Equal(t, 1, previous)
	room.Reveal(quiz)

	room.Advance(quiz)
	_, _ = room.SubmitAnswer("conn-a", 1, quiz) // wrong
	require.GreaterOrEqual(t, room.Players[0].Score, previous)
	require.Equal(t, 1, room.Players[0].Score)
}

func TestRoom_Reveal_SecondTriggerIsNoOp(t *testing.T) {
	quiz := testQuiz()
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")
	require.NoError(t, room.Start("host-1"))
	room.Advance(quiz)
	room.FlushEvents()

	require.True(t, room.Reveal(quiz))
	require.False(t, room.Reveal(quiz))

	var reveals int
	for _, e := range room.FlushEvents() {
		if _, ok := e.(event.AnswerRevealed); ok {
			reveals++
		}
	}
	require.Equal(t, 1, reveals)
	require.False(t, room.Accepting)
	require.Equal(t, StatusReveal, room.Status)
}

func TestRoom_RemovePlayer_CanCompleteTheQuestion(t *testing.T) {
	quiz := testQuiz()
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")
	_ = room.Join("conn-b", "Bo")
	require.NoError(t, room.Start("host-1"))
	room.Advance(quiz)

	_, err := room.SubmitAnswer("conn-a", 1, quiz)
	require.NoError(t, err)

	// The only unanswered player leaves: the remaining set is complete.
	require.True(t, room.RemovePlayer("conn-b"))
	require.Len(t, room.Players, 1)
}

func TestRoom_RemovePlayer_UnknownConnIsNoOp(t *testing.T) {
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")
	room.FlushEvents()

	require.False(t, room.RemovePlayer("conn-zzz"))
	require.Empty(t, room.FlushEvents())
}

func TestRoom_Leaderboard_StableDescendingWithJoinOrderTies(t *testing.T) {
	room := NewRoom("1234", "host-1")
	_ = room.Join("conn-a", "Ava")
	_ = room.Join("conn-b", "Bo")
	_ = room.Join("conn-c", "Cy")
	_ = room.Join("conn-d", "Di")

	room.Players[3].Score = 2 // Di leads

	board := room.Leaderboard()

	require.Equal(t, []event.ScoreEntry{
		{Name: "Di", Score: 2},
		{Name: "Ava", Score: 0},
		{Name: "Bo", Score: 0},
		{Name: "Cy", Score: 0},
	}, board)

	// The returned slice is a copy, never a live view.
	board[0].Score = 99
	require.Equal(t, 2, room.Players[3].Score)
}

func TestRoom_End_EmitsRoomEnded(t *testing.T) {
	room := NewRoom("1234", "host-1")
	room.FlushEvents()

	room.End()

	require.Equal(t, StatusOver, room.Status)
	events := room.FlushEvents()
	require.Len(t, events, 1)
	_, ok := events[0].(event.RoomEnded)
	require.True(t, ok)
}
