package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-lab/domain/event"
)

func decodeFrame(t *testing.T, frame []byte) (string, map[string]any) {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	if env.Payload == nil {
		return env.Type, nil
	}
	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	return env.Type, payload
}

func TestEncodeEvent_QuestionFrameHidesRoomCode(t *testing.T) {
	frame, ok := EncodeEvent(event.QuestionStarted{
		Code:             "4242",
		Index:            1,
		Total:            5,
		Prompt:           "Which planet is known as the Red Planet?",
		Choices:          []string{"Venus", "Mars", "Jupiter", "Saturn"},
		TimeLimitSeconds: 10,
	})
	require.True(t, ok)

	msgType, payload := decodeFrame(t, frame)
	assert.Equal(t, TypeQuestion, msgType)
	assert.Equal(t, "Which planet is known as the Red Planet?", payload["q"])
	assert.Equal(t, float64(10), payload["timeLimit"])
	// The code routes the frame; clients never need it in the payload.
	assert.NotContains(t, payload, "code")
	// The correct index is only ever sent in the reveal frame.
	assert.NotContains(t, payload, "correct")
}

func TestEncodeEvent_RevealCarriesLeaderboard(t *testing.T) {
	frame, ok := EncodeEvent(event.AnswerRevealed{
		Code:         "4242",
		CorrectIndex: 2,
		Leaderboard: []event.ScoreEntry{
			{Name: "Ada", Score: 3},
			{Name: "Grace", Score: 1},
		},
	})
	require.True(t, ok)

	msgType, payload := decodeFrame(t, frame)
	assert.Equal(t, TypeReveal, msgType)
	assert.Equal(t, float64(2), payload["correct"])
	require.Len(t, payload["leaderboard"], 2)
}

func TestEncodeEvent_RoomEndedHasNoPayload(t *testing.T) {
	frame, ok := EncodeEvent(event.RoomEnded{Code: "4242"})
	require.True(t, ok)

	msgType, payload := decodeFrame(t, frame)
	assert.Equal(t, TypeRoomEnded, msgType)
	assert.Nil(t, payload)
}

func TestEncodeEvent_UnknownEventSkipped(t *testing.T) {
	_, ok := EncodeEvent(nil)
	assert.False(t, ok)
}

func TestAnswerPayload_ZeroChoiceSurvivesRoundTrip(t *testing.T) {
	var payload AnswerPayload
	require.NoError(t, json.Unmarshal([]byte(`{"code":"4242","choiceIdx":0}`), &payload))
	require.NotNil(t, payload.ChoiceIdx)
	assert.Equal(t, 0, *payload.ChoiceIdx)

	var missing AnswerPayload
	require.NoError(t, json.Unmarshal([]byte(`{"code":"4242"}`), &missing))
	assert.Nil(t, missing.ChoiceIdx)
}
