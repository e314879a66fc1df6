package projection

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-lab/domain/event"
)

func TestEventLog_RetainsPerRoom(t *testing.T) {
	log := NewEventLog(10)
	ctx := context.Background()

	require.NoError(t, log.Consume(ctx, event.QuestionStarted{Code: "1111", Index: 0}))
	require.NoError(t, log.Consume(ctx, event.QuestionStarted{Code: "2222", Index: 0}))
	require.NoError(t, log.Consume(ctx, event.AnswerRevealed{Code: "1111", CorrectIndex: 2}))

	assert.Len(t, log.Events("1111"), 2)
	assert.Len(t, log.Events("2222"), 1)
	assert.Empty(t, log.Events("3333"))
}

func TestEventLog_CapsHistory(t *testing.T) {
	log := NewEventLog(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Consume(ctx, event.QuestionStarted{Code: "1111", Index: i}))
	}

	events := log.Events("1111")
	require.Len(t, events, 3)
	// Oldest entries are evicted first.
	assert.Equal(t, 2, events[0].(event.QuestionStarted).Index)
	assert.Equal(t, 4, events[2].(event.QuestionStarted).Index)
}

func TestEventLog_DropsHistoryWhenRoomEnds(t *testing.T) {
	log := NewEventLog(10)
	ctx := context.Background()

	require.NoError(t, log.Consume(ctx, event.GameOver{Code: "1111"}))
	require.NoError(t, log.Consume(ctx, event.RoomEnded{Code: "1111"}))

	assert.Empty(t, log.Events("1111"))
}

func TestEventLog_EventsReturnsCopy(t *testing.T) {
	log := NewEventLog(10)
	require.NoError(t, log.Consume(context.Background(), event.GameOver{Code: "1111"}))

	events := log.Events("1111")
	events[0] = event.RoomEnded{Code: "9999"}

	kept := log.Events("1111")
	require.Len(t, kept, 1)
	assert.Equal(t, fmt.Sprintf("%T", event.GameOver{}), fmt.Sprintf("%T", kept[0]))
}
