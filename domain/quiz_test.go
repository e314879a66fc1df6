package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultQuiz_LoadsEmbeddedQuestions(t *testing.T) {
	quiz, err := DefaultQuiz()

	require.NoError(t, err)
	require.NotEmpty(t, quiz.Questions)
	for _, q := range quiz.Questions {
		require.NotEmpty(t, q.Prompt)
		require.NotEmpty(t, q.Choices)
		require.GreaterOrEqual(t, q.CorrectIndex, 0)
		require.Less(t, q.CorrectIndex, len(q.Choices))
	}
}

func TestQuiz_Validate(t *testing.T) {
	require.Error(t, Quiz{}.Validate())

	require.Error(t, Quiz{Questions: []Question{
		{Prompt: "?", Choices: nil, CorrectIndex: 0},
	}}.Validate())

	require.Error(t, Quiz{Questions: []Question{
		{Prompt: "?", Choices: []string{"a", "b"}, CorrectIndex: 2},
	}}.Validate())

	require.NoError(t, Quiz{Questions: []Question{
		{Prompt: "?", Choices: []string{"a", "b"}, CorrectIndex: 1},
	}}.Validate())
}
