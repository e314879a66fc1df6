package domain

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed questions.json
var defaultQuizFS embed.FS

// Question is a single immutable quiz item.
type Question struct {
	Prompt           string   `json:"q"`
	Choices          []string `json:"choices"`
	CorrectIndex     int      `json:"answer"`
	TimeLimitSeconds int      `json:"timeLimit"`
}

// Quiz is the ordered question sequence supplied once per session.
// The engine never mutates it.
type Quiz struct {
	Questions []Question
}

// Validate rejects quizzes the state machine cannot run: no questions,
// choiceless questions, or a correct index outside the choice list.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("quiz has no questions")
	}
	for i, question := range q.Questions {
		if len(question.Choices) == 0 {
			return fmt.Errorf("question %d has no choices", i)
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Choices) {
			return fmt.Errorf("question %d: correct index %d out of range", i, question.CorrectIndex)
		}
	}
	return nil
}

// DefaultQuiz loads the question bank embedded in the binary.
func DefaultQuiz() (Quiz, error) {
	data, err := defaultQuizFS.ReadFile("questions.json")
	if err != nil {
		return Quiz{}, fmt.Errorf("read embedded quiz: %w", err)
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return Quiz{}, fmt.Errorf("parse embedded quiz: %w", err)
	}
	quiz := Quiz{Questions: questions}
	if err := quiz.Validate(); err != nil {
		return Quiz{}, err
	}
	return quiz, nil
}
