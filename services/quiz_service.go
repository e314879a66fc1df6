package services

import (
	"context"

	"quiz-lab/contract"
	"quiz-lab/domain"
)

type IQuizService interface {
	CreateRoom(ctx context.Context, hostConnID string) (string, error)
	JoinRoom(ctx context.Context, code, name, connID string) error
	StartGame(ctx context.Context, code, connID string) error
	SubmitAnswer(ctx context.Context, code, connID string, choice int) error
	Disconnect(ctx context.Context, connID string) error
	Subscribe(connID, code string, sink contract.EventSink)
	Unsubscribe(connID, code string)
}

// QuizService is the thin command facade the transport calls. All session
// logic lives behind the engine; this layer only shapes commands.
type QuizService struct {
	engine contract.IEngine
}

func NewQuizService(engine contract.IEngine) *QuizService {
	return &QuizService{engine: engine}
}

func (s *QuizService) CreateRoom(ctx context.Context, hostConnID string) (string, error) {
	return s.engine.CreateRoom(ctx, hostConnID)
}

func (s *QuizService) JoinRoom(ctx context.Context, code, name, connID string) error {
	return s.engine.Dispatch(ctx, domain.JoinRoomCommand{Code: code, Name: name, ConnID: connID})
}

func (s *QuizService) StartGame(ctx context.Context, code, connID string) error {
	return s.engine.Dispatch(ctx, domain.StartGameCommand{Code: code, ConnID: connID})
}

func (s *QuizService) SubmitAnswer(ctx context.Context, code, connID string, choice int) error {
	return s.engine.Dispatch(ctx, domain.SubmitAnswerCommand{Code: code, ConnID: connID, Choice: choice})
}

func (s *QuizService) Disconnect(ctx context.Context, connID string) error {
	return s.engine.Disconnect(ctx, connID)
}

func (s *QuizService) Subscribe(connID, code string, sink contract.EventSink) {
	s.engine.Subscribe(connID, code, sink)
}

func (s *QuizService) Unsubscribe(connID, code string) {
	s.engine.Unsubscribe(connID, code)
}
