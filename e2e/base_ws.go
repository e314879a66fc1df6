package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"quiz-lab/domain"
	"quiz-lab/infrastructure/ws"
	"quiz-lab/observability"
	"quiz-lab/repositories"
	"quiz-lab/runtime"
	"quiz-lab/runtime/workers"
	"quiz-lab/services"
)

// Game pacing for the suite. Questions carry no per-question limit, so the
// engine resolves every answer window to this default; it stays a whole
// second because that is what clients are told to count down.
const (
	questionTime = time.Second
	revealPause  = 100 * time.Millisecond
)

// BaseWsSuite boots a full engine behind a real HTTP server and speaks to
// it over actual websocket connections, the same path production clients
// take.
type BaseWsSuite struct {
	suite.Suite
	Config Config

	engine *runtime.Engine
	server *httptest.Server
	cancel context.CancelFunc
}

func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	quiz := domain.Quiz{Questions: []domain.Question{
		{
			Prompt:       "What is the capital of France?",
			Choices:      []string{"Lyon", "Paris", "Marseille", "Lille"},
			CorrectIndex: 1,
		},
		{
			Prompt:       "How many sides does a hexagon have?",
			Choices:      []string{"5", "6", "7", "8"},
			CorrectIndex: 1,
		},
	}}
	s.Require().NoError(quiz.Validate())

	sup := workers.NewSupervisor(log, 50*time.Millisecond)
	s.engine = runtime.NewEngine(log, sup, runtime.NewRegistry(),
		repositories.NewMemoryRoomStore(), observability.NewMonitor(),
		quiz, runtime.NewCodeAllocator(runtime.DefaultCodeAlphabet, 4),
		runtime.Timing{QuestionTime: questionTime, RevealPause: revealPause},
		256, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() { _ = s.engine.Start(ctx) }()

	service := services.NewQuizService(s.engine)
	s.server = httptest.NewServer(ws.NewServer(log, service, 64).Handler())
}

func (s *BaseWsSuite) TearDownSuite() {
	s.server.Close()
	s.engine.Stop()
	s.cancel()
}

// Dial opens a websocket connection against the suite server, printing a
// colorized header so interleaved scenario logs stay readable.
func (s *BaseWsSuite) Dial(name string) *websocket.Conn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err, "Failed to dial websocket at "+url)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// Send frames and writes an inbound message.
func (s *BaseWsSuite) Send(conn *websocket.Conn, msgType string, payload any) {
	frame, err := ws.Encode(msgType, payload)
	s.Require().NoError(err)
	if s.Config.DebugFrames {
		s.T().Logf(">>> %s", frame)
	}
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, frame))
}

// Recv reads frames until one of the wanted type arrives. Command acks and
// room:update broadcasts interleave freely with game events on a live
// connection, so anything else is skipped rather than asserted on. An
// error frame fails the step immediately unless it is what was asked for.
func (s *BaseWsSuite) Recv(conn *websocket.Conn, wantType string) json.RawMessage {
	deadline := time.Now().Add(s.Config.StepTimeout)
	s.Require().NoError(conn.SetReadDeadline(deadline))

	for {
		_, raw, err := conn.ReadMessage()
		s.Require().NoError(err, "Waiting for %q frame", wantType)
		if s.Config.DebugFrames {
			s.T().Logf("<<< %s", raw)
		}

		var env ws.Envelope
		s.Require().NoError(json.Unmarshal(raw, &env))
		if env.Type == wantType {
			return env.Payload
		}
		if env.Type == ws.TypeError {
			s.Require().Failf("Command rejected", "wanted %q, got error frame: %s", wantType, env.Payload)
		}
	}
}
