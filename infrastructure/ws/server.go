package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quiz-lab/services"
)

// Server exposes the HTTP surface: a health probe and the websocket
// upgrade endpoint. Each accepted connection gets a fresh connection ID;
// that ID is the opaque handle the whole engine knows the peer by.
type Server struct {
	log        *slog.Logger
	service    services.IQuizService
	validate   *validator.Validate
	upgrader   websocket.Upgrader
	router     *gin.Engine
	bufferSize int
}

func NewServer(log *slog.Logger, service services.IQuizService, connectionBufferSize int) *Server {
	s := &Server{
		log:      log,
		service:  service,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			// Clients are served from arbitrary origins, as in the
			// original deployment.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		bufferSize: connectionBufferSize,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", s.handleHealth)
	router.GET("/ws", s.handleWebsocket)
	s.router = router

	return s
}

// Handler returns the HTTP handler for mounting on an http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.NewString()
	s.log.Debug("Connection accepted", "conn", connID)

	client := NewClient(s.log, conn, s.service, s.validate, connID, s.bufferSize)
	// The request is hijacked; the client owns the connection lifetime.
	client.Run(context.Background())
}
