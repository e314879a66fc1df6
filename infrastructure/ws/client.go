package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"quiz-lab/services"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Client pumps one websocket connection. Inbound frames become service
// calls; outbound frames arrive on the send channel, fed by this
// connection's Sink and by direct command replies.
type Client struct {
	log      *slog.Logger
	conn     *websocket.Conn
	service  services.IQuizService
	validate *validator.Validate

	connID string
	code   string // room this connection is attached to, set on create/join
	send   chan []byte
}

func NewClient(log *slog.Logger, conn *websocket.Conn, service services.IQuizService,
	validate *validator.Validate, connID string, bufferSize int) *Client {
	return &Client{
		log:      log.With("conn", connID),
		conn:     conn,
		service:  service,
		validate: validate,
		connID:   connID,
		send:     make(chan []byte, bufferSize),
	}
}

// Run blocks until the connection dies, then detaches the connection from
// its room. Disconnect handling is the same for hosts and players; the
// engine decides whether the departure ends the room.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	go c.writePump(ctx)
	c.readPump(ctx)
	cancel()

	if c.code != "" {
		c.service.Unsubscribe(c.connID, c.code)
	}
	// Use a fresh context: the connection is gone but the room must still
	// learn about it.
	disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), writeWait)
	defer cancelDisconnect()
	if err := c.service.Disconnect(disconnectCtx, c.connID); err != nil {
		c.log.Warn("Disconnect handling failed", "error", err)
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("Websocket read error", "error", err)
			} else {
				c.log.Debug("Websocket closed")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.replyError(fmt.Errorf("malformed envelope"))
			continue
		}
		c.handle(ctx, env)
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(ctx context.Context, env Envelope) {
	switch env.Type {
	case TypeCreateRoom:
		c.handleCreateRoom(ctx)
	case TypeJoin:
		c.handleJoin(ctx, env.Payload)
	case TypeStart:
		c.handleStart(ctx, env.Payload)
	case TypeAnswer:
		c.handleAnswer(ctx, env.Payload)
	default:
		c.replyError(fmt.Errorf("unknown message type %q", env.Type))
	}
}

func (c *Client) handleCreateRoom(ctx context.Context) {
	code, err := c.service.CreateRoom(ctx, c.connID)
	if err != nil {
		c.replyError(err)
		return
	}
	c.code = code
	// Subscribe before acking so the host also sees the lobby snapshot.
	c.service.Subscribe(c.connID, code, NewSink(c.log, c.send))
	c.reply(TypeRoomCreated, CreatedPayload{Code: code})
}

func (c *Client) handleJoin(ctx context.Context, raw json.RawMessage) {
	var payload JoinPayload
	if !c.decode(raw, &payload) {
		return
	}
	if err := c.service.JoinRoom(ctx, payload.Code, payload.Name, c.connID); err != nil {
		c.replyError(err)
		return
	}
	c.code = payload.Code
	c.service.Subscribe(c.connID, payload.Code, NewSink(c.log, c.send))
	c.reply(TypeAck, nil)
}

func (c *Client) handleStart(ctx context.Context, raw json.RawMessage) {
	var payload StartPayload
	if !c.decode(raw, &payload) {
		return
	}
	if err := c.service.StartGame(ctx, payload.Code, c.connID); err != nil {
		c.replyError(err)
		return
	}
	c.reply(TypeAck, nil)
}

func (c *Client) handleAnswer(ctx context.Context, raw json.RawMessage) {
	var payload AnswerPayload
	if !c.decode(raw, &payload) {
		return
	}
	if err := c.service.SubmitAnswer(ctx, payload.Code, c.connID, *payload.ChoiceIdx); err != nil {
		c.replyError(err)
		return
	}
	c.reply(TypeAck, nil)
}

// decode unmarshals and validates an inbound payload, replying with an
// error frame on rejection.
func (c *Client) decode(raw json.RawMessage, payload any) bool {
	if err := json.Unmarshal(raw, payload); err != nil {
		c.replyError(fmt.Errorf("malformed payload"))
		return false
	}
	if err := c.validate.Struct(payload); err != nil {
		c.replyError(fmt.Errorf("invalid payload"))
		return false
	}
	return true
}

func (c *Client) reply(msgType string, payload any) {
	frame, err := Encode(msgType, payload)
	if err != nil {
		c.log.Error("Failed to encode reply", "type", msgType, "error", err)
		return
	}
	c.enqueue(frame)
}

// replyError surfaces a rejected command to this one client only; it never
// disturbs other players or the host view.
func (c *Client) replyError(err error) {
	frame, encodeErr := Encode(TypeError, ErrorPayload{Error: err.Error()})
	if encodeErr != nil {
		return
	}
	c.enqueue(frame)
}

func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.log.Warn("Send buffer full, dropping frame")
	}
}
