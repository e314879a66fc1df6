// Package ws is the websocket transport: JSON envelopes in both
// directions, one read/write pump pair per connection, and a per-connection
// sink plugged into the engine's fanout registry.
package ws

import (
	"encoding/json"
	"fmt"

	"quiz-lab/domain/event"
)

// Envelope frames every message on the wire.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types, kept aligned with the client vocabulary.
const (
	TypeCreateRoom = "host:createRoom"
	TypeStart      = "host:start"
	TypeJoin       = "player:join"
	TypeAnswer     = "player:answer"
)

// Outbound message types.
const (
	TypeRoomCreated = "room:created"
	TypeRoomUpdate  = "room:update"
	TypeQuestion    = "game:question"
	TypeReveal      = "game:reveal"
	TypeGameOver    = "game:over"
	TypeRoomEnded   = "room:ended"
	TypeAck         = "ack"
	TypeError       = "error"
)

type JoinPayload struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required,max=32"`
}

type StartPayload struct {
	Code string `json:"code" validate:"required"`
}

type AnswerPayload struct {
	Code string `json:"code" validate:"required"`
	// Pointer so a missing index is distinguishable from choice 0.
	ChoiceIdx *int `json:"choiceIdx" validate:"required,gte=0"`
}

type CreatedPayload struct {
	Code string `json:"code"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// Encode frames an outbound message.
func Encode(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// EncodeEvent translates a domain event into its wire frame. Unknown event
// types report false and are skipped by the sink.
func EncodeEvent(e event.DomainEvent) ([]byte, bool) {
	var (
		frame []byte
		err   error
	)
	switch evt := e.(type) {
	case event.RoomUpdated:
		frame, err = Encode(TypeRoomUpdate, evt)
	case event.QuestionStarted:
		frame, err = Encode(TypeQuestion, evt)
	case event.AnswerRevealed:
		frame, err = Encode(TypeReveal, evt)
	case event.GameOver:
		frame, err = Encode(TypeGameOver, evt)
	case event.RoomEnded:
		frame, err = Encode(TypeRoomEnded, nil)
	default:
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	return frame, true
}
