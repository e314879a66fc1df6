package domain

// Command is a client intent targeting one room. Commands are routed to the
// coordinator owning the room code and applied one at a time.
type Command interface {
	RoomCode() string
}

type JoinRoomCommand struct {
	Code   string
	ConnID string
	Name   string
}

func (c JoinRoomCommand) RoomCode() string { return c.Code }

// StartGameCommand is host-only and legal only from the lobby.
type StartGameCommand struct {
	Code   string
	ConnID string
}

func (c StartGameCommand) RoomCode() string { return c.Code }

type SubmitAnswerCommand struct {
	Code   string
	ConnID string
	Choice int
}

func (c SubmitAnswerCommand) RoomCode() string { return c.Code }

// LeaveRoomCommand removes a player after their connection dropped.
type LeaveRoomCommand struct {
	Code   string
	ConnID string
}

func (c LeaveRoomCommand) RoomCode() string { return c.Code }

// EndRoomCommand terminates the session; issued when the host disconnects.
type EndRoomCommand struct {
	Code   string
	ConnID string
}

func (c EndRoomCommand) RoomCode() string { return c.Code }
