package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// ErrRoomNotFound is returned for any command targeting an unknown or
	// expired room code. It is a normal result, not an internal failure.
	ErrRoomNotFound = fmt.Errorf("room not found")

	// ErrForbidden is returned when a non-host issues a host-only command.
	ErrForbidden = fmt.Errorf("forbidden")

	// ErrInvalidState is returned when a command is illegal for the room's
	// current status, e.g. answering outside an open question.
	ErrInvalidState = fmt.Errorf("invalid state")

	// ErrGameOver is returned on a join attempt against a finished room.
	ErrGameOver = fmt.Errorf("game already finished")

	// ErrPlayerNotFound is returned when a command references a connection
	// that is not a member of the room.
	ErrPlayerNotFound = fmt.Errorf("player not found")
)
