//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"quiz-lab/domain"
	"quiz-lab/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself; the supervisor recovers panics and
// restarts it.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives broadcast events. Delivery is best effort: a slow or
// gone consumer must not stall the room that produced the event.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry maps live connections to their rooms so the fanout worker can
// resolve the sinks a room-addressed event should reach.
type IRegistry interface {
	GetSinksForRoom(code string) []EventSink
	Subscribe(connID, code string, sink EventSink)
	Unsubscribe(connID, code string)
	// DropRoom purges every member of an ended room at once.
	DropRoom(code string)
}

// IEngine is the orchestration facade the transport talks to.
type IEngine interface {
	CreateRoom(ctx context.Context, hostConnID string) (string, error)
	Dispatch(ctx context.Context, cmd domain.Command) error
	Disconnect(ctx context.Context, connID string) error
	Subscribe(connID, code string, sink EventSink)
	Unsubscribe(connID, code string)
	Start(ctx context.Context) error
	Stop()
}
