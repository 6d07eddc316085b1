//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
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

// EventSink is the transport handle of a connection.
// Consume must never block; it fails once the transport is closed.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// EventPublisher accepts process-wide events (presence) for fan-out.
type EventPublisher interface {
	Publish(e event.Event) bool
}

type IRegistry interface {
	Register(userID domain.UserID, sink EventSink) domain.ConnectionID
	Unregister(connID domain.ConnectionID) (domain.UserID, bool)
	Lookup(connID domain.ConnectionID) (domain.UserID, bool)
	Send(ctx context.Context, connID domain.ConnectionID, e event.Event)
	SendToIdentity(ctx context.Context, userID domain.UserID, e event.Event)
	Broadcast(ctx context.Context, e event.Event)
	ConnectionCount(userID domain.UserID) int
}

type IMembership interface {
	Join(ctx context.Context, connID domain.ConnectionID, key domain.ChannelKey) error
	Leave(connID domain.ConnectionID, key domain.ChannelKey)
	LeaveAll(connID domain.ConnectionID)
	Resolve(key domain.ChannelKey) domain.Targets
	Subscribers(key domain.ChannelKey) []domain.ConnectionID
}

type IPresence interface {
	OnConnect(ctx context.Context, userID domain.UserID)
	OnDisconnect(ctx context.Context, userID domain.UserID)
}

type IMessageStore interface {
	Persist(ctx context.Context, sender domain.UserID, delivery domain.DeliveryKind,
		target string, content string, kind domain.MessageKind) (domain.EnrichedMessage, error)
}

type IRoomDirectory interface {
	GetRoom(ctx context.Context, roomID domain.RoomID) (domain.Room, error)
}

type IUserDirectory interface {
	UpdateStatus(ctx context.Context, userID domain.UserID, status domain.Status) error
}

// ISession is what a transport needs to drive one connection's lifecycle.
type ISession interface {
	Admit(ctx context.Context, userID domain.UserID, sink EventSink) domain.ConnectionID
	Dispatch(ctx context.Context, connID domain.ConnectionID, in event.Inbound)
	Release(ctx context.Context, connID domain.ConnectionID)
}
