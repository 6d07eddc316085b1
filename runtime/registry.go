package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Set[K comparable] map[K]struct{}

// Connection is one admitted transport session of an identity.
type Connection struct {
	ID          domain.ConnectionID
	UserID      domain.UserID
	Sink        contract.EventSink
	ConnectedAt time.Time
}

// Registry indexes live connections by id and by identity.
// Sinks are always invoked outside the lock, on a snapshot.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	recorder    event.Recorder
	connections map[domain.ConnectionID]Connection
	identities  map[domain.UserID]Set[domain.ConnectionID]
	onEvicted   func(ctx context.Context, conn Connection)
}

func NewRegistry(log *slog.Logger, recorder event.Recorder) *Registry {
	return &Registry{
		log:         log,
		recorder:    recorder,
		connections: make(map[domain.ConnectionID]Connection),
		identities:  make(map[domain.UserID]Set[domain.ConnectionID]),
	}
}

// OnEvicted installs the hook run after a connection is removed because its sink failed.
func (r *Registry) OnEvicted(hook func(ctx context.Context, conn Connection)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvicted = hook
}

// Register assigns a fresh connection id. Never fails.
func (r *Registry) Register(userID domain.UserID, sink contract.EventSink) domain.ConnectionID {
	conn := Connection{
		ID:          domain.ConnectionID(uuid.NewString()),
		UserID:      userID,
		Sink:        sink,
		ConnectedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.connections[conn.ID] = conn
	if _, ok := r.identities[userID]; !ok {
		r.identities[userID] = make(Set[domain.ConnectionID])
	}
	r.identities[userID][conn.ID] = struct{}{}
	r.mu.Unlock()

	if r.recorder != nil {
		r.recorder.ConnectionOpened()
	}
	r.log.Debug("Connection registered", "conn_id", conn.ID, "user_id", userID)
	return conn.ID
}

// Unregister is idempotent: only the first call for an id reports true.
func (r *Registry) Unregister(connID domain.ConnectionID) (domain.UserID, bool) {
	conn, ok := r.remove(connID)
	return conn.UserID, ok
}

func (r *Registry) remove(connID domain.ConnectionID) (Connection, bool) {
	r.mu.Lock()
	conn, ok := r.connections[connID]
	if ok {
		delete(r.connections, connID)
		if ids, found := r.identities[conn.UserID]; found {
			delete(ids, connID)
			// No empty sets left behind
			if len(ids) == 0 {
				delete(r.identities, conn.UserID)
			}
		}
	}
	r.mu.Unlock()

	if ok {
		if r.recorder != nil {
			r.recorder.ConnectionClosed()
		}
		r.log.Debug("Connection unregistered", "conn_id", connID, "user_id", conn.UserID)
	}
	return conn, ok
}

func (r *Registry) Lookup(connID domain.ConnectionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.connections[connID]
	return conn.UserID, ok
}

// Send pushes an event to one connection. A failing sink is evicted as if it had disconnected.
func (r *Registry) Send(ctx context.Context, connID domain.ConnectionID, e event.Event) {
	r.mu.RLock()
	conn, ok := r.connections[connID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	r.deliver(ctx, conn, e)
}

// SendToIdentity pushes an event to every live connection of an identity.
func (r *Registry) SendToIdentity(ctx context.Context, userID domain.UserID, e event.Event) {
	r.mu.RLock()
	conns := make([]Connection, 0, len(r.identities[userID]))
	for id := range r.identities[userID] {
		conns = append(conns, r.connections[id])
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		r.deliver(ctx, conn, e)
	}
}

func (r *Registry) Broadcast(ctx context.Context, e event.Event) {
	r.mu.RLock()
	conns := make([]Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		r.deliver(ctx, conn, e)
	}
}

func (r *Registry) ConnectionCount(userID domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.identities[userID])
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

func (r *Registry) deliver(ctx context.Context, conn Connection, e event.Event) {
	err := conn.Sink.Consume(ctx, e)
	if err == nil {
		return
	}
	r.log.Debug("Sink failed, evicting connection", "conn_id", conn.ID, "user_id", conn.UserID, "error", err)
	if _, removed := r.remove(conn.ID); !removed {
		return
	}
	r.mu.RLock()
	hook := r.onEvicted
	r.mu.RUnlock()
	if hook != nil {
		hook(ctx, conn)
	}
}

// BroadcastSink adapts the registry into a fan-out subscriber reaching every connection.
type BroadcastSink struct {
	registry contract.IRegistry
}

func NewBroadcastSink(registry contract.IRegistry) BroadcastSink {
	return BroadcastSink{registry: registry}
}

func (s BroadcastSink) Consume(ctx context.Context, e event.Event) error {
	s.registry.Broadcast(ctx, e)
	return nil
}
