package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// Membership tracks which connections joined which channels.
// Room authorization is re-checked against the room directory on every join.
type Membership struct {
	mu          sync.RWMutex
	log         *slog.Logger
	registry    contract.IRegistry
	rooms       contract.IRoomDirectory
	subscribers map[domain.ChannelKey]Set[domain.ConnectionID]
	channels    map[domain.ConnectionID]Set[domain.ChannelKey]
}

func NewMembership(log *slog.Logger, registry contract.IRegistry, rooms contract.IRoomDirectory) *Membership {
	return &Membership{
		log:         log,
		registry:    registry,
		rooms:       rooms,
		subscribers: make(map[domain.ChannelKey]Set[domain.ConnectionID]),
		channels:    make(map[domain.ConnectionID]Set[domain.ChannelKey]),
	}
}

// Join subscribes a connection to a channel once its identity is allowed in it.
// An unknown room is reported as ErrNotAMember so the existence of a room is not revealed.
func (m *Membership) Join(ctx context.Context, connID domain.ConnectionID, key domain.ChannelKey) error {
	userID, ok := m.registry.Lookup(connID)
	if !ok {
		return errors.ErrConnectionClosed
	}
	if err := m.authorize(ctx, userID, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// The connection may have been released while the room was loaded.
	if _, alive := m.registry.Lookup(connID); !alive {
		return errors.ErrConnectionClosed
	}
	if _, ok := m.subscribers[key]; !ok {
		m.subscribers[key] = make(Set[domain.ConnectionID])
	}
	m.subscribers[key][connID] = struct{}{}
	if _, ok := m.channels[connID]; !ok {
		m.channels[connID] = make(Set[domain.ChannelKey])
	}
	m.channels[connID][key] = struct{}{}
	m.log.Debug("Channel joined", "conn_id", connID, "user_id", userID, "channel", key)
	return nil
}

// Authorize checks that an identity may use a channel.
func (m *Membership) Authorize(ctx context.Context, userID domain.UserID, key domain.ChannelKey) error {
	return m.authorize(ctx, userID, key)
}

func (m *Membership) authorize(ctx context.Context, userID domain.UserID, key domain.ChannelKey) error {
	switch {
	case key.IsRoom():
		roomID, _ := key.Room()
		room, err := m.rooms.GetRoom(ctx, roomID)
		if errors.Is(err, errors.ErrNotFound) {
			return fmt.Errorf("%w: %s", errors.ErrNotAMember, key)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		if !room.HasMember(userID) {
			return fmt.Errorf("%w: %s", errors.ErrNotAMember, key)
		}
		return nil
	case key.IsPrivate():
		if !key.Includes(userID) {
			return fmt.Errorf("%w: %s", errors.ErrNotAMember, key)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown channel %q", errors.ErrValidation, key)
	}
}

func (m *Membership) Leave(connID domain.ConnectionID, key domain.ChannelKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribe(connID, key)
}

// LeaveAll drops every subscription of a released connection.
func (m *Membership) LeaveAll(connID domain.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.channels[connID] {
		m.unsubscribe(connID, key)
	}
	delete(m.channels, connID)
}

// Evict drops every subscription to a channel that no longer exists.
func (m *Membership) Evict(key domain.ChannelKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for connID := range m.subscribers[key] {
		m.unsubscribe(connID, key)
	}
}

func (m *Membership) unsubscribe(connID domain.ConnectionID, key domain.ChannelKey) {
	if subs, ok := m.subscribers[key]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(m.subscribers, key)
		}
	}
	if keys, ok := m.channels[connID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.channels, connID)
		}
	}
}

// Resolve returns who must receive an event of the channel.
// Rooms reach joined connections only, private channels reach both identities whether they joined or not.
func (m *Membership) Resolve(key domain.ChannelKey) domain.Targets {
	if a, b, ok := key.Participants(); ok {
		return domain.Targets{Identities: lo.Uniq([]domain.UserID{a, b})}
	}
	return domain.Targets{Connections: m.Subscribers(key)}
}

func (m *Membership) Subscribers(key domain.ChannelKey) []domain.ConnectionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Keys(m.subscribers[key])
}

func (m *Membership) ChannelsOf(connID domain.ConnectionID) []domain.ChannelKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Keys(m.channels[connID])
}

func (m *Membership) IsJoined(connID domain.ConnectionID, key domain.ChannelKey) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.subscribers[key][connID]
	return ok
}
