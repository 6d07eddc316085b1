package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"sync"
)

// Presence derives an identity status from its live connection count.
// Transitions are serialized and compared with the last announced status,
// so a status is only broadcast when it actually changes.
type Presence struct {
	mu        sync.Mutex
	log       *slog.Logger
	registry  contract.IRegistry
	users     contract.IUserDirectory
	publisher contract.EventPublisher
	recorder  event.Recorder
	announced map[domain.UserID]domain.Status
}

func NewPresence(log *slog.Logger, registry contract.IRegistry, users contract.IUserDirectory,
	publisher contract.EventPublisher, recorder event.Recorder) *Presence {
	return &Presence{
		log:       log,
		registry:  registry,
		users:     users,
		publisher: publisher,
		recorder:  recorder,
		announced: make(map[domain.UserID]domain.Status),
	}
}

// OnConnect is called after the connection has been registered.
func (p *Presence) OnConnect(ctx context.Context, userID domain.UserID) {
	p.reconcile(ctx, userID)
}

// OnDisconnect is called after the connection has been unregistered.
func (p *Presence) OnDisconnect(ctx context.Context, userID domain.UserID) {
	p.reconcile(ctx, userID)
}

func (p *Presence) reconcile(ctx context.Context, userID domain.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	desired := domain.StatusOffline
	if p.registry.ConnectionCount(userID) > 0 {
		desired = domain.StatusOnline
	}
	if p.status(userID) == desired {
		return
	}
	if desired == domain.StatusOnline {
		p.announced[userID] = desired
	} else {
		delete(p.announced, userID)
	}
	if p.recorder != nil {
		p.recorder.OnlineIdentities(len(p.announced))
	}

	// The status must be stored even when the connection context is already gone.
	if err := p.users.UpdateStatus(context.WithoutCancel(ctx), userID, desired); err != nil {
		p.log.Warn("Unable to persist user status", "user_id", userID, "status", desired, "error", err)
	}
	if !p.publisher.Publish(event.New(event.UserStatusType, event.UserStatus{UserID: userID, Status: desired})) {
		p.log.Warn("User status not published", "user_id", userID, "status", desired)
		if p.recorder != nil {
			p.recorder.PresenceDropped()
		}
	}
	p.log.Debug("Presence changed", "user_id", userID, "status", desired)
}

// Status returns the last announced status of an identity.
func (p *Presence) Status(userID domain.UserID) domain.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status(userID)
}

func (p *Presence) status(userID domain.UserID) domain.Status {
	if s, ok := p.announced[userID]; ok {
		return s
	}
	return domain.StatusOffline
}

func (p *Presence) OnlineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.announced)
}
