package runtime

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

// recordingSink keeps every consumed event and fails once closed.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
	closed bool
}

func (s *recordingSink) Consume(_ context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrConnectionClosed
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recordingSink) ofType(t event.Type) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Filter(s.events, func(e event.Event, _ int) bool { return e.Type == t })
}

// syncPublisher publishes synchronously so that tests observe events immediately.
type syncPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *syncPublisher) Publish(e event.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return true
}

func (p *syncPublisher) statuses() []event.UserStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo.Map(p.events, func(e event.Event, _ int) event.UserStatus {
		return e.Payload.(event.UserStatus)
	})
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}
