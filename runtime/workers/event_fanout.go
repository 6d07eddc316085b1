package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventFanout broadcasts process-wide events (presence changes) to every subscribed sink.
//
// It provides best-effort fan-out with no guarantees regarding durability or retries.
// Events are delivered to sinks in publication order. When the buffer is full, Publish
// waits up to the sink timeout for room and then drops the event with a warning.
//
// EventFanout is safe for concurrent use by multiple goroutines.
type EventFanout struct {
	log         *slog.Logger
	events      chan event.Event
	sinkTimeout time.Duration
	mu          sync.RWMutex
	sinks       []contract.EventSink
}

func NewEventFanout(log *slog.Logger, events chan event.Event, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{log: log, events: events, sinkTimeout: sinkTimeout}
}

// Subscribe registers sinks receiving every published event.
func (w *EventFanout) Subscribe(sinks ...contract.EventSink) *EventFanout {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *EventFanout) Publish(e event.Event) bool {
	select {
	case w.events <- e:
		return true
	default:
	}
	if w.sinkTimeout > 0 {
		timer := time.NewTimer(w.sinkTimeout)
		defer timer.Stop()
		select {
		case w.events <- e:
			return true
		case <-timer.C:
		}
	}
	w.log.Warn("Fanout channel full, dropping event", "type", e.Type)
	return false
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout One sink for each event, each bounded by the sink timeout
func (w *EventFanout) Fanout(ctx context.Context, evt event.Event) {
	w.mu.RLock()
	sinks := w.sinks
	w.mu.RUnlock()

	for _, sink := range sinks {
		sinkCtx, cancel := ctx, context.CancelFunc(func() {})
		if w.sinkTimeout > 0 {
			sinkCtx, cancel = context.WithTimeout(ctx, w.sinkTimeout)
		}
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink failed to consume event", "type", evt.Type, "error", err)
		}
		cancel()
	}
}
