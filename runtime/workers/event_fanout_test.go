package workers

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/mocks"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_DeliversInOrderToEverySink(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	first := mocks.NewMockEventSink(ctrl)
	second := mocks.NewMockEventSink(ctrl)

	fanout := NewEventFanout(log, make(chan event.Event, 10), time.Second).Subscribe(first, second)

	var mu sync.Mutex
	var received []domain.Status
	done := make(chan struct{})
	record := func(_ context.Context, e event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e.Payload.(event.UserStatus).Status)
		if len(received) == 4 {
			close(done)
		}
		return nil
	}
	// Given one sink fails, the other still receives everything
	first.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.New("closed")).Times(2)
	second.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(record).Times(2)
	third := mocks.NewMockEventSink(ctrl)
	third.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(record).Times(2)
	fanout.Subscribe(third)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	// When publishing two transitions
	req.True(fanout.Publish(event.New(event.UserStatusType, event.UserStatus{UserID: "alice", Status: domain.StatusOnline})))
	req.True(fanout.Publish(event.New(event.UserStatusType, event.UserStatus{UserID: "alice", Status: domain.StatusOffline})))

	// Then each sink sees them in publication order
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Events were not fanned out in time")
	}
	mu.Lock()
	defer mu.Unlock()
	req.Equal(domain.StatusOnline, received[0])
	req.Equal(domain.StatusOffline, received[len(received)-1])
}

func TestEventFanout_SinkTimeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockEventSink(ctrl)
	fanout := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), make(chan event.Event, 1), 20*time.Millisecond).Subscribe(sink)

	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ event.Event) error {
		// Waiting for timeout to trigger cancellation
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	fanout.Fanout(context.Background(), event.New(event.UserStatusType, event.UserStatus{}))
	req.Less(time.Since(start), 500*time.Millisecond)
}

func TestEventFanout_PublishDropsWhenFull(t *testing.T) {
	req := require.New(t)
	fanout := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), make(chan event.Event, 1), 0)

	req.True(fanout.Publish(event.New(event.UserStatusType, nil)))
	req.False(fanout.Publish(event.New(event.UserStatusType, nil)))
}

func TestEventFanout_PublishWaitsForRoom(t *testing.T) {
	req := require.New(t)
	events := make(chan event.Event, 1)
	fanout := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), events, time.Second)

	// Given a full buffer drained shortly after
	req.True(fanout.Publish(event.New(event.UserStatusType, nil)))
	go func() {
		time.Sleep(20 * time.Millisecond)
		<-events
	}()

	// Then the next publish waits instead of dropping
	req.True(fanout.Publish(event.New(event.UserStatusType, nil)))
}

func TestEventFanout_PublishGivesUpAfterTimeout(t *testing.T) {
	req := require.New(t)
	fanout := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), make(chan event.Event, 1), 20*time.Millisecond)

	req.True(fanout.Publish(event.New(event.UserStatusType, nil)))
	start := time.Now()
	req.False(fanout.Publish(event.New(event.UserStatusType, nil)))
	req.GreaterOrEqual(time.Since(start), 20*time.Millisecond)
}
