package workers

import (
	"chat-relay/domain/event"
	"chat-relay/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTelemetryWorker_DispatchesToHandlers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockHandler(ctrl)
	telemetry := make(chan event.Event, 1)
	worker := NewTelemetryWorker(logs.GetLoggerFromLevel(slog.LevelDebug), telemetry, handler)

	handled := make(chan event.Event, 1)
	handler.EXPECT().Handle(gomock.Any()).Do(func(e event.Event) { handled <- e })

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error)
	go func() { stopped <- worker.Run(ctx) }()

	telemetry <- event.New(event.ChannelCapacityType, event.ChannelCapacity{ChannelName: "presence"})

	select {
	case e := <-handled:
		req.Equal(event.ChannelCapacityType, e.Type)
	case <-time.After(time.Second):
		req.Fail("Event was not handled")
	}

	// Then the worker returns once the context is canceled
	cancel()
	req.NoError(<-stopped)
}

func TestChannelCapacityWorker_ReportsOccupancy(t *testing.T) {
	req := require.New(t)
	telemetry := make(chan event.Event, 10)
	monitored := make(chan int, 4)
	monitored <- 1
	monitored <- 2
	worker := NewChannelCapacityWorker(logs.GetLoggerFromLevel(slog.LevelDebug),
		[]NamedChannel{NewNamedChannel("monitored", monitored)}, telemetry, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	select {
	case e := <-telemetry:
		payload := e.Payload.(event.ChannelCapacity)
		req.Equal("monitored", payload.ChannelName)
		req.Equal(4, payload.Capacity)
		req.Equal(2, payload.Length)
	case <-time.After(time.Second):
		req.Fail("No capacity event received")
	}
}

func TestProcessUsageWorker_SamplesOwnProcess(t *testing.T) {
	req := require.New(t)
	telemetry := make(chan event.Event, 1)
	worker := NewProcessUsageWorker(logs.GetLoggerFromLevel(slog.LevelDebug), telemetry, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	select {
	case e := <-telemetry:
		payload := e.Payload.(event.ProcessUsage)
		req.Positive(payload.PID)
		req.Positive(payload.Goroutines)
	case <-time.After(2 * time.Second):
		req.Fail("No process usage event received")
	}
}
