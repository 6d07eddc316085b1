package workers

import (
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"
)

// NamedChannel exposes the occupancy of a channel without its element type.
type NamedChannel struct {
	Name     string
	Length   func() int
	Capacity func() int
}

func NewNamedChannel[T any](name string, ch chan T) NamedChannel {
	return NamedChannel{
		Name:     name,
		Length:   func() int { return len(ch) },
		Capacity: func() int { return cap(ch) },
	}
}

// ChannelCapacityWorker samples every registered queue on each tick and pushes one
// ChannelCapacity event per queue to telemetry. A sample is dropped when telemetry is full.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	telemetryChan  chan event.Event
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger,
	channels []NamedChannel, telemetryChan chan event.Event,
	metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log: log, channels: channels,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel capacity sampling")
			return nil
		case <-ticker.C:
			if !w.sample(ctx) {
				return nil
			}
		}
	}
}

func (w ChannelCapacityWorker) sample(ctx context.Context) bool {
	for _, nc := range w.channels {
		select {
		case <-ctx.Done():
			return false
		case w.telemetryChan <- toCapacityEvent(nc.Name, nc.Capacity(), nc.Length()):
		default:
			w.log.Debug("Capacity sample dropped", "queue", nc.Name)
		}
	}
	return true
}

func toCapacityEvent(name string, capacity, length int) event.Event {
	return event.New(event.ChannelCapacityType, event.ChannelCapacity{
		ChannelName: name,
		Capacity:    capacity,
		Length:      length,
	})
}
