package event

import (
	"chat-relay/errors"
	"log/slog"
)

// ChannelCapacityHandler records queue occupancy samples and warns once a queue
// has fewer free slots than the configured threshold.
type ChannelCapacityHandler struct {
	log       *slog.Logger
	recorder  Recorder
	threshold int
}

func NewChannelCapacityHandler(log *slog.Logger, recorder Recorder, lowCapacityThreshold int) *ChannelCapacityHandler {
	return &ChannelCapacityHandler{log: log, recorder: recorder, threshold: lowCapacityThreshold}
}

func (h ChannelCapacityHandler) Handle(e Event) {
	if e.Type != ChannelCapacityType {
		return
	}
	sample, ok := e.Payload.(ChannelCapacity)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error(), "type", e.Type)
		return
	}
	if h.recorder != nil {
		h.recorder.ChannelUsage(sample.ChannelName, sample.Length, sample.Capacity)
	}
	// unbuffered queues have nothing to report
	if sample.Capacity <= 0 {
		return
	}
	free := sample.Capacity - sample.Length
	h.log.Debug("Queue occupancy", "queue", sample.ChannelName, "used", sample.Length, "capacity", sample.Capacity)
	if free <= h.threshold {
		h.log.Warn("Queue is almost full", "queue", sample.ChannelName, "free", free)
	}
}
