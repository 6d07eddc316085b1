package event

import (
	"chat-relay/errors"
	"fmt"
	"log/slog"
)

type ProcessUsageHandler struct {
	log      *slog.Logger
	recorder Recorder
}

func NewProcessUsageHandler(log *slog.Logger, recorder Recorder) *ProcessUsageHandler {
	return &ProcessUsageHandler{log: log, recorder: recorder}
}

func (h ProcessUsageHandler) Handle(event Event) {
	switch event.Type {
	case ProcessUsageType:
		payload, ok := event.Payload.(ProcessUsage)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.log.Debug(fmt.Sprintf("[RELAY] PID %d | CPU %.2f%% | RAM %.2f%% | GOROUTINES %d",
			payload.PID, payload.CPUPercent, payload.MemoryPercent, payload.Goroutines))
		if h.recorder != nil {
			h.recorder.ProcessUsage(payload.CPUPercent, payload.RSSBytes, payload.Goroutines)
		}
	}
}
