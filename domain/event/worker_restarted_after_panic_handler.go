package event

import (
	"chat-relay/errors"
	"log/slog"
)

// WorkerRestartedAfterPanicHandler handles events when a worker panics and is restarted.
// It is triggered by the Supervisor when a worker recovers from a panic.
type WorkerRestartedAfterPanicHandler struct {
	log      *slog.Logger
	recorder Recorder
}

func NewWorkerRestartedAfterPanicHandler(log *slog.Logger, recorder Recorder) *WorkerRestartedAfterPanicHandler {
	return &WorkerRestartedAfterPanicHandler{log: log, recorder: recorder}
}

func (h *WorkerRestartedAfterPanicHandler) Handle(event Event) {
	switch event.Type {
	case RestartedAfterPanicType:
		payload, ok := event.Payload.(WorkerRestartedAfterPanic)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		if h.recorder != nil {
			h.recorder.WorkerRestarted(payload.WorkerName)
		}
		h.log.Warn("Worker restarted after panic", "worker", payload.WorkerName)
	}
}
