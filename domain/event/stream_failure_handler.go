package event

import (
	"fmt"
	"log/slog"
	"stream-lab/errors"
)

// StreamFailureHandler counts aborted transfers.
type StreamFailureHandler struct {
	log     *slog.Logger
	counter *Counter
}

func NewStreamFailureHandler(log *slog.Logger, counter *Counter) *StreamFailureHandler {
	return &StreamFailureHandler{log: log, counter: counter}
}

func (h *StreamFailureHandler) Handle(event Event) {
	switch event.Type {
	case StreamFailureType:
		payload, ok := event.Payload.(StreamFailed)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(StreamFailureType)
		h.log.Debug(fmt.Sprintf("Stream of %s aborted after %d bytes, total failures: %d",
			payload.Resource, payload.BytesSent, h.counter.Get(StreamFailureType)))
	case RestartedAfterPanicType:
		payload, ok := event.Payload.(WorkerRestartedAfterPanic)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(RestartedAfterPanicType)
		h.log.Debug(fmt.Sprintf("Worker %s restarted after panic, total: %d",
			payload.WorkerName, h.counter.Get(RestartedAfterPanicType)))
	}
}
