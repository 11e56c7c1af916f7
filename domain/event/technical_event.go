package event

import "time"

type Type string

const (
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	StreamLatencyType       Type = "STREAM_LATENCY"
	StreamFailureType       Type = "STREAM_FAILURE"
)

// Event is a telemetry event, it never carries business state.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

// ToTelemetry maps a domain event to its telemetry counterpart.
// Rejections are not telemetry, ok is false for them.
func ToTelemetry(e DomainEvent) (Event, bool) {
	switch evt := e.(type) {
	case StreamServed:
		return Event{Type: StreamLatencyType, CreatedAt: time.Now().UTC(), Payload: evt}, true
	case StreamFailed:
		return Event{Type: StreamFailureType, CreatedAt: time.Now().UTC(), Payload: evt}, true
	default:
		return Event{}, false
	}
}
