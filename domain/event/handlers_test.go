package event

import (
	"log/slog"
	"stream-lab/domain"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestToTelemetry(t *testing.T) {
	req := require.New(t)

	served, ok := ToTelemetry(StreamServed{Resource: "video"})
	req.True(ok)
	req.Equal(StreamLatencyType, served.Type)

	failed, ok := ToTelemetry(StreamFailed{Resource: "video"})
	req.True(ok)
	req.Equal(StreamFailureType, failed.Type)

	_, ok = ToTelemetry(StreamRejected{Resource: "video", Status: 416})
	req.False(ok)
}

func TestStreamFailureHandler_CountsFailures(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	counter := NewCounter()
	handler := NewStreamFailureHandler(log, counter)

	window := domain.ByteWindow{Start: 0, End: 9, FileSize: 10}
	handler.Handle(Event{Type: StreamFailureType, Payload: StreamFailed{Resource: "video", Window: window}})
	handler.Handle(Event{Type: StreamFailureType, Payload: StreamFailed{Resource: "video", Window: window}})
	// Wrong payload is ignored
	handler.Handle(Event{Type: StreamFailureType, Payload: "boom"})
	handler.Handle(Event{Type: RestartedAfterPanicType, Payload: WorkerRestartedAfterPanic{WorkerName: "EventFanout"}})

	req.Equal(uint64(2), counter.Get(StreamFailureType))
	req.Equal(uint64(1), counter.Get(RestartedAfterPanicType))
	req.Equal(uint64(0), counter.Get(StreamLatencyType))
}

func TestLatencyHandler_IgnoresOtherEvents(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := NewLatencyHandler(log, time.Millisecond)

	require.NotPanics(t, func() {
		handler.Handle(Event{Type: ChannelCapacityType, Payload: ChannelCapacity{}})
		handler.Handle(Event{Type: StreamLatencyType, Payload: "not a stream"})
		handler.Handle(Event{Type: StreamLatencyType, Payload: StreamServed{Duration: time.Second}})
	})
}

func TestChannelCapacityHandler_TracksLowState(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := NewChannelCapacityHandler(log, 2)

	sample := func(name string, capacity, length int) {
		handler.Handle(Event{Type: ChannelCapacityType, Payload: ChannelCapacity{
			ChannelName: name, Capacity: capacity, Length: length,
		}})
	}

	tests := []struct {
		name     string
		capacity int
		length   int
		low      bool
	}{
		{"plenty of room", 10, 1, false},
		{"at threshold", 10, 8, true},
		{"full", 10, 10, true},
		{"drained", 10, 3, false},
		{"unbuffered keeps last state", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			sample("domain_events", tt.capacity, tt.length)
			req.Equal(tt.low, handler.Low("domain_events"))
		})
	}

	req := require.New(t)
	req.False(handler.Low("telemetry_events"))
	require.NotPanics(t, func() {
		handler.Handle(Event{Type: ChannelCapacityType, Payload: "not a capacity"})
		handler.Handle(Event{Type: StreamLatencyType, Payload: StreamServed{}})
	})
}
