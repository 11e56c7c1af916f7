package workers

import (
	"context"
	"log/slog"
	"stream-lab/domain/event"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChannelCapacityWorker_Samples_Channels(t *testing.T) {
	req := require.New(t)
	domainChan := make(chan event.DomainEvent, 4)
	domainChan <- event.StreamRejected{Resource: "video"}
	telemetryChan := make(chan event.Event, 10)

	worker := NewChannelCapacityWorker(slog.Default(), []NamedChannel{
		{Name: "domain", Channel: domainChan},
		{Name: "not a channel", Channel: 42},
	}, telemetryChan, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	select {
	case evt := <-telemetryChan:
		req.Equal(event.ChannelCapacityType, evt.Type)
		req.Equal(event.ChannelCapacity{ChannelName: "domain", Capacity: 4, Length: 1}, evt.Payload)
	case <-time.After(time.Second):
		req.Fail("no capacity sample")
	}
}
