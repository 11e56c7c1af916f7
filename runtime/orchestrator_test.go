package runtime_test

import (
	"context"
	"log/slog"
	"stream-lab/domain"
	"stream-lab/domain/event"
	"stream-lab/mocks"
	"stream-lab/runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testConfig() runtime.Config {
	return runtime.Config{
		BufferSize:           16,
		SinkTimeout:          time.Second,
		MetricInterval:       20 * time.Millisecond,
		LatencyThreshold:     time.Second,
		LowCapacityThreshold: 2,
		RestartInterval:      10 * time.Millisecond,
	}
}

func Test_Orchestrator_Delivers_Published_Events_To_Sinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockEventSink(ctrl)

	failed := event.StreamFailed{
		Resource:  "video",
		Window:    domain.ByteWindow{Start: 0, End: 9, FileSize: 10},
		BytesSent: 3,
	}
	delivered := make(chan event.DomainEvent, 1)
	sink.EXPECT().Consume(gomock.Any(), failed).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			delivered <- e
			return nil
		})

	orchestrator := runtime.NewOrchestrator(slog.Default(), testConfig()).Add(sink)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(done)
	}()

	orchestrator.Publisher().Publish(failed)

	select {
	case e := <-delivered:
		req.Equal(failed, e)
	case <-time.After(2 * time.Second):
		req.Fail("event not delivered")
	}

	// The failure reaches telemetry through the fanout
	req.Eventually(func() bool {
		return orchestrator.Failures().Get(event.StreamFailureType) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("orchestrator did not stop")
	}
}

func Test_Orchestrator_Stop(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)
	running := make(chan struct{})
	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(running)
		<-ctx.Done()
		return nil
	})

	orchestrator := runtime.NewOrchestrator(slog.Default(), testConfig()).AddWorker(worker)
	done := make(chan struct{})
	go func() {
		orchestrator.Start(context.Background())
		close(done)
	}()

	<-running
	orchestrator.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("orchestrator did not stop")
	}
}
