package observability

import (
	"context"
	"log/slog"
	"stream-lab/domain"
	"stream-lab/domain/event"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_Counts_Stream_Events(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(slog.Default(), time.Second)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	window := domain.ByteWindow{Start: 0, End: 999_999, FileSize: 2_500_000}

	mm.StreamStarted()
	mm.StreamStarted()
	mm.StreamEnded()

	req.NoError(mm.Consume(ctx, event.StreamServed{ID: uuid.New(), Resource: "video", Window: window, BytesSent: 1_000_000, At: at}))
	req.NoError(mm.Consume(ctx, event.StreamFailed{ID: uuid.New(), Resource: "video", Window: window, BytesSent: 10, At: at}))
	req.NoError(mm.Consume(ctx, event.StreamRejected{ID: uuid.New(), Resource: "video", Status: 416, At: at}))

	stats := mm.GetLatest()
	req.EqualValues(1, stats.ActiveStreams)
	req.EqualValues(3, stats.TotalStreams)
	req.EqualValues(1_000_010, stats.BytesServed)
	req.EqualValues(1, stats.Failures)
	req.EqualValues(1, stats.Rejected)
	req.Len(stats.RecentStreams, 3)
	req.Equal("REJECTED 416", stats.RecentStreams[0].Status)
	req.Equal("bytes 0-999999/2500000", stats.RecentStreams[2].Range)
}

func TestMonitoringManager_Keeps_Last_Recent_Streams(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(slog.Default(), time.Second)

	for i := 0; i < maxRecentStreams+5; i++ {
		req.NoError(mm.Consume(context.Background(), event.StreamRejected{Resource: "video", Status: 404}))
	}
	req.Len(mm.GetLatest().RecentStreams, maxRecentStreams)
}

func TestMonitoringManager_Throughput(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(slog.Default(), time.Second)
	req.NoError(mm.Consume(context.Background(), event.StreamServed{Resource: "video", BytesSent: 1024 * 1024}))

	mm.updateStats()
	req.Greater(mm.GetLatest().ThroughputMBs, 0.0)

	// The window is reset after each refresh
	mm.updateStats()
	req.Zero(mm.GetLatest().ThroughputMBs)
}

func TestMonitoringManager_ProcessStats(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(slog.Default(), time.Second)

	stats, err := mm.ProcessStats()
	req.NoError(err)
	req.Positive(stats.PID)
	req.Positive(stats.RSSBytes)
}
