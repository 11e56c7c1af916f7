package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"stream-lab/domain"
	"stream-lab/domain/event"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

const maxRecentStreams = 20

// RecentStream is one line of the /healthz history.
type RecentStream struct {
	ID        string `json:"id"`
	Resource  string `json:"resource"`
	Range     string `json:"range,omitempty"`
	Bytes     int64  `json:"bytes"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ProcessStats struct {
	PID        int32            `json:"pid"`
	CPUPercent float64          `json:"cpu_percent"`
	RSSBytes   uint64           `json:"rss_bytes"`
	Status     domain.PidStatus `json:"status"`
}

// MonitoringStats is the JSON snapshot served on /healthz.
type MonitoringStats struct {
	BytesServed   uint64  `json:"bytes_served"`
	ThroughputMBs float64 `json:"throughput_mb_s"`
	ActiveStreams int64   `json:"active_streams"`
	TotalStreams  uint64  `json:"total_streams"`
	Rejected      uint64  `json:"rejected"`
	Failures      uint64  `json:"failures"`

	// TelemetryFailures is what the telemetry pipeline counted, it lags Failures while events are queued.
	TelemetryFailures uint64 `json:"telemetry_failures"`

	AllocMemMb    uint64         `json:"alloc_mem_mb"`
	NumGC         uint32         `json:"num_gc"`
	Process       *ProcessStats  `json:"process,omitempty"`
	RecentStreams []RecentStream `json:"recent_streams"`
}

// MonitoringManager keeps live counters about streams.
// Active streams are tracked by the handler, everything else comes from stream events.
type MonitoringManager struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats MonitoringStats

	bytesServed   uint64
	windowBytes   uint64
	activeStreams int64
	totalStreams  uint64
	rejected      uint64
	failures      uint64
	lastCheck     time.Time
	interval      time.Duration
}

func NewMonitoringManager(log *slog.Logger, interval time.Duration) *MonitoringManager {
	if interval <= 0 {
		interval = time.Second
	}
	return &MonitoringManager{
		log:       log,
		lastCheck: time.Now(),
		interval:  interval,
		latestStats: MonitoringStats{
			RecentStreams: make([]RecentStream, 0),
		},
	}
}

func (mm *MonitoringManager) StreamStarted() {
	atomic.AddInt64(&mm.activeStreams, 1)
}

func (mm *MonitoringManager) StreamEnded() {
	atomic.AddInt64(&mm.activeStreams, -1)
}

// Consume makes the manager an event sink of the fanout.
func (mm *MonitoringManager) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.StreamServed:
		atomic.AddUint64(&mm.totalStreams, 1)
		atomic.AddUint64(&mm.bytesServed, uint64(evt.BytesSent))
		atomic.AddUint64(&mm.windowBytes, uint64(evt.BytesSent))
		mm.addRecent(RecentStream{
			ID: evt.ID.String(), Resource: evt.Resource, Range: evt.Window.ContentRange(),
			Bytes: evt.BytesSent, Status: "SERVED", Timestamp: evt.At.Format("15:04:05"),
		})
	case event.StreamFailed:
		atomic.AddUint64(&mm.totalStreams, 1)
		atomic.AddUint64(&mm.failures, 1)
		atomic.AddUint64(&mm.bytesServed, uint64(evt.BytesSent))
		atomic.AddUint64(&mm.windowBytes, uint64(evt.BytesSent))
		mm.addRecent(RecentStream{
			ID: evt.ID.String(), Resource: evt.Resource, Range: evt.Window.ContentRange(),
			Bytes: evt.BytesSent, Status: "FAILED", Timestamp: evt.At.Format("15:04:05"),
		})
	case event.StreamRejected:
		atomic.AddUint64(&mm.totalStreams, 1)
		atomic.AddUint64(&mm.rejected, 1)
		mm.addRecent(RecentStream{
			ID: evt.ID.String(), Resource: evt.Resource,
			Status: fmt.Sprintf("REJECTED %d", evt.Status), Timestamp: evt.At.Format("15:04:05"),
		})
	default:
		mm.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
	}
	return nil
}

func (mm *MonitoringManager) addRecent(stream RecentStream) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	mm.latestStats.RecentStreams = append([]RecentStream{stream}, mm.latestStats.RecentStreams...)
	if len(mm.latestStats.RecentStreams) > maxRecentStreams {
		mm.latestStats.RecentStreams = mm.latestStats.RecentStreams[:maxRecentStreams]
	}
}

// Run refreshes the throughput and memory figures every interval.
func (mm *MonitoringManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(mm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mm.log.Debug("Context done, stopping monitoring")
			return nil
		case <-ticker.C:
			mm.updateStats()
		}
	}
}

func (mm *MonitoringManager) updateStats() {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	now := time.Now()
	duration := now.Sub(mm.lastCheck).Seconds()
	if duration > 0 {
		bytes := atomic.SwapUint64(&mm.windowBytes, 0)
		mm.latestStats.ThroughputMBs = (float64(bytes) / 1024 / 1024) / duration
	}
	mm.lastCheck = now

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mm.latestStats.AllocMemMb = m.Alloc / 1024 / 1024
	mm.latestStats.NumGC = m.NumGC

	mm.log.Debug("Stats updated",
		"throughput_mb_s", mm.latestStats.ThroughputMBs,
		"active_streams", atomic.LoadInt64(&mm.activeStreams),
		"mem_mb", mm.latestStats.AllocMemMb,
	)
}

// GetLatest returns a copy of the current figures.
func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	stats := mm.latestStats
	stats.RecentStreams = append([]RecentStream(nil), mm.latestStats.RecentStreams...)
	mm.mu.RUnlock()

	stats.BytesServed = atomic.LoadUint64(&mm.bytesServed)
	stats.ActiveStreams = atomic.LoadInt64(&mm.activeStreams)
	stats.TotalStreams = atomic.LoadUint64(&mm.totalStreams)
	stats.Rejected = atomic.LoadUint64(&mm.rejected)
	stats.Failures = atomic.LoadUint64(&mm.failures)
	return stats
}

// ProcessStats reads CPU and memory of the running process.
func (mm *MonitoringManager) ProcessStats() (ProcessStats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return ProcessStats{}, err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return ProcessStats{}, err
	}
	return ProcessStats{PID: p.Pid, CPUPercent: cpuPercent, RSSBytes: memInfo.RSS, Status: domain.ToStatus(status)}, nil
}
