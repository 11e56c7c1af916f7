// Package runtime carries stream events from the request path to the sinks and telemetry.
// It wires the pipeline without containing any streaming rule.
package runtime

import (
	"context"
	"log/slog"
	"stream-lab/contract"
	"stream-lab/domain/event"
	"stream-lab/runtime/workers"
	"sync"
	"time"
)

type Config struct {
	BufferSize           int
	SinkTimeout          time.Duration
	MetricInterval       time.Duration
	LatencyThreshold     time.Duration
	LowCapacityThreshold int
	RestartInterval      time.Duration
}

// Orchestrator owns the event channels and every supervised worker.
type Orchestrator struct {
	mu              sync.Mutex
	log             *slog.Logger
	config          Config
	supervisor      *workers.Supervisor
	sinks           []contract.EventSink
	extraWorkers    []contract.Worker
	domainEvents    chan event.DomainEvent
	telemetryEvents chan event.Event
	failureCounter  *event.Counter
}

func NewOrchestrator(log *slog.Logger, config Config) *Orchestrator {
	telemetryEvents := make(chan event.Event, config.BufferSize)
	return &Orchestrator{
		log:             log,
		config:          config,
		supervisor:      workers.NewSupervisor(log, telemetryEvents, config.RestartInterval),
		domainEvents:    make(chan event.DomainEvent, config.BufferSize),
		telemetryEvents: telemetryEvents,
		failureCounter:  event.NewCounter(),
	}
}

// Add registers sinks, it must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sinks...)
	return o
}

// AddWorker supervises extra workers next to the pipeline ones.
func (o *Orchestrator) AddWorker(worker ...contract.Worker) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extraWorkers = append(o.extraWorkers, worker...)
	return o
}

// Publisher is handed to the HTTP handlers.
func (o *Orchestrator) Publisher() contract.EventPublisher {
	return workers.NewChannelPublisher(o.log, o.domainEvents)
}

// Failures counts the stream failures the telemetry handlers processed, /healthz reports it.
func (o *Orchestrator) Failures() *event.Counter {
	return o.failureCounter
}

// Start blocks until ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	fanout := workers.NewEventFanout(o.log, o.domainEvents, o.telemetryEvents, o.config.SinkTimeout).
		Add(o.sinks...)
	telemetry := workers.NewTelemetryWorker(o.log, o.telemetryEvents,
		event.NewLatencyHandler(o.log, o.config.LatencyThreshold),
		event.NewStreamFailureHandler(o.log, o.failureCounter),
		event.NewChannelCapacityHandler(o.log, o.config.LowCapacityThreshold),
	)
	capacity := workers.NewChannelCapacityWorker(o.log, []workers.NamedChannel{
		{Name: "domain_events", Channel: o.domainEvents},
		{Name: "telemetry_events", Channel: o.telemetryEvents},
	}, o.telemetryEvents, o.config.MetricInterval)

	o.supervisor.Add(fanout, telemetry, capacity)
	o.supervisor.Add(o.extraWorkers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

// Stop cancels every supervised worker.
// Events still buffered in the channels are dropped.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
