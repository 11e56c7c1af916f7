package workers

import (
	"context"
	"fmt"
	"log/slog"
	"stream-lab/contract"
	"stream-lab/domain/event"
	"time"
)

// EventFanout hands every stream event to each sink, then forwards its
// telemetry counterpart without blocking.
//
// Delivery is best effort: no ordering across sinks, no retry. A sink
// error is logged and the next sink still gets the event.
type EventFanout struct {
	log            *slog.Logger
	domainEvent    chan event.DomainEvent
	telemetryEvent chan event.Event
	sinkTimeout    time.Duration
	sinks          []contract.EventSink
}

func NewEventFanout(log *slog.Logger,
	domainEvent chan event.DomainEvent,
	telemetryEvent chan event.Event,
	sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:            log,
		domainEvent:    domainEvent,
		telemetryEvent: telemetryEvent,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.domainEvent:
			w.Fanout(ctx, evt)
			telemetry, ok := event.ToTelemetry(evt)
			if !ok {
				continue
			}
			select {
			case w.telemetryEvent <- telemetry:
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout One sink for each event
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Error("Sink failed to consume event",
				"sink", fmt.Sprintf("%T", sink),
				"resource", evt.ResourceName(),
				"error", err)
		}
		cancel()
	}
}

// ChannelPublisher is the request side of the fanout.
type ChannelPublisher struct {
	log         *slog.Logger
	domainEvent chan event.DomainEvent
}

func NewChannelPublisher(log *slog.Logger, domainEvent chan event.DomainEvent) ChannelPublisher {
	return ChannelPublisher{log: log, domainEvent: domainEvent}
}

// Publish drops the event when the channel is full, a request never waits on its history.
func (p ChannelPublisher) Publish(evt event.DomainEvent) {
	select {
	case p.domainEvent <- evt:
	default:
		p.log.Debug("Stream event dropped, channel full", "resource", evt.ResourceName())
	}
}
