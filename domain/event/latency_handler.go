package event

import (
	"log/slog"
	"time"
)

type LatencyHandler struct {
	log              *slog.Logger
	latencyThreshold time.Duration
}

func NewLatencyHandler(log *slog.Logger, latencyThreshold time.Duration) *LatencyHandler {
	return &LatencyHandler{log: log, latencyThreshold: latencyThreshold}
}

func (h *LatencyHandler) Handle(e Event) {
	if e.Type != StreamLatencyType {
		return
	}
	payload, ok := e.Payload.(StreamServed)
	if !ok {
		return
	}

	h.log.Debug("telemetry: stream duration",
		"resource", payload.Resource,
		"bytes", payload.BytesSent,
		"duration_ms", payload.Duration.Milliseconds(),
	)

	if payload.Duration > h.latencyThreshold {
		h.log.Warn("slow stream detected",
			"resource", payload.Resource,
			"range", payload.Window.ContentRange(),
			"duration", payload.Duration,
		)
	}
}
