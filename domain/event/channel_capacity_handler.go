package event

import (
	"log/slog"
	"stream-lab/errors"
	"sync"
)

// ChannelCapacityHandler warns once when a channel runs low on free slots
// and once more when it drains back, instead of on every sample.
// A channel with no free slot drops stream events.
type ChannelCapacityHandler struct {
	mu                   sync.Mutex
	log                  *slog.Logger
	lowCapacityThreshold int
	low                  map[string]bool
}

func NewChannelCapacityHandler(log *slog.Logger, lowCapacityThreshold int) *ChannelCapacityHandler {
	return &ChannelCapacityHandler{
		log:                  log,
		lowCapacityThreshold: lowCapacityThreshold,
		low:                  make(map[string]bool),
	}
}

func (h *ChannelCapacityHandler) Handle(event Event) {
	if event.Type != ChannelCapacityType {
		return
	}
	payload, ok := event.Payload.(ChannelCapacity)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error())
		return
	}
	if payload.Capacity <= 0 {
		// unbuffered
		return
	}

	free := payload.Capacity - payload.Length
	isLow := free <= h.lowCapacityThreshold

	h.mu.Lock()
	wasLow := h.low[payload.ChannelName]
	h.low[payload.ChannelName] = isLow
	h.mu.Unlock()

	switch {
	case isLow && !wasLow:
		h.log.Warn("Low channel capacity", "channel", payload.ChannelName,
			"free", free, "capacity", payload.Capacity, "dropping", free == 0)
	case !isLow && wasLow:
		h.log.Info("Channel capacity recovered", "channel", payload.ChannelName,
			"free", free, "capacity", payload.Capacity)
	}
}

// Low reports whether the channel was below the threshold at its last sample.
func (h *ChannelCapacityHandler) Low(channelName string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.low[channelName]
}
