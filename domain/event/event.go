package event

import (
	"stream-lab/domain"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is published once per request, when its stream session reaches a terminal state.
type DomainEvent interface {
	ResourceName() string
	OccurredAt() time.Time
}

type StreamServed struct {
	ID        uuid.UUID
	Resource  string
	Window    domain.ByteWindow
	BytesSent int64
	MimeType  string
	Duration  time.Duration
	At        time.Time
}

func (s StreamServed) ResourceName() string  { return s.Resource }
func (s StreamServed) OccurredAt() time.Time { return s.At }

type StreamRejected struct {
	ID       uuid.UUID
	Resource string
	Status   int
	Reason   string
	At       time.Time
}

func (s StreamRejected) ResourceName() string  { return s.Resource }
func (s StreamRejected) OccurredAt() time.Time { return s.At }

// StreamFailed is an aborted transfer: the headers were sent and the body is incomplete.
type StreamFailed struct {
	ID        uuid.UUID
	Resource  string
	Window    domain.ByteWindow
	BytesSent int64
	Reason    string
	Duration  time.Duration
	At        time.Time
}

func (s StreamFailed) ResourceName() string  { return s.Resource }
func (s StreamFailed) OccurredAt() time.Time { return s.At }
