package domain

import (
	"fmt"
	"stream-lab/errors"
	"time"

	"github.com/google/uuid"
)

// StreamRequest is created per inbound request and dropped once the response completes.
type StreamRequest struct {
	ResourcePath string `validate:"required,max=1024"`
	RangeHeader  *string
}

func NewStreamRequest(resourcePath, rangeHeader string) StreamRequest {
	request := StreamRequest{ResourcePath: resourcePath}
	if rangeHeader != "" {
		request.RangeHeader = &rangeHeader
	}
	return request
}

type StreamState int

const (
	StateIdle StreamState = iota
	StateParsingRange
	StateRejected
	StateStreaming
	StateClosed
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateParsingRange:
		return "PARSING_RANGE"
	case StateRejected:
		return "REJECTED"
	case StateStreaming:
		return "STREAMING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

func (s StreamState) Terminal() bool {
	return s == StateRejected || s == StateClosed
}

var transitions = map[StreamState][]StreamState{
	StateIdle:         {StateParsingRange},
	StateParsingRange: {StateRejected, StateStreaming},
	StateStreaming:    {StateClosed},
}

// StreamSession follows one request through Idle → ParsingRange → (Rejected | Streaming) → Closed.
type StreamSession struct {
	ID        uuid.UUID
	Request   StreamRequest
	State     StreamState
	Window    *ByteWindow
	StartedAt time.Time
}

func NewStreamSession(request StreamRequest) *StreamSession {
	return &StreamSession{
		ID:        uuid.New(),
		Request:   request,
		State:     StateIdle,
		StartedAt: time.Now().UTC(),
	}
}

func (s *StreamSession) Transition(to StreamState) error {
	for _, allowed := range transitions[s.State] {
		if allowed == to {
			s.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, s.State, to)
}
