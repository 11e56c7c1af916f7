package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"stream-lab/contract"
	"stream-lab/domain"
	"stream-lab/domain/event"
	"stream-lab/domain/mimetypes"
	"stream-lab/errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	notFoundBody      = "File not found"
	rangeRequiredBody = "Requires Range header"
	unsatisfiableBody = "Range Not Satisfiable"
)

// Streamer serves one fixed-size chunk of a resource per ranged request.
// It holds no state across requests.
type Streamer struct {
	log         *slog.Logger
	store       contract.IResourceStore
	publisher   contract.EventPublisher
	tracker     contract.StreamTracker
	validate    *validator.Validate
	chunkSize   int64
	defaultMime mimetypes.MIME
}

func NewStreamer(log *slog.Logger,
	store contract.IResourceStore,
	publisher contract.EventPublisher,
	tracker contract.StreamTracker,
	chunkSize int64) *Streamer {
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	return &Streamer{
		log:         log,
		store:       store,
		publisher:   publisher,
		tracker:     tracker,
		validate:    validator.New(),
		chunkSize:   chunkSize,
		defaultMime: mimetypes.VideoMP4,
	}
}

// Video streams the configured video file.
func (s *Streamer) Video(w http.ResponseWriter, r *http.Request) {
	s.Serve(w, r, domain.VideoResource)
}

// Media streams a file of the media root named by the {name} path value.
func (s *Streamer) Media(w http.ResponseWriter, r *http.Request) {
	s.Serve(w, r, r.PathValue("name"))
}

// Serve runs one stream session for the named resource.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, name string) {
	session := domain.NewStreamSession(domain.NewStreamRequest(name, r.Header.Get("Range")))
	s.transition(session, domain.StateParsingRange)

	if err := s.validate.Struct(session.Request); err != nil {
		s.reject(w, session, http.StatusNotFound, notFoundBody, fmt.Errorf("%w: %w", errors.ErrResourceNotFound, err))
		return
	}

	file, err := s.store.Open(name)
	if err != nil {
		s.reject(w, session, http.StatusNotFound, notFoundBody, err)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.log.Debug("Failed to close resource", "resource", name, "error", err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		s.reject(w, session, http.StatusNotFound, notFoundBody, fmt.Errorf("%w: %w", errors.ErrResourceNotFound, err))
		return
	}
	fileSize := info.Size()

	if session.Request.RangeHeader == nil {
		s.reject(w, session, http.StatusRequestedRangeNotSatisfiable, rangeRequiredBody, errors.ErrRangeHeaderMissing)
		return
	}

	window, err := s.window(*session.Request.RangeHeader, fileSize)
	if err != nil {
		w.Header().Set("Content-Range", domain.UnsatisfiedRange(fileSize))
		s.reject(w, session, http.StatusRequestedRangeNotSatisfiable, unsatisfiableBody, err)
		return
	}
	session.Window = &window
	s.transition(session, domain.StateStreaming)

	contentType := mimetypes.Detect(file, info.Name())
	if mimetypes.ToMIME(contentType) == mimetypes.ApplicationOctetStream && name == domain.VideoResource {
		contentType = string(s.defaultMime)
	}

	header := w.Header()
	header.Set("Content-Range", window.ContentRange())
	header.Set("Accept-Ranges", "bytes")
	header.Set("Content-Length", strconv.FormatInt(window.Length(), 10))
	header.Set("Content-Type", contentType)
	w.WriteHeader(http.StatusPartialContent)

	if r.Method == http.MethodHead {
		s.transition(session, domain.StateClosed)
		s.served(session, 0, contentType)
		return
	}

	if s.tracker != nil {
		s.tracker.StreamStarted()
		defer s.tracker.StreamEnded()
	}

	src := &readTracker{r: io.NewSectionReader(file, window.Start, window.Length())}
	sent, copyErr := io.Copy(w, src)
	s.transition(session, domain.StateClosed)

	switch {
	case src.err != nil || (copyErr == nil && sent < window.Length()):
		readErr := src.err
		if readErr == nil {
			readErr = io.ErrUnexpectedEOF
		}
		err := fmt.Errorf("%w: %w", errors.ErrStreamRead, readErr)
		s.log.Error("Stream aborted on read failure",
			"id", session.ID, "resource", name, "range", window.ContentRange(),
			"sent", sent, "error", err)
		s.failed(session, sent, err)
		// Headers are gone, only the connection can tell the client
		panic(http.ErrAbortHandler)
	case copyErr != nil:
		s.log.Debug("Client went away",
			"id", session.ID, "resource", name, "range", window.ContentRange(),
			"sent", sent, "error", copyErr)
		s.failed(session, sent, copyErr)
	default:
		s.served(session, sent, contentType)
	}
}

func (s *Streamer) window(rangeHeader string, fileSize int64) (domain.ByteWindow, error) {
	start, err := domain.ParseRangeStart(rangeHeader)
	if err != nil {
		return domain.ByteWindow{}, err
	}
	return domain.ComputeWindow(start, fileSize, s.chunkSize)
}

func (s *Streamer) reject(w http.ResponseWriter, session *domain.StreamSession, status int, body string, cause error) {
	s.transition(session, domain.StateRejected)
	s.log.Debug("Stream rejected",
		"id", session.ID, "resource", session.Request.ResourcePath,
		"status", status, "error", cause)

	http.Error(w, body, status)
	s.publish(event.StreamRejected{
		ID:       session.ID,
		Resource: session.Request.ResourcePath,
		Status:   status,
		Reason:   cause.Error(),
		At:       time.Now().UTC(),
	})
}

func (s *Streamer) served(session *domain.StreamSession, sent int64, contentType string) {
	s.publish(event.StreamServed{
		ID:        session.ID,
		Resource:  session.Request.ResourcePath,
		Window:    *session.Window,
		BytesSent: sent,
		MimeType:  contentType,
		Duration:  time.Since(session.StartedAt),
		At:        time.Now().UTC(),
	})
}

func (s *Streamer) failed(session *domain.StreamSession, sent int64, cause error) {
	s.publish(event.StreamFailed{
		ID:        session.ID,
		Resource:  session.Request.ResourcePath,
		Window:    *session.Window,
		BytesSent: sent,
		Reason:    cause.Error(),
		Duration:  time.Since(session.StartedAt),
		At:        time.Now().UTC(),
	})
}

func (s *Streamer) publish(evt event.DomainEvent) {
	if s.publisher != nil {
		s.publisher.Publish(evt)
	}
}

// Transitions are fixed by Serve, a refused one is a programming error.
func (s *Streamer) transition(session *domain.StreamSession, to domain.StreamState) {
	if err := session.Transition(to); err != nil {
		s.log.Error("Stream session out of order", "id", session.ID, "error", err)
	}
}

// readTracker remembers a read error so that it is not mistaken for a write error.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}
