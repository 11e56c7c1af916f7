package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"stream-lab/domain/event"
	"stream-lab/repositories"
)

// DiskSink keeps the history of every terminal stream session in badger.
type DiskSink struct {
	repository repositories.IStreamRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.IStreamRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.StreamServed:
		return d.repository.StoreStream(fromServed(evt))
	case event.StreamRejected:
		return d.repository.StoreStream(fromRejected(evt))
	case event.StreamFailed:
		return d.repository.StoreStream(fromFailed(evt))
	default:
		d.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}

func fromServed(evt event.StreamServed) repositories.StreamRecord {
	return repositories.StreamRecord{
		ID:        evt.ID,
		Resource:  evt.Resource,
		Outcome:   repositories.OutcomeServed,
		Start:     evt.Window.Start,
		End:       evt.Window.End,
		FileSize:  evt.Window.FileSize,
		BytesSent: evt.BytesSent,
		Status:    http.StatusPartialContent,
		Detail:    evt.MimeType,
		Duration:  evt.Duration,
		At:        evt.At,
	}
}

func fromRejected(evt event.StreamRejected) repositories.StreamRecord {
	return repositories.StreamRecord{
		ID:       evt.ID,
		Resource: evt.Resource,
		Outcome:  repositories.OutcomeRejected,
		Status:   evt.Status,
		Detail:   evt.Reason,
		At:       evt.At,
	}
}

func fromFailed(evt event.StreamFailed) repositories.StreamRecord {
	return repositories.StreamRecord{
		ID:        evt.ID,
		Resource:  evt.Resource,
		Outcome:   repositories.OutcomeFailed,
		Start:     evt.Window.Start,
		End:       evt.Window.End,
		FileSize:  evt.Window.FileSize,
		BytesSent: evt.BytesSent,
		Status:    http.StatusPartialContent,
		Detail:    evt.Reason,
		Duration:  evt.Duration,
		At:        evt.At,
	}
}
