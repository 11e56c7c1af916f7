//go:generate go run go.uber.org/mock/mockgen -source=stream.go -destination=../mocks/mock_stream_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type Outcome int

const (
	OutcomeServed Outcome = iota + 1
	OutcomeRejected
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeServed:
		return "SERVED"
	case OutcomeRejected:
		return "REJECTED"
	case OutcomeFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

type IStreamRepository interface {
	StoreStream(record StreamRecord) error
	GetStreams(resource string, cursor *string) ([]StreamRecord, *string, error)
}

// DefaultStreamsPage bounds a history page when no limit is configured.
const DefaultStreamsPage = 50

type StreamRepository struct {
	db           *badger.DB
	log          *slog.Logger
	limitStreams int
}

func NewStreamRepository(db *badger.DB, log *slog.Logger, limitStreams *int) StreamRepository {
	limit := DefaultStreamsPage
	if limitStreams != nil && *limitStreams > 0 {
		limit = *limitStreams
	}
	return StreamRepository{db: db, log: log, limitStreams: limit}
}

// StreamRecord is the persisted outcome of one ranged request.
type StreamRecord struct {
	ID        uuid.UUID
	Resource  string
	Outcome   Outcome
	Start     int64
	End       int64
	FileSize  int64
	BytesSent int64
	Status    int
	Detail    string
	Duration  time.Duration
	At        time.Time
}

const streamPrefix = "stream:"

// StreamPrefix is the key prefix under which the history of a resource is stored.
func StreamPrefix(resource string) string {
	return fmt.Sprintf("%s%s:", streamPrefix, url.QueryEscape(resource))
}

// StoreStream persists a record in BadgerDB.
// The key is formatted as "stream:{resource}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Keep two records landing on the same nanosecond apart thanks to the UUID.
//
// The resource is query-escaped so that a ':' in a media name cannot leak into another prefix.
func (s StreamRepository) StoreStream(record StreamRecord) error {
	key := fmt.Sprintf("%s%019d:%s",
		StreamPrefix(record.Resource),
		record.At.UnixNano(),
		record.ID,
	)
	value, err := marshalStreamRecord(record)
	if err != nil {
		return fmt.Errorf("encode stream record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// GetStreams returns the history of a resource, newest first.
// The cursor is the "{timestamp}:{uuid}" part of the last key of the previous page,
// a nil cursor starts from the newest record. The returned cursor is nil once the history is exhausted.
func (s StreamRepository) GetStreams(resource string, cursor *string) ([]StreamRecord, *string, error) {
	var values [][]byte
	var lastKey string
	limitReached := false

	err := s.db.View(func(txn *badger.Txn) error {
		prefixStr := StreamPrefix(resource)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Reverse iteration starts from the greatest key below the seek key
			seekKey = append([]byte(prefixStr), 0xFF)
		default:
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[len(prefix):]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(values) == s.limitStreams {
				s.log.Debug(fmt.Sprintf("Maximum of %d streams reached", s.limitStreams))
				limitReached = true
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	records := make([]StreamRecord, 0, len(values))
	for _, v := range values {
		record, err := unmarshalStreamRecord(v)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}
	if !limitReached {
		return records, nil, nil
	}
	return records, &lastKey, nil
}
