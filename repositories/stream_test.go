package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func servedRecord(resource string, start int64, at time.Time) StreamRecord {
	return StreamRecord{
		ID:        uuid.New(),
		Resource:  resource,
		Outcome:   OutcomeServed,
		Start:     start,
		End:       start + 999_999,
		FileSize:  2_500_000,
		BytesSent: 1_000_000,
		Status:    206,
		Duration:  12 * time.Millisecond,
		At:        at,
	}
}

func Test_Store_Streams_Returns_Newest_First(t *testing.T) {
	req := require.New(t)
	repository := NewStreamRepository(openBadger(t), slog.Default(), nil)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	records := []StreamRecord{
		servedRecord("video", 0, at),
		servedRecord("video", 1_000_000, at.Add(time.Second)),
		servedRecord("video", 2_000_000, at.Add(2*time.Second)),
	}
	for _, r := range records {
		req.NoError(repository.StoreStream(r))
	}
	// Another resource must not leak into the history of "video"
	req.NoError(repository.StoreStream(servedRecord("video2", 0, at.Add(3*time.Second))))

	fetched, cursor, err := repository.GetStreams("video", nil)
	req.NoError(err)
	req.Nil(cursor)
	req.Equal([]StreamRecord{records[2], records[1], records[0]}, fetched)
}

func Test_Get_Streams_Pages_With_Cursor(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewStreamRepository(openBadger(t), slog.Default(), &limit)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var records []StreamRecord
	for i := 0; i < 5; i++ {
		r := servedRecord("movies/trailer.mp4", int64(i)*1_000_000, at.Add(time.Duration(i)*time.Minute))
		records = append(records, r)
		req.NoError(repository.StoreStream(r))
	}

	page1, cursor, err := repository.GetStreams("movies/trailer.mp4", nil)
	req.NoError(err)
	req.NotNil(cursor)
	req.Equal([]StreamRecord{records[4], records[3]}, page1)
	req.Equal(fmt.Sprintf("%019d:%s", records[3].At.UnixNano(), records[3].ID), *cursor)

	page2, cursor, err := repository.GetStreams("movies/trailer.mp4", cursor)
	req.NoError(err)
	req.NotNil(cursor)
	req.Equal([]StreamRecord{records[2], records[1]}, page2)

	page3, cursor, err := repository.GetStreams("movies/trailer.mp4", cursor)
	req.NoError(err)
	req.Nil(cursor)
	req.Equal([]StreamRecord{records[0]}, page3)
}

func Test_Get_Streams_Default_Page_Without_Limit(t *testing.T) {
	req := require.New(t)
	repository := NewStreamRepository(openBadger(t), slog.Default(), nil)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	total := DefaultStreamsPage + 3
	for i := 0; i < total; i++ {
		req.NoError(repository.StoreStream(servedRecord("video", int64(i), at.Add(time.Duration(i)*time.Second))))
	}

	page1, cursor, err := repository.GetStreams("video", nil)
	req.NoError(err)
	req.Len(page1, DefaultStreamsPage)
	req.NotNil(cursor)
	req.Equal(at.Add(time.Duration(total-1)*time.Second), page1[0].At)

	page2, cursor, err := repository.GetStreams("video", cursor)
	req.NoError(err)
	req.Nil(cursor)
	req.Len(page2, 3)
	req.Equal(at, page2[2].At)
}

func Test_Get_Streams_Unknown_Resource(t *testing.T) {
	req := require.New(t)
	repository := NewStreamRepository(openBadger(t), slog.Default(), nil)

	fetched, cursor, err := repository.GetStreams("nothing", nil)
	req.NoError(err)
	req.Nil(cursor)
	req.Empty(fetched)
}

func Test_Stream_Prefix_Escapes_Separator(t *testing.T) {
	req := require.New(t)
	req.Equal("stream:video:", StreamPrefix("video"))
	req.Equal("stream:a%3Ab:", StreamPrefix("a:b"))
}

func Test_Outcome_String(t *testing.T) {
	req := require.New(t)
	req.Equal("SERVED", OutcomeServed.String())
	req.Equal("REJECTED", OutcomeRejected.String())
	req.Equal("FAILED", OutcomeFailed.String())
	req.Equal("UNKNOWN", Outcome(0).String())
}
