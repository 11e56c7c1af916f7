package internal

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"stream-lab/repositories"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDefaultMapper(t *testing.T) {
	req := require.New(t)
	at := time.Date(2025, 3, 1, 10, 11, 12, 0, time.UTC)
	key := fmt.Sprintf("stream:video:%019d:0123456789abcdef", at.UnixNano())

	row := DefaultMapper(key, []byte("abc"))
	req.Equal("video", row.Namespace)
	req.Equal("10:11:12", row.Timestamp)
	req.Equal("01234567", row.EntityID)
	req.Equal("Size: 3 bytes", row.Detail)

	raw := DefaultMapper("unrelated", nil)
	req.Equal("RAW", raw.Type)
	req.Equal("default", raw.Namespace)
}

func TestDebugHandler_Lists_Stream_History(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := repositories.NewStreamRepository(db, slog.Default(), nil)
	req.NoError(repository.StoreStream(repositories.StreamRecord{
		ID: uuid.New(), Resource: "video", Outcome: repositories.OutcomeServed,
		Start: 0, End: 999_999, FileSize: 2_500_000, BytesSent: 1_000_000, Status: 206,
		Detail: "video/mp4", At: time.Now().UTC(),
	}))

	handler := NewDebugHandler(db, InspectEndpoint, StreamMapper, func() map[string]any {
		return map[string]any{"Status": "test"}
	})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, InspectEndpoint, nil))

	req.Equal(http.StatusOK, w.Code)
	body := w.Body.String()
	req.Contains(body, "SERVED")
	req.Contains(body, "0-999999/2500000")
	req.Contains(body, "206 video/mp4")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, InspectEndpoint+"?prefix=nothing:", nil))
	req.Contains(w.Body.String(), "No key under this prefix")
}
