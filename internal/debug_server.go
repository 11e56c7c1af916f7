package internal

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"stream-lab/repositories"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

const (
	InspectEndpoint = "/inspect"
	defaultPrefix   = "stream:"
	maxInspectRows  = 500
)

type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Namespace string
	Detail    string
	Range     string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix    string
	Items     []InspectRow
	Truncated bool
	Stats     map[string]any
}

// NewDebugHandler renders the badger keys under the "prefix" query parameter.
func NewDebugHandler(db *badger.DB, endpoint string, mapper RowMapper, statsProvider StatsProvider) http.Handler {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))
	if mapper == nil {
		mapper = DefaultMapper
	}

	mux := http.NewServeMux()
	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = defaultPrefix
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				if len(data.Items) == maxInspectRows {
					data.Truncated = true
					return nil
				}
				item := it.Item()
				if err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})
	return mux
}

// StartDebugServer serves the inspector on all interfaces, the caller shuts it down.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, mapper RowMapper, statsProvider StatsProvider) *http.Server {
	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           NewDebugHandler(db, InspectEndpoint, mapper, statsProvider),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug inspector stopped", "error", err)
		}
	}()
	return server
}

// DefaultMapper splits keys shaped as "namespace:entity:timestamp:id".
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Namespace: "default",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
		Range:     "-",
	}

	if len(parts) >= 4 {
		row.Namespace = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("15:04:05")
		}
		row.EntityID = parts[3]
		if len(row.EntityID) > 8 {
			row.EntityID = row.EntityID[:8]
		}
	}
	return row
}

// StreamMapper decodes stream history values on top of DefaultMapper.
func StreamMapper(key string, val []byte) InspectRow {
	row := DefaultMapper(key, val)
	record, err := repositories.DecodeStreamRecord(val)
	if err != nil {
		row.Detail = "Error: decode failed"
		return row
	}
	row.Type = record.Outcome.String()
	row.Namespace = record.Resource
	if record.Outcome != repositories.OutcomeRejected {
		row.Range = fmt.Sprintf("%d-%d/%d", record.Start, record.End, record.FileSize)
	}
	row.Detail = fmt.Sprintf("%d %s (%d bytes in %s)", record.Status, record.Detail, record.BytesSent, record.Duration)
	return row
}
