package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"stream-lab/auth"
	"stream-lab/domain"
	"stream-lab/domain/event"
	"stream-lab/domain/mimetypes"
	"stream-lab/errors"
	"stream-lab/observability"
	"stream-lab/repositories"
	"strconv"
	"time"

	"github.com/samber/lo"
)

const (
	welcomePage = "<h1>Welcome to File Streaming Server</h1><p>Use /video to stream video</p>"

	defaultCatalogLimit = 20
	maxCatalogLimit     = 100
)

// RouterConfig gathers what the routes need, Catalog, Failures and AuthSecret are optional.
type RouterConfig struct {
	Log        *slog.Logger
	Streamer   *Streamer
	Catalog    repositories.ICatalogRepository
	History    repositories.IStreamRepository
	Monitoring *observability.MonitoringManager
	Failures   *event.Counter
	AuthSecret []byte
}

type Router struct {
	log        *slog.Logger
	catalog    repositories.ICatalogRepository
	history    repositories.IStreamRepository
	monitoring *observability.MonitoringManager
	failures   *event.Counter
}

// NewRouter wires every route of the streaming server.
// GET patterns also answer HEAD requests.
func NewRouter(config RouterConfig) http.Handler {
	router := Router{
		log:        config.Log,
		catalog:    config.Catalog,
		history:    config.History,
		monitoring: config.Monitoring,
		failures:   config.Failures,
	}

	guard := func(h http.HandlerFunc) http.Handler { return h }
	if len(config.AuthSecret) > 0 {
		middleware := auth.Middleware(config.AuthSecret, config.Log, resourceOf)
		guard = func(h http.HandlerFunc) http.Handler { return middleware(h) }
	}

	mux := http.NewServeMux()
	mux.Handle("GET /video", guard(config.Streamer.Video))
	mux.Handle("GET /media/{name...}", guard(config.Streamer.Media))
	mux.HandleFunc("GET /catalog", router.Catalog)
	mux.Handle("GET /streams/{name...}", guard(router.Streams))
	mux.HandleFunc("GET /healthz", router.Health)
	mux.HandleFunc("/", router.Welcome)

	return AccessLog(config.Log, mux)
}

func resourceOf(r *http.Request) string {
	if name := r.PathValue("name"); name != "" {
		return name
	}
	return domain.VideoResource
}

func (rt Router) Welcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(welcomePage))
}

type catalogItem struct {
	Name       string         `json:"name"`
	Size       int64          `json:"size"`
	Mime       mimetypes.MIME `json:"mime"`
	ModifiedAt time.Time      `json:"modified_at"`
}

type catalogResponse struct {
	Total uint64        `json:"total"`
	Items []catalogItem `json:"items"`
}

func (rt Router) Catalog(w http.ResponseWriter, r *http.Request) {
	if rt.catalog == nil {
		http.Error(w, errors.ErrCatalogDisabled.Error(), http.StatusServiceUnavailable)
		return
	}
	limit := defaultCatalogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxCatalogLimit)
	}

	entries, total, err := rt.catalog.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		rt.log.Error("Catalog search failed", "error", err)
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}
	rt.writeJSON(w, catalogResponse{
		Total: total,
		Items: lo.Map(entries, func(e repositories.CatalogEntry, _ int) catalogItem {
			return catalogItem{Name: e.Name, Size: e.Size, Mime: e.MimeType, ModifiedAt: e.ModifiedAt}
		}),
	})
}

type streamItem struct {
	ID         string    `json:"id"`
	Outcome    string    `json:"outcome"`
	Status     int       `json:"status"`
	Start      int64     `json:"start"`
	End        int64     `json:"end"`
	FileSize   int64     `json:"file_size"`
	BytesSent  int64     `json:"bytes_sent"`
	Detail     string    `json:"detail,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

type streamsResponse struct {
	Resource string       `json:"resource"`
	Items    []streamItem `json:"items"`
	Next     *string      `json:"next"`
}

func (rt Router) Streams(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = lo.ToPtr(raw)
	}

	records, next, err := rt.history.GetStreams(name, cursor)
	if err != nil {
		rt.log.Error("Stream history failed", "resource", name, "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	rt.writeJSON(w, streamsResponse{
		Resource: name,
		Next:     next,
		Items: lo.Map(records, func(rec repositories.StreamRecord, _ int) streamItem {
			return streamItem{
				ID:         rec.ID.String(),
				Outcome:    rec.Outcome.String(),
				Status:     rec.Status,
				Start:      rec.Start,
				End:        rec.End,
				FileSize:   rec.FileSize,
				BytesSent:  rec.BytesSent,
				Detail:     rec.Detail,
				DurationMs: rec.Duration.Milliseconds(),
				At:         rec.At,
			}
		}),
	})
}

func (rt Router) Health(w http.ResponseWriter, _ *http.Request) {
	stats := rt.monitoring.GetLatest()
	if rt.failures != nil {
		stats.TelemetryFailures = rt.failures.Get(event.StreamFailureType)
	}
	if proc, err := rt.monitoring.ProcessStats(); err == nil {
		stats.Process = &proc
	} else {
		rt.log.Debug("Process stats unavailable", "error", err)
	}
	rt.writeJSON(w, stats)
}

func (rt Router) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rt.log.Debug("Failed to write JSON response", "error", err)
	}
}
