package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"stream-lab/auth"
	"stream-lab/domain/event"
	"stream-lab/domain/mimetypes"
	"stream-lab/infrastructure/disk"
	"stream-lab/mocks"
	"stream-lab/observability"
	"stream-lab/repositories"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type routerFixture struct {
	handler http.Handler
	catalog *mocks.MockICatalogRepository
	history *mocks.MockIStreamRepository
}

func newRouterFixture(t *testing.T, withCatalog bool, secret []byte) routerFixture {
	return newRouterFixtureWith(t, withCatalog, secret, nil)
}

func newRouterFixtureWith(t *testing.T, withCatalog bool, secret []byte, failures *event.Counter) routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	dir := t.TempDir()
	video := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(video, randomContent(1000), 0o644))
	media := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(media, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(media, "clip.webm"), randomContent(300), 0o644))

	store, err := disk.NewDiskStore(slog.Default(), video, media)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fixture := routerFixture{history: mocks.NewMockIStreamRepository(ctrl)}
	config := RouterConfig{
		Log:        slog.Default(),
		Streamer:   NewStreamer(slog.Default(), store, &recordingPublisher{}, nil, 100),
		History:    fixture.history,
		Monitoring: observability.NewMonitoringManager(slog.Default(), time.Second),
		Failures:   failures,
		AuthSecret: secret,
	}
	if withCatalog {
		fixture.catalog = mocks.NewMockICatalogRepository(ctrl)
		config.Catalog = fixture.catalog
	}
	fixture.handler = NewRouter(config)
	return fixture
}

func serve(handler http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestRouter_Welcome_Page(t *testing.T) {
	fixture := newRouterFixture(t, false, nil)

	for _, target := range []string{"/", "/index.html", "/videos", "/anything/else"} {
		t.Run(target, func(t *testing.T) {
			req := require.New(t)
			w := serve(fixture.handler, http.MethodGet, target, nil)
			req.Equal(http.StatusOK, w.Code)
			req.Contains(w.Header().Get("Content-Type"), "text/html")
			req.Equal(welcomePage, w.Body.String())
			req.NotEmpty(w.Header().Get(requestIDHeader))
		})
	}
}

func TestRouter_Streams_Video_And_Media(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture(t, false, nil)

	w := serve(fixture.handler, http.MethodGet, "/video", map[string]string{"Range": "bytes=900-"})
	req.Equal(http.StatusPartialContent, w.Code)
	req.Equal("bytes 900-999/1000", w.Header().Get("Content-Range"))

	w = serve(fixture.handler, http.MethodGet, "/media/clip.webm", map[string]string{"Range": "bytes=0-"})
	req.Equal(http.StatusPartialContent, w.Code)
	req.Equal("bytes 0-99/300", w.Header().Get("Content-Range"))
	req.Equal(string(mimetypes.VideoWebM), w.Header().Get("Content-Type"))

	w = serve(fixture.handler, http.MethodGet, "/media/../video.mp4", map[string]string{"Range": "bytes=0-"})
	req.NotEqual(http.StatusPartialContent, w.Code)

	w = serve(fixture.handler, http.MethodGet, "/media/missing.mp4", map[string]string{"Range": "bytes=0-"})
	req.Equal(http.StatusNotFound, w.Code)
}

func TestRouter_Auth_Guards_Resources(t *testing.T) {
	req := require.New(t)
	secret := []byte("router_test_secret_router_test_secret")
	fixture := newRouterFixture(t, false, secret)
	token, err := auth.GenerateToken(secret, "tv", []string{"video"}, time.Hour)
	req.NoError(err)

	w := serve(fixture.handler, http.MethodGet, "/video", map[string]string{"Range": "bytes=0-"})
	req.Equal(http.StatusUnauthorized, w.Code)

	w = serve(fixture.handler, http.MethodGet, "/video", map[string]string{
		"Range": "bytes=0-", "Authorization": "Bearer " + token,
	})
	req.Equal(http.StatusPartialContent, w.Code)

	w = serve(fixture.handler, http.MethodGet, "/media/clip.webm?token="+token, map[string]string{"Range": "bytes=0-"})
	req.Equal(http.StatusForbidden, w.Code)

	w = serve(fixture.handler, http.MethodGet, "/", nil)
	req.Equal(http.StatusOK, w.Code)
}

func TestRouter_Auth_Guards_History(t *testing.T) {
	req := require.New(t)
	secret := []byte("router_test_secret_router_test_secret")
	fixture := newRouterFixture(t, false, secret)
	token, err := auth.GenerateToken(secret, "tv", []string{"video"}, time.Hour)
	req.NoError(err)

	w := serve(fixture.handler, http.MethodGet, "/streams/video", nil)
	req.Equal(http.StatusUnauthorized, w.Code)

	w = serve(fixture.handler, http.MethodGet, "/streams/clip.webm?token="+token, nil)
	req.Equal(http.StatusForbidden, w.Code)

	fixture.history.EXPECT().GetStreams("video", nil).Return(nil, nil, nil)
	w = serve(fixture.handler, http.MethodGet, "/streams/video", map[string]string{"Authorization": "Bearer " + token})
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"resource":"video","items":[],"next":null}`, w.Body.String())
}

func TestRouter_Catalog(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture(t, true, nil)
	modified := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	fixture.catalog.EXPECT().
		Search(gomock.Any(), "holiday", 5).
		Return([]repositories.CatalogEntry{
			{Name: "trips/holiday.mp4", Size: 42, MimeType: mimetypes.VideoMP4, ModifiedAt: modified},
		}, uint64(7), nil)

	w := serve(fixture.handler, http.MethodGet, "/catalog?q=holiday&limit=5", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal("application/json", w.Header().Get("Content-Type"))

	var body catalogResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	req.EqualValues(7, body.Total)
	req.Equal([]catalogItem{{Name: "trips/holiday.mp4", Size: 42, Mime: mimetypes.VideoMP4, ModifiedAt: modified}}, body.Items)
}

func TestRouter_Catalog_Limits(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture(t, true, nil)

	fixture.catalog.EXPECT().Search(gomock.Any(), "", maxCatalogLimit).Return(nil, uint64(0), nil)
	w := serve(fixture.handler, http.MethodGet, "/catalog?limit=5000", nil)
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"total":0,"items":[]}`, w.Body.String())

	w = serve(fixture.handler, http.MethodGet, "/catalog?limit=abc", nil)
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestRouter_Catalog_Disabled(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture(t, false, nil)

	w := serve(fixture.handler, http.MethodGet, "/catalog", nil)
	req.Equal(http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Streams_History(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture(t, false, nil)
	id := uuid.New()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	fixture.history.EXPECT().
		GetStreams("trips/holiday.mp4", lo.ToPtr("123:abc")).
		Return([]repositories.StreamRecord{{
			ID: id, Resource: "trips/holiday.mp4", Outcome: repositories.OutcomeServed,
			Start: 0, End: 99, FileSize: 1000, BytesSent: 100, Status: 206,
			Duration: 3 * time.Millisecond, At: at,
		}}, lo.ToPtr("100:def"), nil)

	w := serve(fixture.handler, http.MethodGet, "/streams/trips/holiday.mp4?cursor=123:abc", nil)
	req.Equal(http.StatusOK, w.Code)

	var body streamsResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	req.Equal("trips/holiday.mp4", body.Resource)
	req.Equal("100:def", *body.Next)
	req.Len(body.Items, 1)
	req.Equal(id.String(), body.Items[0].ID)
	req.Equal("SERVED", body.Items[0].Outcome)
	req.EqualValues(3, body.Items[0].DurationMs)
}

func TestRouter_Health(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture(t, false, nil)

	w := serve(fixture.handler, http.MethodGet, "/healthz", nil)
	req.Equal(http.StatusOK, w.Code)

	var body observability.MonitoringStats
	req.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	req.NotNil(body.Process)
	req.Positive(body.Process.PID)
}

func TestRouter_Health_Reports_Telemetry_Failures(t *testing.T) {
	req := require.New(t)
	failures := event.NewCounter()
	failures.Increment(event.StreamFailureType)
	failures.Increment(event.StreamFailureType)
	failures.Increment(event.StreamLatencyType)
	fixture := newRouterFixtureWith(t, false, nil, failures)

	w := serve(fixture.handler, http.MethodGet, "/healthz", nil)
	req.Equal(http.StatusOK, w.Code)

	var body observability.MonitoringStats
	req.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	req.EqualValues(2, body.TelemetryFailures)
}
