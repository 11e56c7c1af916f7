package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"stream-lab/domain"
	"stream-lab/errors"
	"strings"
)

// Result sums up a complete download.
type Result struct {
	Size   int64
	Chunks int
	Sha256 string
}

// Fetcher downloads a resource of the streaming server one chunk at a time,
// each request asking for "bytes=<next>-" until the whole file is received.
type Fetcher struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
	token   string
}

func NewFetcher(log *slog.Logger, client *http.Client, baseURL, token string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{log: log, client: client, baseURL: strings.TrimSuffix(baseURL, "/"), token: token}
}

// ResourceURL maps a resource name to its route on the server.
func (f *Fetcher) ResourceURL(resource string) string {
	if resource == domain.VideoResource {
		return f.baseURL + "/video"
	}
	segments := strings.Split(strings.TrimPrefix(resource, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return f.baseURL + "/media/" + strings.Join(segments, "/")
}

// Fetch writes the resource to w and checks every chunk against its Content-Range.
func (f *Fetcher) Fetch(ctx context.Context, resource string, w io.Writer) (Result, error) {
	target := f.ResourceURL(resource)
	hash := sha256.New()
	out := io.MultiWriter(w, hash)

	var result Result
	var next int64
	for {
		first, last, length, err := f.fetchChunk(ctx, target, next, out)
		if err != nil {
			return result, err
		}
		if first < 0 {
			// 416 right at the end of the file, "bytes */0" for an empty one
			result.Sha256 = hex.EncodeToString(hash.Sum(nil))
			return result, nil
		}
		result.Chunks++
		result.Size += last - first + 1
		next = last + 1
		f.log.Debug("Chunk received", "resource", resource, "first", first, "last", last, "size", length)

		if length >= 0 && next >= length {
			result.Sha256 = hex.EncodeToString(hash.Sum(nil))
			return result, nil
		}
	}
}

func (f *Fetcher) fetchChunk(ctx context.Context, target string, start int64, out io.Writer) (first, last, length int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return -1, -1, -1, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-", start))
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return -1, -1, -1, fmt.Errorf("request %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		_, _, size, parseErr := parseContentRange(resp.Header.Get("Content-Range"))
		if parseErr == nil && size == start {
			return -1, -1, size, nil
		}
		return -1, -1, -1, fmt.Errorf("%w: 416 at offset %d", errors.ErrUnexpectedStatus, start)
	case http.StatusNotFound:
		return -1, -1, -1, fmt.Errorf("%w: %s", errors.ErrResourceNotFound, target)
	case http.StatusUnauthorized, http.StatusForbidden:
		return -1, -1, -1, fmt.Errorf("%w: %s", errors.ErrUnauthorized, resp.Status)
	default:
		return -1, -1, -1, fmt.Errorf("%w: %s", errors.ErrUnexpectedStatus, resp.Status)
	}

	first, last, length, err = parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return -1, -1, -1, err
	}
	if first != start {
		return -1, -1, -1, fmt.Errorf("%w: asked %d, got %d", errors.ErrContentRange, start, first)
	}

	expected := last - first + 1
	n, err := io.CopyN(out, resp.Body, expected)
	if err != nil {
		return -1, -1, -1, fmt.Errorf("%w: chunk %d-%d cut after %d bytes: %w", errors.ErrContentRange, first, last, n, err)
	}
	return first, last, length, nil
}
