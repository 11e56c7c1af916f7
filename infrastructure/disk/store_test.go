package disk

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"stream-lab/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*DiskStore, string) {
	t.Helper()
	dir := t.TempDir()
	video := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(video, []byte("0123456789"), 0o644))

	root := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "clips"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "clips", "a.mp4"), []byte("abc"), 0o644))

	store, err := NewDiskStore(slog.Default(), video, root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, dir
}

func TestDiskStore_Open_Video(t *testing.T) {
	req := require.New(t)
	store, _ := newStore(t)

	f, err := store.Open("video")
	req.NoError(err)
	defer f.Close()

	info, err := f.Stat()
	req.NoError(err)
	req.EqualValues(10, info.Size())

	buf := make([]byte, 3)
	_, err = f.ReadAt(buf, 7)
	req.NoError(err)
	req.Equal("789", string(buf))
}

func TestDiskStore_Open_Media(t *testing.T) {
	req := require.New(t)
	store, _ := newStore(t)

	f, err := store.Open("clips/a.mp4")
	req.NoError(err)
	defer f.Close()

	content, err := io.ReadAll(io.NewSectionReader(f, 0, 3))
	req.NoError(err)
	req.Equal("abc", string(content))
}

func TestDiskStore_Open_Not_Found(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("nope"), 0o644))

	tests := []struct {
		name     string
		resource string
	}{
		{"missing file", "clips/missing.mp4"},
		{"directory", "clips"},
		{"root itself", ""},
		{"parent traversal", "../secret.txt"},
		{"nested traversal", "clips/../../secret.txt"},
		{"absolute path", "/" + filepath.Join(dir, "secret.txt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			_, err := store.Open(tt.resource)
			req.ErrorIs(err, errors.ErrResourceNotFound)
		})
	}
}

func TestDiskStore_Missing_Video(t *testing.T) {
	req := require.New(t)
	store, err := NewDiskStore(slog.Default(), filepath.Join(t.TempDir(), "nope.mp4"), "")
	req.NoError(err)

	_, err = store.Open("video")
	req.ErrorIs(err, errors.ErrResourceNotFound)

	// Without media root, only the fixed video exists
	_, err = store.Open("clips/a.mp4")
	req.ErrorIs(err, errors.ErrResourceNotFound)
}

func TestNewDiskStore_Missing_Root(t *testing.T) {
	req := require.New(t)
	_, err := NewDiskStore(slog.Default(), "video.mp4", filepath.Join(t.TempDir(), "absent"))
	req.Error(err)
}
