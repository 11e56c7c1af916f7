package disk

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"stream-lab/contract"
	"stream-lab/domain"
	"stream-lab/errors"
	"strings"
)

// DiskStore opens the files served by the streamer.
// The fixed "video" resource points at a single file, every other name is
// resolved under the media root and cannot escape it.
type DiskStore struct {
	log       *slog.Logger
	videoPath string
	root      *os.Root
}

// NewDiskStore opens the media root when one is given.
func NewDiskStore(log *slog.Logger, videoPath, mediaRoot string) (*DiskStore, error) {
	store := &DiskStore{log: log, videoPath: videoPath}
	if mediaRoot == "" {
		return store, nil
	}
	root, err := os.OpenRoot(mediaRoot)
	if err != nil {
		return nil, fmt.Errorf("open media root %s: %w", mediaRoot, err)
	}
	store.root = root
	return store, nil
}

// Open returns the named resource, opened for reading.
// Every failure to obtain a regular file is reported as errors.ErrResourceNotFound.
func (s *DiskStore) Open(name string) (contract.File, error) {
	f, err := s.open(name)
	if err != nil {
		s.log.Debug("Resource unavailable", "resource", name, "error", err)
		return nil, fmt.Errorf("%w: %s", errors.ErrResourceNotFound, name)
	}

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		s.log.Debug("Resource is not a regular file", "resource", name)
		return nil, fmt.Errorf("%w: %s", errors.ErrResourceNotFound, name)
	}
	return f, nil
}

func (s *DiskStore) open(name string) (*os.File, error) {
	if name == domain.VideoResource {
		return os.Open(s.videoPath)
	}
	if s.root == nil {
		return nil, errors.ErrCatalogDisabled
	}
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if clean == "." || !fs.ValidPath(clean) {
		return nil, fs.ErrInvalid
	}
	return s.root.Open(clean)
}

func (s *DiskStore) Close() error {
	if s.root == nil {
		return nil
	}
	return s.root.Close()
}
