package workers

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"stream-lab/domain/mimetypes"
	"stream-lab/repositories"
	"time"
)

// CatalogScanner keeps the catalog in line with the media root.
// Every scan indexes the media files it finds and removes the entries of vanished ones.
type CatalogScanner struct {
	log            *slog.Logger
	root           string
	catalog        repositories.ICatalogRepository
	rescanInterval time.Duration
	indexed        map[string]struct{}
}

func NewCatalogScanner(log *slog.Logger, root string,
	catalog repositories.ICatalogRepository,
	rescanInterval time.Duration) *CatalogScanner {
	return &CatalogScanner{
		log:            log,
		root:           root,
		catalog:        catalog,
		rescanInterval: rescanInterval,
		indexed:        make(map[string]struct{}),
	}
}

func (w *CatalogScanner) Run(ctx context.Context) error {
	if err := w.Scan(ctx); err != nil {
		return err
	}
	if w.rescanInterval <= 0 {
		return nil
	}
	ticker := time.NewTicker(w.rescanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping catalog scan")
			return nil
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil {
				return err
			}
		}
	}
}

// Scan walks the media root once.
// Unreadable files are skipped, only a failing index write is an error.
func (w *CatalogScanner) Scan(ctx context.Context) error {
	start := time.Now()
	var entries []repositories.CatalogEntry
	seen := make(map[string]struct{})

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Debug("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() && path != w.root {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Symlinks could point outside the root
		if !d.Type().IsRegular() {
			return nil
		}
		entry, ok := w.describe(path, d)
		if !ok {
			return nil
		}
		seen[entry.Name] = struct{}{}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	if err := w.catalog.Index(entries...); err != nil {
		return err
	}

	var vanished []string
	for name := range w.indexed {
		if _, ok := seen[name]; !ok {
			vanished = append(vanished, name)
		}
	}
	if err := w.catalog.Remove(vanished...); err != nil {
		return err
	}
	w.indexed = seen

	w.log.Debug("Catalog scanned",
		"root", w.root,
		"indexed", len(entries),
		"removed", len(vanished),
		"duration", time.Since(start))
	return nil
}

func (w *CatalogScanner) describe(path string, d fs.DirEntry) (repositories.CatalogEntry, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return repositories.CatalogEntry{}, false
	}
	info, err := d.Info()
	if err != nil {
		return repositories.CatalogEntry{}, false
	}
	f, err := os.Open(path)
	if err != nil {
		w.log.Debug("Skipping unreadable file", "path", path, "error", err)
		return repositories.CatalogEntry{}, false
	}
	defer func() { _ = f.Close() }()

	mimeType := mimetypes.ToMIME(mimetypes.Detect(f, info.Name()))
	if !mimetypes.IsMedia(mimeType) {
		return repositories.CatalogEntry{}, false
	}
	return repositories.CatalogEntry{
		Name:       filepath.ToSlash(rel),
		Size:       info.Size(),
		MimeType:   mimeType,
		ModifiedAt: info.ModTime().UTC(),
	}, true
}
