//go:generate go run go.uber.org/mock/mockgen -source=catalog.go -destination=../mocks/mock_catalog_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"stream-lab/domain/mimetypes"
	"strconv"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
)

type ICatalogRepository interface {
	Index(entries ...CatalogEntry) error
	Remove(names ...string) error
	Search(ctx context.Context, terms string, limit int) ([]CatalogEntry, uint64, error)
}

// CatalogEntry is a streamable file found under the media root.
// Name is relative to the root and doubles as the document identifier.
type CatalogEntry struct {
	Name       string
	Size       int64
	MimeType   mimetypes.MIME
	ModifiedAt time.Time
}

const (
	catalogName     = "name"
	catalogMime     = "mime"
	catalogSize     = "size"
	catalogModified = "modified"
)

type CatalogRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewCatalogRepository(writer *bluge.Writer, log *slog.Logger) CatalogRepository {
	return CatalogRepository{writer: writer, log: log}
}

// Index upserts the entries in a single batch.
func (c CatalogRepository) Index(entries ...CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := bluge.NewBatch()
	for _, entry := range entries {
		doc := bluge.NewDocument(entry.Name).
			AddField(bluge.NewTextField(catalogName, searchableName(entry.Name))).
			AddField(bluge.NewKeywordField(catalogMime, string(entry.MimeType)).StoreValue()).
			AddField(bluge.NewKeywordField(catalogSize, strconv.FormatInt(entry.Size, 10)).StoreValue()).
			AddField(bluge.NewKeywordField(catalogModified, entry.ModifiedAt.UTC().Format(time.RFC3339Nano)).StoreValue())
		batch.Update(doc.ID(), doc)
	}
	return c.writer.Batch(batch)
}

func (c CatalogRepository) Remove(names ...string) error {
	if len(names) == 0 {
		return nil
	}
	batch := bluge.NewBatch()
	for _, name := range names {
		batch.Delete(bluge.Identifier(name))
	}
	return c.writer.Batch(batch)
}

// Search matches terms against entry names, an empty query lists the whole catalog.
// The total is the number of matching entries, not the size of the page.
func (c CatalogRepository) Search(ctx context.Context, terms string, limit int) ([]CatalogEntry, uint64, error) {
	reader, err := c.writer.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("catalog reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	var query bluge.Query = bluge.NewMatchAllQuery()
	if strings.TrimSpace(terms) != "" {
		query = bluge.NewMatchQuery(terms).SetField(catalogName)
	}

	request := bluge.NewTopNSearch(limit, query).
		SortBy([]string{"-_score", "_id"}).
		WithStandardAggregations()

	dmi, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog search: %w", err)
	}

	var entries []CatalogEntry
	match, err := dmi.Next()
	for err == nil && match != nil {
		var entry CatalogEntry
		var visitErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				entry.Name = string(value)
			case catalogMime:
				entry.MimeType = mimetypes.MIME(value)
			case catalogSize:
				entry.Size, visitErr = strconv.ParseInt(string(value), 10, 64)
			case catalogModified:
				entry.ModifiedAt, visitErr = time.Parse(time.RFC3339Nano, string(value))
			}
			return visitErr == nil
		})
		if err == nil {
			err = visitErr
		}
		if err != nil {
			break
		}
		entries = append(entries, entry)
		match, err = dmi.Next()
	}
	if err != nil {
		return nil, 0, fmt.Errorf("catalog iteration: %w", err)
	}
	return entries, dmi.Aggregations().Count(), nil
}

// searchableName splits path separators and punctuation so that
// "trips/holiday_2024.mp4" is found by "holiday" or "trips".
func searchableName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '_', '-', '.':
			return ' '
		}
		return r
	}, name)
}
