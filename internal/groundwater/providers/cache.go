package providers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
	"github.com/i474232898/groundwater-monitoring/internal/raster"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS image_queries (
	query_key  TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	images     INTEGER NOT NULL,
	payload    BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
);`

type cacheRow struct {
	Key       string `db:"query_key"`
	Source    string `db:"source"`
	Images    int    `db:"images"`
	Payload   []byte `db:"payload"`
	FetchedAt int64  `db:"fetched_at"`
}

// CachedSource keeps query results of another source in SQLite. Entries
// older than the TTL are fetched again; a zero TTL never expires.
type CachedSource struct {
	inner  groundwater.ImageSource
	db     *sqlx.DB
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewCachedSource opens (or creates) the cache database at path.
func NewCachedSource(ctx context.Context, path string, inner groundwater.ImageSource, ttl time.Duration, logger *zap.Logger) (*CachedSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	// :memory: databases exist per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &CachedSource{
		inner:  inner,
		db:     db,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Close closes the cache database.
func (c *CachedSource) Close() error {
	return c.db.Close()
}

func (c *CachedSource) Name() string {
	return "cached(" + c.inner.Name() + ")"
}

func (c *CachedSource) Images(ctx context.Context, q groundwater.Query) (raster.Collection, error) {
	key := cacheKey(c.inner.Name(), q)

	images, ok, err := c.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		c.logger.Debug("cache hit", zap.String("key", key), zap.Int("images", len(images)))
		return images, nil
	}

	images, err = c.inner.Images(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx, key, images); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return images, nil
}

func (c *CachedSource) lookup(ctx context.Context, key string) (raster.Collection, bool, error) {
	var row cacheRow
	err := c.db.GetContext(ctx, &row,
		`SELECT query_key, source, images, payload, fetched_at FROM image_queries WHERE query_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(row.FetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}

	doc, err := decodeDocument(bytes.NewReader(row.Payload))
	if err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	out := make(raster.Collection, 0, len(doc.Images))
	for _, rec := range doc.Images {
		img, err := rec.image()
		if err != nil {
			return nil, false, fmt.Errorf("cache entry %s: %w", key, err)
		}
		out = append(out, img)
	}
	return out, true, nil
}

func (c *CachedSource) save(ctx context.Context, key string, images raster.Collection) error {
	payload, err := json.Marshal(encodeDocument(images))
	if err != nil {
		return err
	}
	_, err = c.db.NamedExecContext(ctx, `
		INSERT INTO image_queries (query_key, source, images, payload, fetched_at)
		VALUES (:query_key, :source, :images, :payload, :fetched_at)
		ON CONFLICT(query_key) DO UPDATE SET
			source = excluded.source,
			images = excluded.images,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		cacheRow{
			Key:       key,
			Source:    c.inner.Name(),
			Images:    len(images),
			Payload:   payload,
			FetchedAt: c.now().Unix(),
		})
	return err
}

// cacheKey scopes entries to the inner source so that switching sources on
// the same database does not serve the other source's images.
func cacheKey(source string, q groundwater.Query) string {
	return strings.Join([]string{
		source,
		q.Collection,
		q.Band,
		q.Start.UTC().Format(time.RFC3339),
		q.End.UTC().Format(time.RFC3339),
		formatBBox(q.Bounds),
	}, "|")
}
