package acquire

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/prospectai/prospect-cli/internal/model"
)

// Cache is a TTL'd content cache backed by SQLite, keyed by URL. Re-runs
// against the same targets skip the browser and network entirely.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (or creates) the cache database at path and configures
// WAL mode.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	const migration = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	url        TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fetch_cache_expires_at ON fetch_cache(expires_at);
`
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: migrate")
	}

	return &Cache{db: db}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached content for url, or nil when absent or expired.
func (c *Cache) Get(ctx context.Context, url string) (*model.RawContent, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT content FROM fetch_cache WHERE url = ? AND expires_at > datetime('now')`,
		url,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: get")
	}

	var content model.RawContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, eris.Wrap(err, "cache: unmarshal content")
	}
	return &content, nil
}

// Put stores content with the given TTL, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, content *model.RawContent, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return eris.Wrap(err, "cache: marshal content")
	}

	now := time.Now().UTC()
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO fetch_cache (url, content, fetched_at, expires_at) VALUES (?, ?, ?, ?)`,
		content.URL, string(raw), now, now.Add(ttl),
	)
	return eris.Wrap(err, "cache: put")
}

// Prune deletes expired entries and returns the number removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM fetch_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "cache: prune")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
