package acquire

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectai/prospect-cli/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_PutAndGet(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	content := &model.RawContent{
		URL:      "https://acme.example/about",
		Title:    "About Acme",
		Markdown: "We build widgets.",
		Source:   "http",
	}
	require.NoError(t, c.Put(ctx, content, time.Hour))

	got, err := c.Get(ctx, "https://acme.example/about")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "About Acme", got.Title)
	assert.Equal(t, "We build widgets.", got.Markdown)
}

func TestCache_MissReturnsNil(t *testing.T) {
	c := openTestCache(t)
	got, err := c.Get(context.Background(), "https://nowhere.example")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// expire backdates an entry so it reads as past its TTL.
func expire(t *testing.T, c *Cache, url string) {
	t.Helper()
	_, err := c.db.Exec(
		`UPDATE fetch_cache SET expires_at = datetime('now', '-1 hour') WHERE url = ?`, url)
	require.NoError(t, err)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	content := &model.RawContent{URL: "https://acme.example", Markdown: "stale"}
	require.NoError(t, c.Put(ctx, content, time.Hour))
	expire(t, c, "https://acme.example")

	got, err := c.Get(ctx, "https://acme.example")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_PutReplaces(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, &model.RawContent{URL: "https://acme.example", Markdown: "old"}, time.Hour))
	require.NoError(t, c.Put(ctx, &model.RawContent{URL: "https://acme.example", Markdown: "new"}, time.Hour))

	got, err := c.Get(ctx, "https://acme.example")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Markdown)
}

func TestCache_Prune(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, &model.RawContent{URL: "https://live.example", Markdown: "live"}, time.Hour))
	require.NoError(t, c.Put(ctx, &model.RawContent{URL: "https://dead.example", Markdown: "dead"}, time.Hour))
	expire(t, c, "https://dead.example")

	n, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := c.Get(ctx, "https://live.example")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestChain_CacheHitSkipsStrategies(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	cached := &model.RawContent{URL: "https://acme.example", Markdown: "cached", Source: "http"}
	require.NoError(t, c.Put(ctx, cached, time.Hour))

	strategy := &scriptedStrategy{name: "live", supports: true, content: &model.RawContent{
		Markdown: "live", Source: "live",
	}}
	chain := NewChain(strategy).WithCache(c, time.Hour)

	got, err := chain.Fetch(ctx, "https://acme.example")
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Markdown)
	assert.Zero(t, strategy.calls)
}

func TestChain_CacheMissFetchesAndStores(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	strategy := &scriptedStrategy{name: "live", supports: true, content: &model.RawContent{
		URL: "https://acme.example", Markdown: "live", Source: "live",
	}}
	chain := NewChain(strategy).WithCache(c, time.Hour)

	got, err := chain.Fetch(ctx, "https://acme.example")
	require.NoError(t, err)
	assert.Equal(t, "live", got.Markdown)
	assert.Equal(t, 1, strategy.calls)

	stored, err := c.Get(ctx, "https://acme.example")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "live", stored.Markdown)
}
