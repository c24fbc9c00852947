// Package acquire obtains raw page content for a target URL via an ordered
// list of strategies: headless-browser render, plain HTTP fetch, and a
// backend API query. The first strategy yielding non-empty content wins;
// individual strategy failures are logged, not propagated.
package acquire

import (
	"context"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prospectai/prospect-cli/internal/model"
)

// Strategy fetches a single URL and returns its content.
type Strategy interface {
	Fetch(ctx context.Context, url string) (*model.RawContent, error)
	Name() string
	Supports(url string) bool
}

// Chain tries strategies in priority order, returning the first success.
type Chain struct {
	strategies []Strategy
	cache      *Cache // optional
	cacheTTL   time.Duration
}

// NewChain creates a Chain over the given strategies, tried in order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// WithCache enables a TTL'd content cache checked before the strategies.
func (c *Chain) WithCache(cache *Cache, ttl time.Duration) *Chain {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

// Fetch tries each strategy in order for a single URL and returns the first
// non-empty result. Exhausting all strategies reports one aggregated failure.
func (c *Chain) Fetch(ctx context.Context, targetURL string) (*model.RawContent, error) {
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, targetURL); err != nil {
			zap.L().Debug("acquire: cache lookup failed", zap.Error(err))
		} else if cached != nil {
			zap.L().Debug("acquire: cache hit", zap.String("url", targetURL))
			return cached, nil
		}
	}

	var lastErr error
	for _, s := range c.strategies {
		if !s.Supports(targetURL) {
			continue
		}
		content, err := s.Fetch(ctx, targetURL)
		if err == nil && !content.Empty() {
			normalize(content)
			if content.Markdown == "" {
				err = eris.Errorf("%s: empty content after conversion", s.Name())
			} else {
				zap.L().Info("acquire: fetched",
					zap.String("url", targetURL),
					zap.String("strategy", s.Name()),
					zap.Int("chars", len(content.Markdown)),
				)
				if c.cache != nil {
					if cacheErr := c.cache.Put(ctx, content, c.cacheTTL); cacheErr != nil {
						zap.L().Debug("acquire: cache write failed", zap.Error(cacheErr))
					}
				}
				return content, nil
			}
		}
		if err == nil {
			err = eris.Errorf("%s: empty content", s.Name())
		}
		zap.L().Debug("acquire: strategy failed, trying next",
			zap.String("strategy", s.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		lastErr = err
	}

	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "acquire: all strategies failed")
	}
	return nil, eris.Errorf("acquire: no suitable strategy for url: %s", targetURL)
}

// normalize fills Markdown from HTML when a strategy returned raw HTML only.
func normalize(content *model.RawContent) {
	if content.Markdown != "" || content.HTML == "" {
		return
	}
	md, err := htmltomarkdown.ConvertString(content.HTML)
	if err != nil || strings.TrimSpace(md) == "" {
		// Conversion failures fall back to a crude tag strip so a usable
		// excerpt still reaches the extractor.
		content.Markdown = strings.TrimSpace(stripTags(content.HTML))
		return
	}
	content.Markdown = strings.TrimSpace(md)
}
