package acquire

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/prospectai/prospect-cli/internal/model"
	"github.com/prospectai/prospect-cli/internal/resilience"
)

// browserUserAgent is sent on plain HTTP fetches; bare Go user agents are
// rejected by most commercial sites.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// HTTPStrategy fetches a page with a plain GET. Cheap and fast, but fails
// on script-rendered pages, so it sits behind the browser strategy.
type HTTPStrategy struct {
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*AdaptiveLimiter
}

// NewHTTPStrategy creates an HTTPStrategy with sensible timeouts.
func NewHTTPStrategy(timeout time.Duration) *HTTPStrategy {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPStrategy{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiters: make(map[string]*AdaptiveLimiter),
	}
}

func (h *HTTPStrategy) Name() string           { return "http" }
func (h *HTTPStrategy) Supports(_ string) bool { return true }

// Fetch GETs a URL with a browser-like user agent, detects blocks, and
// returns the raw HTML for downstream conversion.
func (h *HTTPStrategy) Fetch(ctx context.Context, targetURL string) (*model.RawContent, error) {
	if err := h.hostLimiter(targetURL).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "http: rate wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "http: create request")
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "http: read body")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		h.hostLimiter(targetURL).OnRateLimit()
		return nil, resilience.NewTransientError(eris.New("http: rate limited"), resp.StatusCode)
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("http: blocked (%s)", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("http: status %d", resp.StatusCode)
	}
	if len(body) < 100 {
		return nil, eris.New("http: empty page")
	}

	h.hostLimiter(targetURL).OnSuccess()

	return &model.RawContent{
		URL:        targetURL,
		Title:      extractTitle(body),
		HTML:       string(body),
		Source:     "http",
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// hostLimiter returns the adaptive limiter for the URL's host, creating it
// on first use (1 req/s baseline, burst of 3).
func (h *HTTPStrategy) hostLimiter(targetURL string) *AdaptiveLimiter {
	host := targetURL
	if u, err := url.Parse(targetURL); err == nil && u.Host != "" {
		host = u.Host
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	lim, ok := h.limiters[host]
	if !ok {
		lim = NewAdaptiveLimiter(1, 3)
		h.limiters[host] = lim
	}
	return lim
}

// AdaptiveLimiter wraps a rate.Limiter with adaptive rate adjustment.
// On success it increases the rate by 20% (up to 2x initial).
// On 429 it halves the rate (down to initial/4 minimum).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	initialRate rate.Limit
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter that auto-tunes.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		initialRate: initialRate,
		maxRate:     initialRate * 2,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess increases the rate by 20%, up to 2x initial.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	newRate := a.currentRate * 1.2
	if newRate > a.maxRate {
		newRate = a.maxRate
	}
	a.currentRate = newRate
	a.limiter.SetLimit(newRate)
}

// OnRateLimit halves the rate on 429 responses.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	newRate := a.currentRate * 0.5
	if newRate < a.minRate {
		newRate = a.minRate
	}
	a.currentRate = newRate
	a.limiter.SetLimit(newRate)
	zap.L().Warn("acquire: reducing host rate after 429",
		zap.Float64("new_rate", float64(newRate)),
	)
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style|nav|footer)[^>]*>.*?</(script|style|nav|footer)>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	spaceRe       = regexp.MustCompile(`[ \t]+`)
	newlineRe     = regexp.MustCompile(`\n{3,}`)
)

// stripTags is a crude HTML-to-text fallback used when markdown conversion
// fails: removes script/style/nav/footer blocks, strips tags, decodes the
// common entities, and collapses whitespace.
func stripTags(html string) string {
	html = scriptStyleRe.ReplaceAllString(html, "")
	html = tagRe.ReplaceAllString(html, " ")

	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	html = spaceRe.ReplaceAllString(html, " ")
	html = newlineRe.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}
