package acquire

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prospectai/prospect-cli/internal/model"
	"github.com/prospectai/prospect-cli/internal/resilience"
)

// BrowserStrategy renders a page in a headless browser, handling
// script-generated content the plain HTTP strategy cannot see. It is the
// first strategy in the chain but also the most fragile, so repeated
// failures open a circuit breaker and the chain falls through immediately.
type BrowserStrategy struct {
	timeout time.Duration
	breaker *resilience.CircuitBreaker

	mu      sync.Mutex
	browser *rod.Browser
	connect func() (*rod.Browser, error) // test seam
}

// NewBrowserStrategy creates a BrowserStrategy with the given page-load
// timeout. The browser connection is established lazily on first fetch.
func NewBrowserStrategy(timeout time.Duration) *BrowserStrategy {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &BrowserStrategy{
		timeout: timeout,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     60 * time.Second,
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("acquire: browser circuit state change",
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		}),
		connect: func() (*rod.Browser, error) {
			b := rod.New()
			if err := b.Connect(); err != nil {
				return nil, eris.Wrap(err, "browser: connect")
			}
			return b, nil
		},
	}
}

func (b *BrowserStrategy) Name() string { return "browser" }

// Supports returns true unless the circuit breaker is open.
func (b *BrowserStrategy) Supports(_ string) bool {
	return b.breaker.State() != resilience.CircuitOpen
}

// Fetch navigates to the URL with stealth applied, waits for page load, and
// returns the rendered HTML.
func (b *BrowserStrategy) Fetch(ctx context.Context, targetURL string) (*model.RawContent, error) {
	return resilience.ExecuteVal(ctx, b.breaker, func(ctx context.Context) (*model.RawContent, error) {
		return b.render(ctx, targetURL)
	})
}

func (b *BrowserStrategy) render(ctx context.Context, targetURL string) (*model.RawContent, error) {
	browser, err := b.acquireBrowser()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, eris.Wrap(err, "browser: create page")
	}
	defer func() { _ = page.Close() }()

	navCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(targetURL); err != nil {
		return nil, eris.Wrapf(err, "browser: navigate %s", targetURL)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		// Load timeouts still often have a usable DOM; log and continue.
		zap.L().Debug("browser: wait load timeout", zap.String("url", targetURL), zap.Error(err))
	}

	html, err := page.Context(navCtx).HTML()
	if err != nil {
		return nil, eris.Wrap(err, "browser: read html")
	}
	if len(html) < 100 {
		return nil, eris.New("browser: empty page")
	}

	title := ""
	if info, infoErr := page.Info(); infoErr == nil {
		title = info.Title
	}

	return &model.RawContent{
		URL:       targetURL,
		Title:     title,
		HTML:      html,
		Source:    "browser",
		FetchedAt: time.Now().UTC(),
	}, nil
}

// acquireBrowser returns the shared browser connection, dialing on first use.
func (b *BrowserStrategy) acquireBrowser() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}
	browser, err := b.connect()
	if err != nil {
		return nil, err
	}
	b.browser = browser
	return browser, nil
}

// Close releases the browser connection if one was established.
func (b *BrowserStrategy) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}
