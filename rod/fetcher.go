// Package rod provides a medimatch.Fetcher backed by headless Chrome for
// directories that render their results with JavaScript.
package rod

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/medimatch"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds navigation and rendering of a single page.
const DefaultFetchTimeout = 15 * time.Second

// DefaultMaxPages is the number of pages rendered before the browser is
// restarted. Chrome's memory use grows with every page and never returns to
// its baseline.
const DefaultMaxPages = 50

// Ensure Fetcher implements medimatch.Fetcher at compile time.
var _ medimatch.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// The browser is launched on first use and restarted every maxPages pages.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	timeout      time.Duration
	waitSelector string
	maxPages     int

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    int
	closed   bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithWaitSelector makes Fetch wait until an element matching selector is
// present before reading the page. Use it to wait for result cards that are
// rendered after the load event.
func WithWaitSelector(selector string) Option {
	return func(f *Fetcher) {
		f.waitSelector = selector
	}
}

// WithMaxPages overrides DefaultMaxPages.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// NewFetcher creates a Fetcher. No browser is started until the first Fetch.
// Close must be called when the Fetcher is no longer needed.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser, err := f.acquire()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", medimatch.WrapError(medimatch.EINTERNAL, "rod", err, "opening page")
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", f.networkError(ctx, err, url)
	}
	if err := page.WaitLoad(); err != nil {
		return "", f.networkError(ctx, err, url)
	}
	if f.waitSelector != "" {
		if _, err := page.Element(f.waitSelector); err != nil {
			return "", f.networkError(ctx, err, url)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", f.networkError(ctx, err, url)
	}
	return html, nil
}

// networkError reports a failed page operation, preferring the context's
// error when the deadline or cancellation caused it.
func (f *Fetcher) networkError(ctx context.Context, err error, url string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return medimatch.WrapError(medimatch.ENETWORK, "rod", err, "rendering %s", url)
}

// acquire returns a connected browser, launching or recycling it as needed.
func (f *Fetcher) acquire() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, medimatch.Errorf(medimatch.EINVALID, "fetcher is closed")
	}
	if f.browser != nil && f.maxPages > 0 && f.pages >= f.maxPages {
		// Keep the old browser if a fresh one cannot be started.
		if browser, l, err := launch(); err == nil {
			_ = f.shutdown()
			f.browser, f.launcher = browser, l
			f.pages = 0
		}
	}
	if f.browser == nil {
		browser, l, err := launch()
		if err != nil {
			return nil, err
		}
		f.browser, f.launcher = browser, l
	}
	f.pages++
	return f.browser, nil
}

func launch() (*rod.Browser, *launcher.Launcher, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, nil, medimatch.WrapError(medimatch.EINTERNAL, "rod", err, "launching browser")
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, medimatch.WrapError(medimatch.EINTERNAL, "rod", err, "connecting to browser")
	}
	return browser, l, nil
}

// shutdown closes the current browser. Must be called with mu held.
func (f *Fetcher) shutdown() error {
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher = nil
	}
	return err
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.shutdown()
}

// LauncherPID returns the process ID of the running browser, or 0.
func (f *Fetcher) LauncherPID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launcher == nil {
		return 0
	}
	return f.launcher.PID()
}
