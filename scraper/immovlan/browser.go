package immovlan

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"immo-harvester/models"
	"immo-harvester/utils"
)

// BrowserSession fetches pages through a dedicated headless browser. Each
// session runs its own browser process, so cookies and cache are not shared
// between sessions.
type BrowserSession struct {
	id      int
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// NewBrowserSessionPool starts size browsers. The User-Agent header becomes
// the browser's user agent; the remaining headers are sent with every request.
func NewBrowserSessionPool(ctx context.Context, size int, timeout time.Duration, headers map[string]string, chromeBin string, logger *utils.Logger) (*SessionPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("browser pool: size must be positive, got %d", size)
	}

	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if ua := headers["User-Agent"]; ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	extra := network.Headers{}
	for k, v := range headers {
		if k != "User-Agent" {
			extra[k] = v
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	fetchers := make([]Fetcher, 0, size)
	closeAll := func() {
		for _, f := range fetchers {
			f.(*BrowserSession).cancel()
		}
		cancelAlloc()
	}

	for i := 0; i < size; i++ {
		bctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		// The first Run launches the browser.
		if err := chromedp.Run(bctx, network.Enable(), network.SetExtraHTTPHeaders(extra)); err != nil {
			cancel()
			closeAll()
			return nil, fmt.Errorf("browser pool: start session %d: %w", i, err)
		}
		fetchers = append(fetchers, &BrowserSession{id: i, ctx: bctx, cancel: cancel, timeout: timeout})
	}

	pool := NewSessionPool(fetchers...)
	pool.release = cancelAlloc
	return pool, nil
}

// Fetch navigates to url and returns the rendered document. The status is
// taken from the main document response.
func (b *BrowserSession) Fetch(ctx context.Context, url string) (*models.RawPage, error) {
	runCtx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var status atomic.Int64
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, e.Response.Status)
		}
	})

	var html string
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("browser session %d: navigate %s: %w", b.id, url, err)
	}

	code := int(status.Load())
	if code == 0 {
		code = http.StatusOK
	}
	return &models.RawPage{URL: url, StatusCode: code, Body: html}, nil
}

// Close shuts the session's browser down.
func (b *BrowserSession) Close() error {
	b.cancel()
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
