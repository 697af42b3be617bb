package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
)

// Renderer returns a page's HTML after its scripts have run
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// ChromeRenderer renders pages in a shared headless Chrome. One tab is open at a time.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	slot        chan struct{}
	wait        time.Duration
	timeout     time.Duration
	logger      arbor.ILogger
}

var _ Renderer = (*ChromeRenderer)(nil)

// NewChromeRenderer prepares the browser allocator. Chrome itself starts on the first Render.
func NewChromeRenderer(config common.CrawlerConfig, logger arbor.ILogger) *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(config.ChromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Info().
		Str("chrome_path", config.ChromePath).
		Str("render_wait", config.RenderWait).
		Msg("Browser fallback enabled for script-rendered pages")

	return &ChromeRenderer{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		slot:        make(chan struct{}, 1),
		wait:        common.ParseDurationOr(config.RenderWait, 2*time.Second),
		timeout:     common.ParseDurationOr(config.Timeout, 10*time.Second) * 3,
		logger:      logger,
	}
}

// Render opens pageURL in a new tab, waits for scripts and returns the document's outer HTML
func (r *ChromeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	select {
	case r.slot <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-r.slot }()

	tabCtx, cancelTab := chromedp.NewContext(r.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()
	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(r.wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", pageURL, err)
	}

	r.logger.Debug().
		Str("url", pageURL).
		Int("html_bytes", len(html)).
		Dur("duration", time.Since(start)).
		Msg("Page rendered in browser")

	return html, nil
}

// Close shuts the browser down
func (r *ChromeRenderer) Close() {
	r.allocCancel()
}
