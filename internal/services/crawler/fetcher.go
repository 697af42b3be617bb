package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

const maxBodyBytes = 5 << 20

// Fetcher downloads pages over HTTP and extracts PageInfo with goquery.
// With a Renderer set, pages whose static HTML has no readable content are rendered again.
type Fetcher struct {
	client    *http.Client
	limiter   *RateLimiter
	renderer  Renderer
	userAgent string
	maxChars  int
	logger    arbor.ILogger
}

var _ interfaces.PageFetcher = (*Fetcher)(nil)

// NewFetcher creates a page fetcher from crawler configuration
func NewFetcher(config common.CrawlerConfig, logger arbor.ILogger) *Fetcher {
	maxChars := config.MaxContentChars
	if maxChars <= 0 {
		maxChars = 5000
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: common.ParseDurationOr(config.Timeout, 10*time.Second),
		},
		limiter:   NewRateLimiter(config.RequestsPerSecond, config.Burst),
		userAgent: config.UserAgent,
		maxChars:  maxChars,
		logger:    logger,
	}
}

// WithRenderer sets the fallback used for script-rendered pages
func (f *Fetcher) WithRenderer(renderer Renderer) *Fetcher {
	f.renderer = renderer
	return f
}

// Fetch downloads rawURL following redirects. Non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.PageInfo, error) {
	pageURL, err := common.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := f.limiter.Wait(ctx, pageURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug().Err(err).Str("url", pageURL).Msg("Page fetch failed")
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Debug().Int("status", resp.StatusCode).Str("url", pageURL).Msg("Page fetch returned error status")
		return nil, fmt.Errorf("failed to fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	info := ExtractPageInfo(doc, finalURL, f.maxChars)
	if info.Content == "" && f.renderer != nil {
		info = f.renderFallback(ctx, finalURL, info)
	}
	info.URL = pageURL

	f.logger.Debug().
		Str("url", pageURL).
		Int("content_chars", len(info.Content)).
		Dur("duration", time.Since(start)).
		Msg("Page fetched")

	return info, nil
}

// renderFallback re-extracts from browser-rendered HTML. The static result is kept on failure.
func (f *Fetcher) renderFallback(ctx context.Context, pageURL string, static *models.PageInfo) *models.PageInfo {
	html, err := f.renderer.Render(ctx, pageURL)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", pageURL).Msg("Browser fallback failed")
		return static
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return static
	}

	rendered := ExtractPageInfo(doc, pageURL, f.maxChars)
	if rendered.Title == "" {
		rendered.Title = static.Title
	}
	if rendered.Description == "" {
		rendered.Description = static.Description
	}
	return rendered
}
