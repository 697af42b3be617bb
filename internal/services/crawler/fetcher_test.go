package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
)

const samplePage = `<!doctype html>
<html>
<head>
  <title>Plain Title</title>
  <meta name="description" content="meta description">
  <meta property="og:title" content="OG Title">
  <link rel="shortcut icon" href="/static/favicon.ico">
  <script>var tracking = true;</script>
  <style>body { color: red }</style>
</head>
<body>
  <header>Site header</header>
  <nav>Home | About</nav>
  <main>
    <h1>Hello</h1>
    <p>First   paragraph
       with    spacing.</p>
    <p>Second <a href="/docs">paragraph</a>.</p>
  </main>
  <footer>Copyright</footer>
</body>
</html>`

func newTestFetcher() *Fetcher {
	config := common.NewDefaultConfig().Crawler
	config.RequestsPerSecond = 0
	return NewFetcher(config, arbor.NewLogger())
}

func TestFetch_ExtractsPageInfo(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	info, err := newTestFetcher().Fetch(context.Background(), server.URL+"/article")
	require.NoError(t, err)

	assert.Contains(t, userAgent, "Mozilla/5.0")
	assert.Equal(t, server.URL+"/article", info.URL)
	assert.Equal(t, "OG Title", info.Title)
	assert.Equal(t, "meta description", info.Description)
	assert.Equal(t, server.URL+"/static/favicon.ico", info.Favicon)
	assert.Equal(t, "Hello First paragraph with spacing. Second paragraph.", info.Content)
	assert.NotContains(t, info.Content, "tracking")
	assert.NotContains(t, info.Content, "Site header")
	assert.Contains(t, info.Markdown, "# Hello")
	assert.Contains(t, info.Markdown, server.URL+"/docs")
}

func TestFetch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetch_RejectsInvalidURL(t *testing.T) {
	_, err := newTestFetcher().Fetch(context.Background(), "ftp://example.com")
	assert.Error(t, err)
}

func TestExtractPageInfo_FallbacksAndCap(t *testing.T) {
	html := `<html><head><title> Only Title </title>
<meta property="og:description" content="og desc">
<meta name="description" content="plain desc"></head>
<body><article>` + strings.Repeat("word ", 50) + `</article></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	info := ExtractPageInfo(doc, "https://example.com/a", 20)
	assert.Equal(t, "Only Title", info.Title)
	assert.Equal(t, "og desc", info.Description)
	assert.Empty(t, info.Favicon)
	assert.Equal(t, 20, len([]rune(info.Content)))
	assert.True(t, strings.HasPrefix(info.Content, "word word"))
}

func TestRateLimiter_PerHost(t *testing.T) {
	limiter := NewRateLimiter(1000, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "https://a.example.com/x"))
	require.NoError(t, limiter.Wait(ctx, "https://A.example.com/y"))
	require.NoError(t, limiter.Wait(ctx, "https://b.example.com/"))
	assert.Equal(t, 2, limiter.Hosts())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	slow := NewRateLimiter(0.001, 1)
	require.NoError(t, slow.Wait(ctx, "https://c.example.com"))
	assert.Error(t, slow.Wait(cancelled, "https://c.example.com"))
}

type fakeRenderer struct {
	html  string
	err   error
	calls int
}

func (r *fakeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	r.calls++
	return r.html, r.err
}

const scriptOnlyPage = `<html><head><title>App</title>
<meta name="description" content="static description"></head>
<body><div id="root"></div><script>render()</script></body></html>`

func TestFetch_RendersScriptOnlyPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(scriptOnlyPage))
	}))
	defer server.Close()

	renderer := &fakeRenderer{html: `<html><head><title>App</title></head><body><main><p>Rendered body text</p></main></body></html>`}
	info, err := newTestFetcher().WithRenderer(renderer).Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, 1, renderer.calls)
	assert.Equal(t, "Rendered body text", info.Content)
	assert.Equal(t, "static description", info.Description)
	assert.Equal(t, server.URL, info.URL)
}

func TestFetch_KeepsStaticResultWhenRenderFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(scriptOnlyPage))
	}))
	defer server.Close()

	renderer := &fakeRenderer{err: assert.AnError}
	info, err := newTestFetcher().WithRenderer(renderer).Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "App", info.Title)
	assert.Empty(t, info.Content)
}

func TestFetch_SkipsRendererWhenContentPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	renderer := &fakeRenderer{}
	_, err := newTestFetcher().WithRenderer(renderer).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Zero(t, renderer.calls)
}
