package githubstars

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
	"github.com/ternarybob/litemark/internal/services/ordering"
	"github.com/ternarybob/litemark/internal/storage/badger"
)

const pageOne = `[
  {"starred_at": "2024-01-01T00:00:00Z", "repo": {"full_name": "golang/go", "html_url": "https://github.com/golang/go",
    "description": "The Go programming language", "language": "Go", "topics": ["go", "Language"]}},
  {"starred_at": "2024-01-02T00:00:00Z", "repo": {"full_name": "already/saved", "html_url": "https://github.com/already/saved/"}}
]`

const pageTwo = `[
  {"starred_at": "2024-01-03T00:00:00Z", "repo": {"full_name": "rust-lang/rust", "html_url": "https://github.com/rust-lang/rust",
    "language": "Rust", "topics": []}}
]`

func newStarsServer(t *testing.T, wantAuth string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/users/octo/starred" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, pageTwo)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/api/v3/users/octo/starred?page=2>; rel="next"`, server.URL))
		fmt.Fprint(w, pageOne)
	}))
	t.Cleanup(server.Close)
	return server
}

func newWriter(t *testing.T) *bookmarks.Service {
	t.Helper()
	logger := arbor.NewLogger()
	manager, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	order := ordering.NewService(manager.BookmarkStorage(), manager.CategoryOrderStorage(), logger)
	return bookmarks.NewService(manager.BookmarkStorage(), order, logger)
}

func TestImport_PagesAndSkipsKnownURLs(t *testing.T) {
	server := newStarsServer(t, "Bearer secret")
	writer := newWriter(t)
	ctx := context.Background()

	_, err := writer.Create(ctx, bookmarks.CreateRequest{Title: "Saved", URL: "https://GitHub.com/already/saved"})
	require.NoError(t, err)

	importer, err := NewImporter(common.GitHubConfig{Token: "secret", BaseURL: server.URL + "/"}, writer, arbor.NewLogger())
	require.NoError(t, err)

	result, err := importer.Import(ctx, "octo", "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "GitHub Stars", result.Category)
	require.Len(t, result.AddedIDs, 2)

	goRepo, err := writer.Get(ctx, result.AddedIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "golang/go", goRepo.Title)
	assert.Equal(t, "GitHub Stars", goRepo.CategoryName())
	assert.Equal(t, "The Go programming language", goRepo.DescriptionText())
	assert.Equal(t, []string{"go", "language"}, goRepo.Tags)

	rust, err := writer.Get(ctx, result.AddedIDs[1])
	require.NoError(t, err)
	assert.Nil(t, rust.Description)
	assert.Equal(t, []string{"rust"}, rust.Tags)

	again, err := importer.Import(ctx, "octo", "reading")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Added)
	assert.Equal(t, 3, again.Skipped)
	assert.Equal(t, "reading", again.Category)
}

func TestImport_UnauthenticatedAndAPIError(t *testing.T) {
	server := newStarsServer(t, "")
	writer := newWriter(t)

	importer, err := NewImporter(common.GitHubConfig{BaseURL: server.URL + "/", Category: "stars"}, writer, arbor.NewLogger())
	require.NoError(t, err)

	result, err := importer.Import(context.Background(), "octo", "")
	require.NoError(t, err)
	assert.Equal(t, "stars", result.Category)
	assert.Equal(t, 3, result.Added)

	_, err = importer.Import(context.Background(), "nobody", "")
	assert.Error(t, err)
}

func TestRepoTags(t *testing.T) {
	tags := repoTags(&github.Repository{Language: github.String("Go"), Topics: []string{" CLI ", "go", ""}})
	assert.Equal(t, []string{"go", "cli"}, tags)
	assert.Empty(t, repoTags(&github.Repository{}))
}
