// Package githubstars imports a user's starred GitHub repositories as bookmarks.
package githubstars

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
	"golang.org/x/oauth2"
)

const perPage = 100

// BookmarkWriter is the part of the bookmark service the importer needs
type BookmarkWriter interface {
	List(ctx context.Context, includeHidden bool) ([]*models.Bookmark, error)
	Create(ctx context.Context, req bookmarks.CreateRequest) (*models.Bookmark, error)
}

// Result counts what one import did
type Result struct {
	Fetched  int      `json:"fetched"`
	Added    int      `json:"added"`
	Skipped  int      `json:"skipped"`
	Category string   `json:"category"`
	AddedIDs []string `json:"added_ids"`
}

// Importer pages through starred repositories and adds the ones not yet bookmarked
type Importer struct {
	client   *github.Client
	writer   BookmarkWriter
	category string
	logger   arbor.ILogger
}

// NewImporter builds a GitHub client from config. A token authenticates through
// an oauth2 static token source; BaseURL points the client at an Enterprise API root.
func NewImporter(config common.GitHubConfig, writer BookmarkWriter, logger arbor.ILogger) (*Importer, error) {
	var httpClient *http.Client
	if config.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	if config.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(config.BaseURL, config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
	}

	category := strings.TrimSpace(config.Category)
	if category == "" {
		category = "GitHub Stars"
	}

	return &Importer{
		client:   client,
		writer:   writer,
		category: category,
		logger:   logger,
	}, nil
}

// Import adds user's starred repositories to category (the configured default when empty).
// An empty user means the token's own account. Repositories whose URL is already
// bookmarked are skipped.
func (i *Importer) Import(ctx context.Context, user, category string) (*Result, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		category = i.category
	}

	existing, err := i.writer.List(ctx, true)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, b := range existing {
		known[normalizeURL(b.URL)] = true
	}

	result := &Result{Category: category, AddedIDs: []string{}}
	opts := &github.ActivityListStarredOptions{
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	for {
		starred, resp, err := i.client.Activity.ListStarred(ctx, user, opts)
		if err != nil {
			return result, fmt.Errorf("failed to list starred repositories: %w", err)
		}

		for _, star := range starred {
			repo := star.GetRepository()
			if repo == nil || repo.GetHTMLURL() == "" {
				continue
			}
			result.Fetched++

			key := normalizeURL(repo.GetHTMLURL())
			if known[key] {
				result.Skipped++
				continue
			}

			b, err := i.writer.Create(ctx, toCreateRequest(repo, category))
			if err != nil {
				return result, fmt.Errorf("failed to save %s: %w", repo.GetFullName(), err)
			}
			known[key] = true
			result.Added++
			result.AddedIDs = append(result.AddedIDs, b.ID)
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	i.logger.Info().
		Str("user", user).
		Str("category", category).
		Int("fetched", result.Fetched).
		Int("added", result.Added).
		Int("skipped", result.Skipped).
		Msg("GitHub stars imported")

	return result, nil
}

func toCreateRequest(repo *github.Repository, category string) bookmarks.CreateRequest {
	req := bookmarks.CreateRequest{
		Title:    repo.GetFullName(),
		URL:      repo.GetHTMLURL(),
		Category: &category,
		Tags:     repoTags(repo),
	}
	if description := strings.TrimSpace(repo.GetDescription()); description != "" {
		req.Description = &description
	}
	return req
}

// repoTags is the language followed by the topics, lowercased and deduplicated
func repoTags(repo *github.Repository) []string {
	seen := make(map[string]bool)
	tags := make([]string, 0, len(repo.Topics)+1)
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	add(repo.GetLanguage())
	for _, topic := range repo.Topics {
		add(topic)
	}
	return tags
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(u)), "/")
}
