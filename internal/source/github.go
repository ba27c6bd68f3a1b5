// Package source provides the upstream connectors that hand Documents to
// the engine: a filesystem loader for scraped corpus files and a GitHub
// fetcher for markdown learning content. The engine assumes nothing about
// scrape freshness beyond newer builds superseding older ones wholesale.
package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
	"github.com/google/uuid"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

// GitHubSource fetches markdown content (roadmaps, guides, curricula)
// from a repository directory tree. A file that fails to fetch is logged
// and skipped; only a listing failure aborts the load.
type GitHubSource struct {
	client   *github.Client
	owner    string
	repo     string
	basePath string
	logger   *slog.Logger
}

// NewGitHubSource creates a GitHub connector for the given repository
// path. If GITHUB_TOKEN is set the client is authenticated for higher
// rate limits; primary and secondary rate limits are handled with
// automatic retry either way.
func NewGitHubSource(owner, repo, basePath string, logger *slog.Logger) (*GitHubSource, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GitHubSource{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
		logger:   logger,
	}, nil
}

// Name identifies this connector in Document.Source and citations.
func (s *GitHubSource) Name() string {
	return fmt.Sprintf("github:%s/%s", s.owner, s.repo)
}

// Documents lists and fetches every markdown file under the base path.
func (s *GitHubSource) Documents(ctx context.Context) ([]corpus.Document, error) {
	paths, err := s.listMarkdown(ctx, s.basePath)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.basePath, err)
	}

	docs := make([]corpus.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := s.fetch(ctx, p)
		if err != nil {
			s.logger.Warn("skipping unfetchable file", "path", p, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// listMarkdown recursively collects .md paths under dir.
func (s *GitHubSource) listMarkdown(ctx context.Context, dir string) ([]string, error) {
	_, contents, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, dir, nil)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, item := range contents {
		if item.Type == nil || item.Name == nil {
			continue
		}
		full := path.Join(dir, *item.Name)
		switch *item.Type {
		case "file":
			if strings.HasSuffix(*item.Name, ".md") {
				paths = append(paths, full)
			}
		case "dir":
			sub, err := s.listMarkdown(ctx, full)
			if err != nil {
				return nil, err
			}
			paths = append(paths, sub...)
		}
	}
	return paths, nil
}

// fetch retrieves one file as a Document.
func (s *GitHubSource) fetch(ctx context.Context, filePath string) (corpus.Document, error) {
	fileContent, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, filePath, nil)
	if err != nil {
		return corpus.Document{}, err
	}
	if fileContent == nil {
		return corpus.Document{}, fmt.Errorf("no file content returned")
	}

	raw, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return corpus.Document{}, fmt.Errorf("decode content: %w", err)
	}

	return corpus.Document{
		ID:        uuid.New().String(),
		Source:    s.Name(),
		URL:       fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/main/%s", s.owner, s.repo, filePath),
		RawText:   string(raw),
		FetchedAt: time.Now().UTC(),
	}, nil
}
