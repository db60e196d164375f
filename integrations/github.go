package integrations

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chxlky/trello-pr-bridge/internal/models"
	"go.uber.org/zap"
)

type GitHubClient struct {
	Client    *http.Client
	Token     string
	UserAgent string
}

func NewGitHubClient(token, userAgent string, timeout time.Duration) *GitHubClient {
	return &GitHubClient{
		Client:    &http.Client{Timeout: timeout},
		Token:     token,
		UserAgent: userAgent,
	}
}

// ListCommits fetches every commit of a pull request from its commits_url,
// requesting page 1, 2, ... until GitHub returns an empty page.
func (gc *GitHubClient) ListCommits(ctx context.Context, commitsURL string) ([]models.Commit, error) {
	base, err := url.Parse(commitsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid commits url %q: %w", commitsURL, err)
	}

	var all []models.Commit
	for page := 1; ; page++ {
		pageURL := *base
		query := pageURL.Query()
		query.Set("page", strconv.Itoa(page))
		pageURL.RawQuery = query.Encode()

		req, err := newRequest(ctx, http.MethodGet, pageURL.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", gc.UserAgent)
		req.Header.Set("Accept", "application/vnd.github+json")
		if gc.Token != "" {
			req.Header.Set("Authorization", "token "+gc.Token)
		}

		var commits []models.Commit
		if err := do(gc.Client, "github", req, &commits); err != nil {
			return nil, err
		}
		if len(commits) == 0 {
			break
		}
		all = append(all, commits...)
	}

	zap.L().Debug("Fetched pull request commits", zap.String("url", commitsURL), zap.Int("count", len(all)))
	return all, nil
}
