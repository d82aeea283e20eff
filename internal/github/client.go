// Package github fetches repository trees and blob contents from the GitHub
// API on behalf of one authenticated generation request.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// defaultTimeout bounds individual GitHub HTTP requests.
const defaultTimeout = 30 * time.Second

// Repo is one repository visible to the supplied token.
type Repo struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Private     bool   `json:"private"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Client wraps the go-github client for a single user token. Clients are
// constructed per request from the caller's credential; there is no
// process-wide instance.
type Client struct {
	gh          *gh.Client
	rateLimiter *rateLimiter
}

// NewClient builds a client around an OAuth access token. An empty token is
// reported as an auth failure on first use rather than here, so callers can
// construct eagerly.
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = defaultTimeout

	return &Client{
		gh:          gh.NewClient(tc),
		rateLimiter: newRateLimiter(),
	}
}

// ListRepos returns all repositories the token's user can access, newest
// first.
func (c *Client) ListRepos(ctx context.Context) ([]Repo, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Visibility:  "all",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []Repo
	for {
		if err := c.rateLimiter.wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		repos, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, c.wrapError(err, "authenticated user repositories")
		}
		c.rateLimiter.update(resp)

		for _, r := range repos {
			all = append(all, Repo{
				ID:          r.GetID(),
				FullName:    r.GetFullName(),
				Private:     r.GetPrivate(),
				Description: r.GetDescription(),
				HTMLURL:     r.GetHTMLURL(),
				UpdatedAt:   r.GetUpdatedAt().Format(time.RFC3339),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// DefaultBranch resolves the repository's default branch name.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", c.wrapError(err, owner+"/"+repo)
	}
	c.rateLimiter.update(resp)
	return r.GetDefaultBranch(), nil
}

// TreeEntries fetches the full recursive tree for a ref.
func (c *Client) TreeEntries(ctx context.Context, owner, repo, ref string) ([]*gh.TreeEntry, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, resp, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, c.wrapError(err, fmt.Sprintf("%s/%s tree %s", owner, repo, ref))
	}
	c.rateLimiter.update(resp)
	return tree.Entries, nil
}

// BlobText fetches a blob by SHA and decodes it to text.
func (c *Client) BlobText(ctx context.Context, owner, repo, sha string) (string, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	blob, resp, err := c.gh.Git.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return "", c.wrapError(err, fmt.Sprintf("%s/%s blob %s", owner, repo, sha))
	}
	c.rateLimiter.update(resp)

	content := blob.GetContent()
	if blob.GetEncoding() == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decode blob %s: %w", sha, err)
		}
		return string(decoded), nil
	}
	return content, nil
}
