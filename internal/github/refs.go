// Package github implements the read-only GitHub reference lookup used
// by the authenticated tag existence check.
//
// A single endpoint is consumed: GET /repos/{owner}/{repo}/git/ref/tags/{tag}.
// A 404 means the tag reference does not exist; any 2xx means it does.
// Every other response is a fatal remote error — it must never be
// conflated with non-existence, or a transient failure would be masked
// as "tag absent" and cause a duplicate tag attempt.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mmr-tortoise/cargo-release-tag/internal/model"
)

// defaultAPIBaseURL is the public GitHub REST API endpoint.
const defaultAPIBaseURL = "https://api.github.com"

// githubRemoteRe extracts owner and repo from GitHub remote URLs.
// Matches both HTTPS (github.com/) and SSH (github.com:) formats,
// with or without a trailing .git suffix.
var githubRemoteRe = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/.]+)`)

// ParseRepo extracts the owner and repository name from a git remote URL.
//
// Supported forms:
//
//	https://github.com/owner/repo
//	https://github.com/owner/repo.git
//	git@github.com:owner/repo.git
func ParseRepo(remoteURL string) (owner, repo string, err error) {
	m := githubRemoteRe.FindStringSubmatch(remoteURL)
	if len(m) != 3 {
		return "", "", fmt.Errorf("remote URL %q is not a GitHub repository", remoteURL)
	}
	return m[1], m[2], nil
}

// Client performs authenticated reference lookups against the GitHub API.
type Client struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
}

// NewClient creates a Client using the given access token. An empty
// token sends unauthenticated requests (subject to much lower rate
// limits); callers normally only construct a Client when a token is
// available.
func NewClient(token string) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.HTTPClient.Timeout = 10 * time.Second
	c.Logger = nil // suppress retryablehttp's default logging

	return &Client{
		baseURL: defaultAPIBaseURL,
		token:   token,
		http:    c,
	}
}

// TagRefExists reports whether the tag reference refs/tags/<tag> exists
// in the given repository.
//
// Response handling:
//   - 404        → false, nil (the reference does not exist)
//   - any 2xx    → true, nil
//   - otherwise  → a fatal model.CLIError with ExitRemoteError carrying
//     the HTTP status and a short body excerpt, so authentication
//     failures and rate limiting remain distinguishable in diagnostics.
func (c *Client) TagRefExists(ctx context.Context, owner, repo, tag string) (bool, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/ref/tags/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(tag))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, model.WrapCLIError(model.ExitRemoteError, "failed to build reference lookup request", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, model.WrapCLIError(model.ExitRemoteError,
			fmt.Sprintf("reference lookup for tag %q failed", tag), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, model.NewCLIError(model.ExitRemoteError,
			fmt.Sprintf("reference lookup for tag %q returned %s%s", tag, resp.Status, bodyExcerpt(resp.Body)))
	}
}

// bodyExcerpt reads a short, whitespace-collapsed excerpt of a response
// body for inclusion in error messages. Read failures yield an empty
// excerpt; the status line alone is still actionable.
func bodyExcerpt(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return ""
	}
	excerpt := strings.Join(strings.Fields(string(data)), " ")
	if excerpt == "" {
		return ""
	}
	return ": " + excerpt
}
