// Package github talks to the GitHub REST API and the raw content host to
// resolve a branch tip and pull down the reviewable files under it.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gosuda/reviewd/internal/domain"
)

// Client is a minimal GitHub v3 API client covering branch resolution,
// recursive tree listing and raw blob retrieval. Base URLs are injectable so
// tests can point it at a local fake.
type Client struct {
	httpClient *http.Client
	token      string
	apiBase    string
	rawBase    string
}

func NewClient(token, apiBase, rawBase string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		apiBase:    apiBase,
		rawBase:    rawBase,
	}
}

// TreeEntry is one node of a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
}

type branchResponse struct {
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type treeResponse struct {
	Tree []TreeEntry `json:"tree"`
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	return c.httpClient.Do(req)
}

// BranchSHA resolves a branch name to its tip commit sha. Returns
// domain.ErrBranchNotFound when the API reports no such branch.
func (c *Client) BranchSHA(ctx context.Context, owner, repo, branch string) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/branches/%s", c.apiBase, owner, repo, url.PathEscape(branch))

	resp, err := c.get(ctx, u)
	if err != nil {
		return "", fmt.Errorf("github.Client.BranchSHA: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("github.Client.BranchSHA: %s/%s@%s: %w", owner, repo, branch, domain.ErrBranchNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github.Client.BranchSHA: unexpected status %d", resp.StatusCode)
	}

	var body branchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("github.Client.BranchSHA: decode: %w", err)
	}
	if body.Commit.SHA == "" {
		return "", fmt.Errorf("github.Client.BranchSHA: empty commit sha for %s/%s@%s", owner, repo, branch)
	}

	return body.Commit.SHA, nil
}

// Tree lists the full recursive tree at a commit sha.
func (c *Client) Tree(ctx context.Context, owner, repo, sha string) ([]TreeEntry, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.apiBase, owner, repo, sha)

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("github.Client.Tree: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github.Client.Tree: unexpected status %d", resp.StatusCode)
	}

	var body treeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("github.Client.Tree: decode: %w", err)
	}

	return body.Tree, nil
}

// RawContent fetches a blob's content at a commit sha. A non-success response
// returns ok=false with no error: one unreachable file must not fail a batch.
func (c *Client) RawContent(ctx context.Context, owner, repo, sha, path string) (string, bool, error) {
	u := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBase, owner, repo, sha, path)

	resp, err := c.get(ctx, u)
	if err != nil {
		return "", false, fmt.Errorf("github.Client.RawContent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("github.Client.RawContent: read: %w", err)
	}

	return string(data), true, nil
}
