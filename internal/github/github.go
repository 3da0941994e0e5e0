package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/gavel/internal/review"
)

const defaultAPIURL = "https://api.github.com"

// StatusContext is the commit status context gavel reports under.
const StatusContext = "Gavel Review"

// statusDescriptionLimit is GitHub's cap on status descriptions.
const statusDescriptionLimit = 140

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a new GitHub client. Requires GITHUB_TOKEN env var.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Client{
		token:   strings.TrimSpace(token),
		apiURL:  strings.TrimRight(apiURL, "/"),
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// pullResponse is the subset of the PR endpoint the pipeline needs.
type pullResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
	Head struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"head"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	HTMLURL   string `json:"html_url"`
}

// ChangedFile is one file in a pull request diff. Patch is empty for files
// GitHub serves no patch for (binaries).
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// PRData bundles everything the pipeline consumes about one pull request.
type PRData struct {
	Context review.PRContext
	Files   []ChangedFile
	Diff    string
	HeadSHA string
}

// FetchPR retrieves PR metadata and the changed-file list concurrently and
// assembles the combined diff text.
func (c *Client) FetchPR(ctx context.Context, owner, repo string, number int) (PRData, error) {
	var (
		pull  pullResponse
		files []ChangedFile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.apiURL, owner, repo, number)
		if err := c.getJSON(gctx, url, &pull); err != nil {
			return fmt.Errorf("fetching PR #%d: %w", number, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		files, err = c.changedFiles(gctx, owner, repo, number)
		if err != nil {
			return fmt.Errorf("fetching PR files: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return PRData{}, err
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}

	return PRData{
		Context: review.PRContext{
			Number:       pull.Number,
			Title:        pull.Title,
			Description:  pull.Body,
			Author:       pull.User.Login,
			BaseBranch:   pull.Base.Ref,
			HeadBranch:   pull.Head.Ref,
			FilesChanged: names,
			Additions:    pull.Additions,
			Deletions:    pull.Deletions,
			URL:          pull.HTMLURL,
		},
		Files:   files,
		Diff:    BuildDiffText(files),
		HeadSHA: pull.Head.SHA,
	}, nil
}

func (c *Client) changedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	var all []ChangedFile
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=100&page=%d",
			c.apiURL, owner, repo, number, page)
		var batch []ChangedFile
		if err := c.getJSON(ctx, url, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < 100 {
			return all, nil
		}
	}
}

// BuildDiffText concatenates per-file patches into the pipeline's diff
// format: each patch preceded by a "=== <filename> (<status>) ===" header,
// joined with blank lines. Files without a patch are omitted entirely.
func BuildDiffText(files []ChangedFile) string {
	var parts []string
	for _, f := range files {
		if f.Patch == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("=== %s (%s) ===", f.Filename, f.Status))
		parts = append(parts, f.Patch)
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

// SetStatus sets the commit status for a SHA. state must be one of pending,
// success, failure, or error. The description is truncated to GitHub's
// 140-character limit.
func (c *Client) SetStatus(ctx context.Context, owner, repo, sha, state, description, targetURL string) error {
	if len(description) > statusDescriptionLimit {
		description = description[:statusDescriptionLimit]
	}
	body := map[string]string{
		"state":       state,
		"description": description,
		"context":     StatusContext,
	}
	if targetURL != "" {
		body["target_url"] = targetURL
	}

	url := fmt.Sprintf("%s/repos/%s/%s/statuses/%s", c.apiURL, owner, repo, sha)
	if err := c.send(ctx, "POST", url, body, nil); err != nil {
		return fmt.Errorf("setting commit status: %w", err)
	}
	return nil
}

type issueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// UpsertComment posts the review comment on a PR, updating the existing
// gavel comment when one is found (matched by the report heading prefix).
func (c *Client) UpsertComment(ctx context.Context, owner, repo string, number int, body string) error {
	existing, err := c.findReviewComment(ctx, owner, repo, number)
	if err != nil {
		return err
	}

	payload := map[string]string{"body": body}
	if existing != 0 {
		url := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", c.apiURL, owner, repo, existing)
		if err := c.send(ctx, "PATCH", url, payload, nil); err != nil {
			return fmt.Errorf("updating comment %d: %w", existing, err)
		}
		return nil
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.apiURL, owner, repo, number)
	if err := c.send(ctx, "POST", url, payload, nil); err != nil {
		return fmt.Errorf("posting comment: %w", err)
	}
	return nil
}

func (c *Client) findReviewComment(ctx context.Context, owner, repo string, number int) (int64, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments?per_page=100", c.apiURL, owner, repo, number)
	var comments []issueComment
	if err := c.getJSON(ctx, url, &comments); err != nil {
		return 0, fmt.Errorf("listing comments: %w", err)
	}
	for _, comment := range comments {
		if strings.HasPrefix(comment.Body, review.ReportHeading()) {
			return comment.ID, nil
		}
	}
	return 0, nil
}

// WorkflowRunURL returns the current GitHub Actions run URL, or "" when not
// running inside an action.
func WorkflowRunURL(repository string) string {
	runID := os.Getenv("GITHUB_RUN_ID")
	if runID == "" || repository == "" {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/actions/runs/%s", repository, runID)
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	return c.send(ctx, "GET", url, nil, out)
}

func (c *Client) send(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == 404 {
		return fmt.Errorf("not found: %s", url)
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return fmt.Errorf("authentication failed: %s", string(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
