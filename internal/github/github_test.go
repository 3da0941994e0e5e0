package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("GITHUB_API_URL", server.URL)
	c, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestNewClient_RequiresToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error without GITHUB_TOKEN")
	}
}

func TestFetchPR(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Authorization = %q", auth)
		}
		fmt.Fprint(w, `{
			"number": 7,
			"title": "Add feature",
			"body": "Does things",
			"user": {"login": "octocat"},
			"base": {"ref": "main"},
			"head": {"ref": "feature", "sha": "abc123"},
			"additions": 10,
			"deletions": 2,
			"html_url": "https://github.com/octo/app/pull/7"
		}`)
	})
	mux.HandleFunc("/repos/octo/app/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"filename": "app.py", "status": "modified", "additions": 8, "deletions": 2, "patch": "@@ -1 +1 @@\n-a\n+b"},
			{"filename": "logo.png", "status": "added", "additions": 0, "deletions": 0}
		]`)
	})

	c := newTestClient(t, mux)
	pr, err := c.FetchPR(context.Background(), "octo", "app", 7)
	if err != nil {
		t.Fatalf("FetchPR error: %v", err)
	}

	if pr.Context.Number != 7 || pr.Context.Title != "Add feature" {
		t.Errorf("Context = %+v", pr.Context)
	}
	if pr.Context.Author != "octocat" {
		t.Errorf("Author = %q", pr.Context.Author)
	}
	if pr.Context.BaseBranch != "main" || pr.Context.HeadBranch != "feature" {
		t.Errorf("branches = %q..%q", pr.Context.BaseBranch, pr.Context.HeadBranch)
	}
	if pr.HeadSHA != "abc123" {
		t.Errorf("HeadSHA = %q", pr.HeadSHA)
	}
	if len(pr.Context.FilesChanged) != 2 {
		t.Errorf("FilesChanged = %v", pr.Context.FilesChanged)
	}
	if !strings.Contains(pr.Diff, "=== app.py (modified) ===") {
		t.Errorf("Diff = %q", pr.Diff)
	}
	// The binary file has no patch and must not appear in the diff text.
	if strings.Contains(pr.Diff, "logo.png") {
		t.Error("patch-less file should be omitted from the diff")
	}
}

func TestBuildDiffText(t *testing.T) {
	files := []ChangedFile{
		{Filename: "a.py", Status: "modified", Patch: "@@ -1 +1 @@\n-x\n+y"},
		{Filename: "bin.dat", Status: "added"},
		{Filename: "b.ts", Status: "added", Patch: "@@ -0,0 +1 @@\n+new"},
	}
	got := BuildDiffText(files)

	want := "=== a.py (modified) ===\n@@ -1 +1 @@\n-x\n+y\n\n=== b.ts (added) ===\n@@ -0,0 +1 @@\n+new\n"
	if got != want {
		t.Errorf("BuildDiffText = %q, want %q", got, want)
	}
}

func TestBuildDiffText_Empty(t *testing.T) {
	if got := BuildDiffText(nil); got != "" {
		t.Errorf("BuildDiffText(nil) = %q, want empty", got)
	}
}

func TestSetStatus(t *testing.T) {
	var got map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/statuses/abc123", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	c := newTestClient(t, mux)
	err := c.SetStatus(context.Background(), "octo", "app", "abc123",
		"success", "AI review passed - no blocking issues found", "https://example.com/run/1")
	if err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}

	if got["state"] != "success" {
		t.Errorf("state = %q", got["state"])
	}
	if got["context"] != StatusContext {
		t.Errorf("context = %q, want %q", got["context"], StatusContext)
	}
	if got["target_url"] != "https://example.com/run/1" {
		t.Errorf("target_url = %q", got["target_url"])
	}
}

func TestSetStatus_TruncatesDescription(t *testing.T) {
	var got map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/statuses/abc", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	c := newTestClient(t, mux)
	long := strings.Repeat("e", 200)
	if err := c.SetStatus(context.Background(), "octo", "app", "abc", "error", long, ""); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if len(got["description"]) != 140 {
		t.Errorf("description length = %d, want 140", len(got["description"]))
	}
	if _, ok := got["target_url"]; ok {
		t.Error("empty target_url should be omitted")
	}
}

func TestUpsertComment_CreatesWhenMissing(t *testing.T) {
	var posted map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			fmt.Fprint(w, `[{"id": 1, "body": "unrelated comment"}]`)
		case "POST":
			if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
				t.Fatal(err)
			}
			w.WriteHeader(http.StatusCreated)
		}
	})

	c := newTestClient(t, mux)
	body := "## Gavel Review\n\n**Verdict: PASS**"
	if err := c.UpsertComment(context.Background(), "octo", "app", 7, body); err != nil {
		t.Fatalf("UpsertComment error: %v", err)
	}
	if posted["body"] != body {
		t.Errorf("posted body = %q", posted["body"])
	}
}

func TestUpsertComment_UpdatesExisting(t *testing.T) {
	var patched map[string]string
	var patchedID string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/app/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			t.Error("should PATCH the existing comment, not POST a new one")
		}
		fmt.Fprint(w, `[
			{"id": 11, "body": "unrelated"},
			{"id": 22, "body": "## Gavel Review\n\nold verdict"}
		]`)
	})
	mux.HandleFunc("/repos/octo/app/issues/comments/22", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" {
			t.Errorf("method = %s", r.Method)
		}
		patchedID = "22"
		if err := json.NewDecoder(r.Body).Decode(&patched); err != nil {
			t.Fatal(err)
		}
	})

	c := newTestClient(t, mux)
	body := "## Gavel Review\n\n**Verdict: FAIL**"
	if err := c.UpsertComment(context.Background(), "octo", "app", 7, body); err != nil {
		t.Fatalf("UpsertComment error: %v", err)
	}
	if patchedID != "22" {
		t.Error("existing gavel comment was not updated")
	}
	if patched["body"] != body {
		t.Errorf("patched body = %q", patched["body"])
	}
}

func TestWorkflowRunURL(t *testing.T) {
	t.Setenv("GITHUB_RUN_ID", "12345")
	if got := WorkflowRunURL("octo/app"); got != "https://github.com/octo/app/actions/runs/12345" {
		t.Errorf("WorkflowRunURL = %q", got)
	}

	t.Setenv("GITHUB_RUN_ID", "")
	if got := WorkflowRunURL("octo/app"); got != "" {
		t.Errorf("WorkflowRunURL outside an action = %q, want empty", got)
	}
}

func TestFetchPR_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := newTestClient(t, mux)
	if _, err := c.FetchPR(context.Background(), "octo", "app", 99); err == nil {
		t.Error("expected error for missing PR")
	}
}
