package gitctx

import "testing"

func TestSplitRange(t *testing.T) {
	tests := []struct {
		in   string
		base string
		head string
	}{
		{"main..feature", "main", "feature"},
		{"main...feature", "main", "feature"},
		{"origin/main..HEAD", "origin/main", "HEAD"},
		{"abc123..", "abc123", "HEAD"},
		{"HEAD", "HEAD~1", "HEAD"},
		{"v1.2.3", "v1.2.3~1", "v1.2.3"},
	}
	for _, tt := range tests {
		base, head := splitRange(tt.in)
		if base != tt.base || head != tt.head {
			t.Errorf("splitRange(%q) = (%q, %q), want (%q, %q)", tt.in, base, head, tt.base, tt.head)
		}
	}
}

func TestBuildDiffText(t *testing.T) {
	files := []FileDiff{
		{Path: "a.go", Status: "modified", Patch: "@@ -1 +1 @@\n-old\n+new"},
		{Path: "img.png", Status: "added"},
		{Path: "b.go", Status: "added", Patch: "@@ -0,0 +1 @@\n+hello"},
	}
	got := BuildDiffText(files)
	want := "=== a.go (modified) ===\n@@ -1 +1 @@\n-old\n+new\n\n" +
		"=== b.go (added) ===\n@@ -0,0 +1 @@\n+hello\n"
	if got != want {
		t.Errorf("BuildDiffText =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildDiffText_Empty(t *testing.T) {
	if got := BuildDiffText(nil); got != "" {
		t.Errorf("BuildDiffText(nil) = %q, want empty", got)
	}
}

func TestCountChanges(t *testing.T) {
	patch := `--- a/x.go
+++ b/x.go
@@ -1,3 +1,4 @@
 unchanged
-removed one
-removed two
+added one
+added two
+added three`
	adds, dels := countChanges(patch)
	if adds != 3 || dels != 2 {
		t.Errorf("countChanges = (+%d, -%d), want (+3, -2)", adds, dels)
	}
}

func TestIncludePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		opts DiffOptions
		want bool
	}{
		{"no filters", "src/main.go", DiffOptions{}, true},
		{"include match", "src/main.go", DiffOptions{Include: []string{"**/*.go"}}, true},
		{"include miss", "readme.md", DiffOptions{Include: []string{"**/*.go"}}, false},
		{"exclude match", "vendor/dep/x.go", DiffOptions{Exclude: []string{"vendor/**"}}, false},
		{"exclude beats include", "vendor/x.go", DiffOptions{Include: []string{"**/*.go"}, Exclude: []string{"vendor/**"}}, false},
		{"nested doublestar", "a/b/c/d.py", DiffOptions{Include: []string{"**/*.py"}}, true},
		{"top-level with doublestar", "main.go", DiffOptions{Include: []string{"**/*.go"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := includePath(tt.path, tt.opts); got != tt.want {
				t.Errorf("includePath(%q, %+v) = %v, want %v", tt.path, tt.opts, got, tt.want)
			}
		})
	}
}

func TestFileNames(t *testing.T) {
	r := DiffResult{Files: []FileDiff{{Path: "a.go"}, {Path: "b.go"}}}
	names := r.FileNames()
	if len(names) != 2 || names[0] != "a.go" || names[1] != "b.go" {
		t.Errorf("FileNames = %v", names)
	}
}
