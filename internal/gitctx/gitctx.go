package gitctx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// DiffOptions controls local diff collection.
type DiffOptions struct {
	Include []string
	Exclude []string
}

// FileDiff is one changed file in a local range.
type FileDiff struct {
	Path      string
	Status    string // added, removed, modified, renamed
	Additions int
	Deletions int
	Patch     string
}

// DiffResult holds the collected diff and metadata for a local range.
type DiffResult struct {
	Diff      string
	Files     []FileDiff
	Range     string
	Additions int
	Deletions int
	Repo      RepoMeta
}

// FileNames returns the changed file paths in diff order.
func (r DiffResult) FileNames() []string {
	names := make([]string, len(r.Files))
	for i, f := range r.Files {
		names[i] = f.Path
	}
	return names
}

// RepoMeta contains repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// Range collects the diff for a revision range ("base..head"; a single
// revision is compared against its first parent) and assembles it into the
// pipeline's per-file diff format.
func Range(revRange string, opts DiffOptions) (DiffResult, error) {
	repo, err := openRepo()
	if err != nil {
		return DiffResult{}, err
	}

	baseRev, headRev := splitRange(revRange)

	baseCommit, err := resolveCommit(repo, baseRev)
	if err != nil {
		return DiffResult{}, err
	}
	headCommit, err := resolveCommit(repo, headRev)
	if err != nil {
		return DiffResult{}, err
	}

	files, err := diffCommits(baseCommit, headCommit, opts)
	if err != nil {
		return DiffResult{}, err
	}

	meta, err := repoMeta(repo)
	if err != nil {
		meta = RepoMeta{}
	}

	result := DiffResult{
		Files: files,
		Range: revRange,
		Repo:  meta,
	}
	for _, f := range files {
		result.Additions += f.Additions
		result.Deletions += f.Deletions
	}
	result.Diff = BuildDiffText(files)
	return result, nil
}

// BuildDiffText concatenates per-file patches with the
// "=== <path> (<status>) ===" headers the pipeline expects. Files without a
// patch (binaries) are omitted.
func BuildDiffText(files []FileDiff) string {
	var parts []string
	for _, f := range files {
		if f.Patch == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("=== %s (%s) ===", f.Path, f.Status))
		parts = append(parts, f.Patch)
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

func openRepo() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	return repo, nil
}

// splitRange parses "base..head" (or "base...head"). A bare revision is
// compared against its first parent.
func splitRange(revRange string) (string, string) {
	if i := strings.Index(revRange, ".."); i >= 0 {
		base := revRange[:i]
		head := strings.TrimLeft(revRange[i:], ".")
		if head == "" {
			head = "HEAD"
		}
		return base, head
	}
	return revRange + "~1", revRange
}

func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", hash, err)
	}
	return commit, nil
}

func diffCommits(base, head *object.Commit, opts DiffOptions) ([]FileDiff, error) {
	baseTree, err := base.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading base tree: %w", err)
	}
	headTree, err := head.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading head tree: %w", err)
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("diffing trees: %w", err)
	}

	var files []FileDiff
	for _, change := range changes {
		path, status, err := changeStatus(change)
		if err != nil {
			return nil, err
		}
		if !includePath(path, opts) {
			continue
		}

		patch, err := change.Patch()
		if err != nil {
			return nil, fmt.Errorf("building patch for %s: %w", path, err)
		}

		fd := FileDiff{Path: path, Status: status}
		if !patchIsBinary(patch) {
			fd.Patch = strings.TrimRight(patch.String(), "\n")
			fd.Additions, fd.Deletions = countChanges(fd.Patch)
		}
		files = append(files, fd)
	}

	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func changeStatus(change *object.Change) (string, string, error) {
	action, err := change.Action()
	if err != nil {
		return "", "", fmt.Errorf("reading change action: %w", err)
	}
	switch action {
	case merkletrie.Insert:
		return change.To.Name, "added", nil
	case merkletrie.Delete:
		return change.From.Name, "removed", nil
	default:
		if change.From.Name != change.To.Name {
			return change.To.Name, "renamed", nil
		}
		return change.To.Name, "modified", nil
	}
}

func patchIsBinary(patch *object.Patch) bool {
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			return true
		}
	}
	return false
}

func countChanges(patch string) (additions, deletions int) {
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}

func includePath(path string, opts DiffOptions) bool {
	if len(opts.Include) > 0 && !matchesAny(path, opts.Include) {
		return false
	}
	return !matchesAny(path, opts.Exclude)
}

func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

func repoMeta(repo *git.Repository) (RepoMeta, error) {
	var meta RepoMeta

	if wt, err := repo.Worktree(); err == nil {
		meta.Root = wt.Filesystem.Root()
	}

	head, err := repo.Head()
	if err != nil {
		return meta, fmt.Errorf("reading HEAD: %w", err)
	}
	meta.Head = head.Hash().String()
	if head.Name().IsBranch() {
		meta.Branch = head.Name().Short()
	}
	return meta, nil
}
