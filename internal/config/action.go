package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ActionEnv holds the environment a CI review run requires. All fields are
// mandatory; Load fails fast before any pipeline work starts.
type ActionEnv struct {
	Token      string
	Owner      string
	Repo       string
	Repository string // "owner/repo" as provided
	PRNumber   int
}

// LoadActionEnv reads and validates the GitHub Actions environment.
// PR_NUMBER may be omitted when the number is passed as a CLI argument;
// pass it via argNumber in that case (zero means "must come from env").
func LoadActionEnv(argNumber int) (ActionEnv, error) {
	var e ActionEnv

	e.Token = os.Getenv("GITHUB_TOKEN")
	if e.Token == "" {
		return ActionEnv{}, fmt.Errorf("GITHUB_TOKEN is not set")
	}

	e.Repository = os.Getenv("GITHUB_REPOSITORY")
	if e.Repository == "" {
		return ActionEnv{}, fmt.Errorf("GITHUB_REPOSITORY is not set")
	}
	owner, repo, ok := strings.Cut(e.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return ActionEnv{}, fmt.Errorf("GITHUB_REPOSITORY must be owner/repo, got %q", e.Repository)
	}
	e.Owner, e.Repo = owner, repo

	e.PRNumber = argNumber
	if e.PRNumber == 0 {
		raw := os.Getenv("PR_NUMBER")
		if raw == "" {
			return ActionEnv{}, fmt.Errorf("PR_NUMBER is not set and no PR number argument given")
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return ActionEnv{}, fmt.Errorf("PR_NUMBER must be a positive integer, got %q", raw)
		}
		e.PRNumber = n
	}

	return e, nil
}
