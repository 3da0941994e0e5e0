package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/gavel/internal/cache"
	"github.com/dshills/gavel/internal/config"
	"github.com/dshills/gavel/internal/gitctx"
	"github.com/dshills/gavel/internal/github"
	"github.com/dshills/gavel/internal/langdetect"
	"github.com/dshills/gavel/internal/logging"
	"github.com/dshills/gavel/internal/output"
	"github.com/dshills/gavel/internal/providers"
	"github.com/dshills/gavel/internal/redact"
	"github.com/dshills/gavel/internal/review"
)

// Shared review flags
var (
	flagProvider     string
	flagModel        string
	flagFormat       string
	flagOut          string
	flagFailOn       string
	flagPaths        string
	flagExclude      string
	flagMaxDiffBytes int
	flagCriteria     string
	flagRules        string
	flagNoRedact     bool
	flagNoCache      bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (openai, anthropic)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, suggestion, non_blocking, blocking)")
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	cmd.Flags().StringVar(&flagCriteria, "criteria", "", "Criteria pack YAML file path")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
}

func buildOverrides() map[string]interface{} {
	m := make(map[string]interface{})
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["fail_on"] = flagFailOn
	}
	if flagMaxDiffBytes > 0 {
		m["max_diff_bytes"] = flagMaxDiffBytes
	}
	if flagCriteria != "" {
		m["criteria_file"] = flagCriteria
	}
	if flagRules != "" {
		m["rules_file"] = flagRules
	}
	if flagNoRedact {
		m["privacy.redact_secrets"] = false
	}
	if flagNoCache {
		m["cache.enabled"] = false
	}
	return m
}

func splitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run an AI review",
	Long:  "Run the staged review pipeline over a pull request, a local revision range, or a diff on stdin.",
}

// runner bundles everything a review run needs once config is resolved.
type runner struct {
	cfg      config.Config
	pipeline *review.Pipeline
	store    *cache.Store
}

func newRunner(cfg config.Config) (*runner, error) {
	client, err := providers.New(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(cfg.Cache.Enabled, cfg.Cache.Path, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	var opts review.Options
	if cfg.CriteriaFile != "" {
		criteria, err := review.LoadCriteria(cfg.CriteriaFile)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("loading criteria: %w", err)
		}
		opts.Criteria = criteria
	}
	if cfg.RulesFile != "" {
		rules, err := review.LoadRules(cfg.RulesFile)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("loading rules: %w", err)
		}
		opts.Rules = rules
	}

	return &runner{
		cfg:      cfg,
		pipeline: review.NewPipeline(newGenerator(client, store), opts),
		store:    store,
	}, nil
}

func (r *runner) Close() {
	r.store.Close()
}

// prepareDiff applies the privacy and size policies to a raw diff.
func (r *runner) prepareDiff(diff string) string {
	if r.cfg.Privacy.RedactSecrets {
		diff = redact.Diff(diff, r.cfg.Privacy.RedactPaths)
	}
	if r.cfg.MaxDiffBytes > 0 && len(diff) > r.cfg.MaxDiffBytes {
		diff = diff[:r.cfg.MaxDiffBytes]
	}
	return diff
}

// run executes the pipeline over a prepared state.
func (r *runner) run(ctx context.Context, state review.PipelineState) (review.PipelineState, error) {
	state.Diff = r.prepareDiff(state.Diff)
	return r.pipeline.Run(ctx, state)
}

// reportExit routes a review error to the right exit code and message.
func reportExit(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if providers.IsAuthError(err) {
		exitCode = ExitAuthError
		return
	}
	exitCode = ExitRuntimeError
}

// writeAndGate writes the report and applies the fail-on threshold for
// local runs.
func writeAndGate(state review.PipelineState, cfg config.Config) {
	report := review.BuildReport(state)
	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if cfg.FailOn != "none" && cfg.FailOn != "" {
		for _, f := range report.Findings {
			if review.MeetsThreshold(f.Severity, cfg.FailOn) {
				exitCode = ExitFindings
				return
			}
		}
	}
}

var reviewPRCmd = &cobra.Command{
	Use:   "pr [number]",
	Short: "Review a GitHub pull request",
	Long: "Fetch a PR from GitHub, run the review pipeline, post the report as a PR comment, " +
		"and set a commit status. Requires GITHUB_TOKEN and GITHUB_REPOSITORY; the PR number " +
		"comes from the argument or PR_NUMBER.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		argNumber := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
				exitCode = ExitUsageError
				return nil
			}
			argNumber = n
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		env, err := config.LoadActionEnv(argNumber)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		runPRReview(cfg, env)
		return nil
	},
}

func runPRReview(cfg config.Config, env config.ActionEnv) {
	ctx := context.Background()

	gh, err := github.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitAuthError
		return
	}

	r, err := newRunner(cfg)
	if err != nil {
		reportExit(err)
		return
	}
	defer r.Close()

	pr, err := gh.FetchPR(ctx, env.Owner, env.Repo, env.PRNumber)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching PR: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	setStatus := func(state, description string) {
		if err := gh.SetStatus(ctx, env.Owner, env.Repo, pr.HeadSHA, state, description, github.WorkflowRunURL(env.Repository)); err != nil {
			logging.Log.Warnw("setting commit status failed", "state", state, "error", err)
		}
	}
	setStatus("pending", "AI review in progress...")

	state := review.PipelineState{
		Diff:      pr.Diff,
		PR:        pr.Context,
		Languages: langdetect.Detect(pr.Context.FilesChanged),
	}

	final, err := r.run(ctx, state)
	if err != nil {
		msg := err.Error()
		if len(msg) > 100 {
			msg = msg[:100]
		}
		setStatus("error", "AI review error: "+msg)
		reportExit(err)
		return
	}

	body := review.RenderMarkdown(review.BuildReport(final), github.WorkflowRunURL(env.Repository))
	if err := gh.UpsertComment(ctx, env.Owner, env.Repo, env.PRNumber, body); err != nil {
		setStatus("error", "AI review error: posting comment failed")
		fmt.Fprintf(os.Stderr, "Error posting comment: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	counts := review.CountBySeverity(final.Findings)
	if final.Decision == review.DecisionFail {
		setStatus("failure", fmt.Sprintf("AI review failed - %d blocking issue(s)", counts.Blocking))
	} else {
		setStatus("success", "AI review passed - no blocking issues found")
	}

	// A completed review exits 0 on both verdicts; merge gating is the
	// commit status' job, not the process exit code.
	fmt.Fprintln(os.Stderr, review.DecisionSummary(final))
}

var reviewLocalCmd = &cobra.Command{
	Use:   "local <revRange>",
	Short: "Review a local revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		opts := gitctx.DiffOptions{Include: cfg.Include, Exclude: cfg.Exclude}
		if flagPaths != "" {
			opts.Include = splitComma(flagPaths)
		}
		if flagExclude != "" {
			opts.Exclude = append(opts.Exclude, splitComma(flagExclude)...)
		}

		diff, err := gitctx.Range(args[0], opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if diff.Diff == "" {
			fmt.Fprintln(os.Stdout, "No changes in range; nothing to review.")
			return nil
		}

		r, err := newRunner(cfg)
		if err != nil {
			reportExit(err)
			return nil
		}
		defer r.Close()

		files := diff.FileNames()
		state := review.PipelineState{
			Diff:      diff.Diff,
			Languages: langdetect.Detect(files),
			PR: review.PRContext{
				Title:        "Local review: " + args[0],
				BaseBranch:   diff.Range,
				HeadBranch:   diff.Repo.Branch,
				FilesChanged: files,
				Additions:    diff.Additions,
				Deletions:    diff.Deletions,
			},
		}

		final, err := r.run(context.Background(), state)
		if err != nil {
			reportExit(err)
			return nil
		}

		writeAndGate(final, cfg)
		return nil
	},
}

var reviewDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Review a unified diff from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		diff := string(data)
		if strings.TrimSpace(diff) == "" {
			fmt.Fprintln(os.Stdout, "Empty diff; nothing to review.")
			return nil
		}

		r, err := newRunner(cfg)
		if err != nil {
			reportExit(err)
			return nil
		}
		defer r.Close()

		files := diffFilenames(diff)
		state := review.PipelineState{
			Diff:      diff,
			Languages: langdetect.Detect(files),
			PR: review.PRContext{
				Title:        "Diff from stdin",
				FilesChanged: files,
			},
		}

		final, err := r.run(context.Background(), state)
		if err != nil {
			reportExit(err)
			return nil
		}

		writeAndGate(final, cfg)
		return nil
	},
}

// diffFilenames extracts filenames from "=== name (status) ===" section
// headers, falling back to unified "+++ b/name" lines.
func diffFilenames(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			files = append(files, name)
		}
	}
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "=== ") && strings.HasSuffix(line, " ===") {
			inner := strings.TrimSuffix(strings.TrimPrefix(line, "=== "), " ===")
			if i := strings.LastIndex(inner, " ("); i > 0 {
				inner = inner[:i]
			}
			add(inner)
			continue
		}
		if name, ok := strings.CutPrefix(line, "+++ b/"); ok {
			add(strings.TrimSpace(name))
		}
	}
	return files
}

func init() {
	reviewCmd.AddCommand(reviewPRCmd)
	reviewCmd.AddCommand(reviewLocalCmd)
	reviewCmd.AddCommand(reviewDiffCmd)

	for _, cmd := range []*cobra.Command{reviewPRCmd, reviewLocalCmd, reviewDiffCmd} {
		addReviewFlags(cmd)
	}
}
