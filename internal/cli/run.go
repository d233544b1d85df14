// Package cli — run.go orchestrates the tagging workflow for the root
// command.
//
// Orchestration steps:
//  1. Locate the repository root
//  2. Resolve the run configuration (defaults, YAML file, flags, token)
//  3. Select the existence checker (remote API vs. local tag list)
//  4. Run the workflow (read version, check, create, push)
//  5. Emit outputs, the optional step summary, and the result
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/cargo-release-tag/internal/config"
	"github.com/mmr-tortoise/cargo-release-tag/internal/git"
	"github.com/mmr-tortoise/cargo-release-tag/internal/github"
	"github.com/mmr-tortoise/cargo-release-tag/internal/model"
	"github.com/mmr-tortoise/cargo-release-tag/internal/output"
	"github.com/mmr-tortoise/cargo-release-tag/internal/release"
)

// runRelease is the main orchestration function for the root command.
func runRelease(cmd *cobra.Command, flags *releaseFlags) error {
	// Step 1: Locate the repository root. All git operations and
	// relative paths are anchored there.
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	repoRoot, err := git.NewClient(cwd).RepoRoot()
	if err != nil {
		return model.WrapCLIError(model.ExitGitError, "not inside a Git repository", err)
	}
	VerboseLog("Repository root: %s", repoRoot)

	// Step 2: Resolve the run configuration.
	cfg, err := resolveConfig(cmd, flags, repoRoot)
	if err != nil {
		return err
	}
	VerboseLog("Manifest path: %s", cfg.CargoPath)
	if cfg.DryRun {
		VerboseLog("Dry run: no tag will be created or pushed")
	}

	gitClient := git.NewClient(repoRoot)

	// Step 3: Select the existence checker. A token selects the
	// authoritative remote API; otherwise the local tag list is used.
	checker, err := selectChecker(cfg, gitClient)
	if err != nil {
		return err
	}

	// Step 4: Run the workflow.
	wf := &release.Workflow{
		Config:  cfg,
		Git:     gitClient,
		Checker: checker,
		Logf:    VerboseLog,
	}
	res, err := wf.Run(cmd.Context())
	if err != nil {
		return err
	}

	// Step 5: Emit outputs and the result. Outputs are written on every
	// non-error path; only the tag-created value differs.
	wroteFile, err := output.WriteGitHubOutputs(res)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to write outputs", err)
	}
	if wroteFile {
		VerboseLog("Outputs written to GITHUB_OUTPUT")
	}

	if res.TagCreated() {
		// The summary is best-effort; a write failure must not fail a
		// run whose tag was already created and pushed.
		if summaryErr := output.WriteStepSummary(res); summaryErr != nil {
			VerboseLog("Failed to write step summary: %v", summaryErr)
		}
	}

	printResult(res, wroteFile)
	return nil
}

// resolveConfig builds the immutable RunConfig from built-in defaults,
// the optional YAML defaults file, explicit flags, and the environment.
func resolveConfig(cmd *cobra.Command, flags *releaseFlags, repoRoot string) (*config.RunConfig, error) {
	cfg := &config.RunConfig{
		CargoPath: flags.cargoPath,
		TagPrefix: flags.tagPrefix,
		Message:   flags.message,
		Push:      flags.push,
		DryRun:    flags.dryRun,
		Token:     config.ResolveToken(flags.token),
		Repo:      flags.repo,
	}

	defaults, err := config.LoadFileDefaults(repoRoot)
	if err != nil {
		return nil, err
	}
	defaults.Apply(cfg, cmd.Flags().Changed)

	// Anchor a relative manifest path at the repository root, so the
	// tool behaves the same from any subdirectory.
	if !filepath.IsAbs(cfg.CargoPath) {
		cfg.CargoPath = filepath.Join(repoRoot, cfg.CargoPath)
	}

	return cfg, nil
}

// selectChecker picks the existence-check implementation: the remote
// reference API when a token is present, the local tag list otherwise.
func selectChecker(cfg *config.RunConfig, gitClient *git.Client) (release.ExistenceChecker, error) {
	if cfg.Token == "" {
		VerboseLog("No token: using local tag list for the existence check")
		return release.NewLocalChecker(gitClient, VerboseLog), nil
	}

	owner, repo, err := resolveRepo(cfg, gitClient)
	if err != nil {
		return nil, err
	}
	VerboseLog("Using GitHub reference API for %s/%s", owner, repo)
	return release.NewAPIChecker(github.NewClient(cfg.Token), owner, repo), nil
}

// resolveRepo determines the owner/name pair for API lookups, either
// from the --repo override or from the origin remote URL. With a token
// present, failure to determine the repository is fatal — falling back
// silently would downgrade the check to the less accurate local path.
func resolveRepo(cfg *config.RunConfig, gitClient *git.Client) (string, string, error) {
	if cfg.Repo != "" {
		owner, repo, ok := strings.Cut(cfg.Repo, "/")
		if !ok || owner == "" || repo == "" {
			return "", "", model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid --repo value %q: expected owner/name", cfg.Repo))
		}
		return owner, repo, nil
	}

	remoteURL, err := gitClient.RemoteOriginURL()
	if err != nil {
		return "", "", model.WrapCLIError(model.ExitRemoteError,
			"failed to determine repository from the origin remote (set --repo)", err)
	}

	owner, repo, err := github.ParseRepo(remoteURL)
	if err != nil {
		return "", "", model.WrapCLIError(model.ExitRemoteError,
			"failed to determine repository from the origin remote (set --repo)", err)
	}
	return owner, repo, nil
}

// printResult outputs the run result in text or JSON format.
func printResult(res *model.Result, wroteFile bool) {
	if IsJSONOutput() {
		printResultJSON(res)
	} else {
		printResultText(res, wroteFile)
	}
}

// printResultJSON outputs the result as structured JSON.
func printResultJSON(res *model.Result) {
	type resultJSON struct {
		Version    string `json:"version"`
		TagName    string `json:"tagName"`
		TagCreated bool   `json:"tagCreated"`
		Pushed     bool   `json:"pushed"`
		Decision   string `json:"decision"`
	}

	data, _ := json.MarshalIndent(resultJSON{
		Version:    res.Version,
		TagName:    res.TagName,
		TagCreated: res.TagCreated(),
		Pushed:     res.Decision.Pushed(),
		Decision:   res.Decision.String(),
	}, "", "  ")
	fmt.Println(string(data))
}

// printResultText outputs the result as human-readable text. When the
// outputs were not written to GITHUB_OUTPUT, the name=value pairs are
// appended so downstream consumers can still scrape them.
func printResultText(res *model.Result, wroteFile bool) {
	switch res.Decision {
	case model.DecisionAlreadyExists:
		fmt.Printf("Tag %s already exists, nothing to do\n", res.TagName)
	case model.DecisionWouldCreate:
		fmt.Printf("Dry run: tag %s would be created for version %s\n", res.TagName, res.Version)
	case model.DecisionCreated:
		fmt.Printf("Created tag %s for version %s (push disabled)\n", res.TagName, res.Version)
	case model.DecisionCreatedAndPushed:
		fmt.Printf("Created tag %s for version %s and pushed to origin\n", res.TagName, res.Version)
	}

	if !wroteFile {
		fmt.Println()
		_ = output.WritePairs(os.Stdout, res)
	}
}
