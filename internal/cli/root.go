// Package cli implements the cobra-based command-line interface for
// cargo-release-tag.
//
// The tool is a single linear workflow, so the root command itself runs
// it — there are no subcommands beyond cobra's built-ins. This file
// defines the root command, global flags, and error/exit-code handling;
// run.go holds the workflow orchestration.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/cargo-release-tag/internal/config"
	"github.com/mmr-tortoise/cargo-release-tag/internal/model"
)

// Global flag variables bound to persistent flags on the root command.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When false (default), output uses human-readable text format.
	jsonOutput bool

	// verbose enables detailed logging output for debugging.
	// When true, per-step information is printed to stderr.
	verbose bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// releaseFlags holds the flag values for the root command.
type releaseFlags struct {
	cargoPath string // --cargo-path: manifest file path
	tagPrefix string // --tag-prefix: literal prefix for the tag name
	message   string // --commit-message: annotation template with {version}
	push      bool   // --push: push a newly created tag to origin
	dryRun    bool   // --dry-run: suppress all mutating actions
	token     string // --token: access credential (GITHUB_TOKEN wins)
	repo      string // --repo: owner/name override for API lookups
}

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
func NewRootCommand() *cobra.Command {
	flags := &releaseFlags{}

	rootCmd := &cobra.Command{
		Use:   "cargo-release-tag",
		Short: "Create a release tag from the version in Cargo.toml",
		Long: `cargo-release-tag reads package.version from a Cargo.toml manifest,
computes a tag name from it, and creates and pushes an annotated tag
unless the tag already exists.

Existence is checked against the GitHub reference API when a token is
available (GITHUB_TOKEN or --token); otherwise the local tag list is
consulted after a best-effort tag fetch.

Examples:
  cargo-release-tag
  cargo-release-tag --dry-run
  cargo-release-tag --cargo-path crates/widget/Cargo.toml --tag-prefix widget-v
  cargo-release-tag --push=false --commit-message "Cut {version}"`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, flags)
		},
	}

	rootCmd.Flags().StringVar(&flags.cargoPath, "cargo-path", config.DefaultCargoPath,
		"Path to the Cargo.toml manifest (relative paths resolve against the repository root)")
	rootCmd.Flags().StringVar(&flags.tagPrefix, "tag-prefix", config.DefaultTagPrefix,
		"Literal prefix prepended to the version to form the tag name")
	rootCmd.Flags().StringVar(&flags.message, "commit-message", config.DefaultMessage,
		"Tag annotation message template; {version} is replaced with the manifest version")
	rootCmd.Flags().BoolVar(&flags.push, "push", true,
		"Push a newly created tag to the origin remote")
	rootCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false,
		"Report what would happen without creating or pushing anything")
	rootCmd.Flags().StringVar(&flags.token, "token", "",
		"GitHub access token for the remote existence check (GITHUB_TOKEN takes priority)")
	rootCmd.Flags().StringVar(&flags.repo, "repo", "",
		"GitHub repository as owner/name (default: derived from the origin remote)")

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		// Generic error — exit with code 1.
		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode: stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
