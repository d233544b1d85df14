package git

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/cargo-release-tag/internal/model"
)

// Runner executes a git subcommand and returns its stdout output.
//
// The interface is deliberately narrow so tests can substitute a fake
// runner and assert on the exact command sequence without touching a
// real repository.
type Runner interface {
	Run(dir string, args ...string) (string, error)
}

// execRunner is the production Runner backed by the git binary.
type execRunner struct{}

// Run executes a git command with the given arguments in the specified
// directory.
//
// It captures stdout and stderr separately. On success (exit code 0) it
// returns the stdout output. On failure it returns a model.CLIError with
// ExitGitError, including the stderr output in the message for debugging.
//
// The dir parameter is passed to git via the -C flag, which causes git to
// change to that directory before doing anything else. This avoids
// changing the process's own working directory.
func (execRunner) Run(dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.Command("git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitGitError, message, err)
	}

	return stdout.String(), nil
}

// Client provides the Git operations needed by the tagging workflow,
// scoped to a single repository directory.
type Client struct {
	runner Runner
	dir    string
}

// NewClient creates a Client that invokes the real git binary in dir.
func NewClient(dir string) *Client {
	return &Client{runner: execRunner{}, dir: dir}
}

// NewClientWithRunner creates a Client backed by a custom Runner.
// Used by tests to substitute a fake command runner.
func NewClientWithRunner(dir string, r Runner) *Client {
	return &Client{runner: r, dir: dir}
}

// RepoRoot returns the absolute path to the top-level directory of the
// repository containing the client's directory.
//
// Uses `git rev-parse --show-toplevel`, which works for both the main
// working directory and worktrees.
func (c *Client) RepoRoot() (string, error) {
	out, err := c.runner.Run(c.dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ConfigureIdentity sets user.name and user.email at the repository
// level. The tagging workflow uses a fixed bot identity so annotated
// tags are attributable to automation regardless of the invoking user.
func (c *Client) ConfigureIdentity(name, email string) error {
	if _, err := c.runner.Run(c.dir, "config", "user.name", name); err != nil {
		return err
	}
	_, err := c.runner.Run(c.dir, "config", "user.email", email)
	return err
}

// CreateAnnotatedTag creates an annotated tag with the given message at
// the current HEAD. This mutates local repository state only; no network
// I/O happens here.
func (c *Client) CreateAnnotatedTag(name, message string) error {
	_, err := c.runner.Run(c.dir, "tag", "-a", name, "-m", message)
	return err
}

// FetchTags fetches tags from the origin remote so that the local tag
// list reflects the remote's tag namespace.
//
// Callers performing a best-effort sync (the tokenless existence check)
// are expected to tolerate an error here: an already-synced clone will
// still have the tag locally.
func (c *Client) FetchTags() error {
	_, err := c.runner.Run(c.dir, "fetch", "--tags", "--quiet", "origin")
	return err
}

// TagExists reports whether a local tag with exactly the given name
// exists, using `git tag --list <name>`.
//
// The pattern given to --list could match multiple tags if it contained
// glob characters, so the output lines are compared for an exact match
// rather than checking for non-empty output.
func (c *Client) TagExists(name string) (bool, error) {
	out, err := c.runner.Run(c.dir, "tag", "--list", name)
	if err != nil {
		return false, err
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// PushTag pushes a single tag reference to the origin remote.
//
// A push rejection (for example the tag appearing upstream between the
// existence check and the push) surfaces as a fatal git error; it is not
// retried or reconciled.
func (c *Client) PushTag(name string) error {
	_, err := c.runner.Run(c.dir, "push", "origin", name)
	return err
}

// RemoteOriginURL returns the URL of the origin remote.
// Used to derive the owner/repository pair for remote API lookups.
func (c *Client) RemoteOriginURL() (string, error) {
	out, err := c.runner.Run(c.dir, "remote", "get-url", "origin")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
