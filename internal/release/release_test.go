package release

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/cargo-release-tag/internal/config"
	"github.com/mmr-tortoise/cargo-release-tag/internal/git"
	"github.com/mmr-tortoise/cargo-release-tag/internal/model"
)

// recordingRunner records git invocations and returns canned output,
// so workflow tests can assert which subprocesses ran without a
// real repository.
type recordingRunner struct {
	calls   []string
	outputs map[string]string
	errs    map[string]error
}

func (r *recordingRunner) Run(dir string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	r.calls = append(r.calls, key)
	if err, ok := r.errs[key]; ok {
		return "", err
	}
	return r.outputs[key], nil
}

// stubChecker is a canned ExistenceChecker.
type stubChecker struct {
	exists bool
	err    error
	calls  []string
}

func (s *stubChecker) TagExists(ctx context.Context, name string) (bool, error) {
	s.calls = append(s.calls, name)
	return s.exists, s.err
}

// writeCargoToml writes a minimal manifest with the given version into
// dir and returns its path.
func writeCargoToml(t *testing.T, dir, version string) string {
	t.Helper()

	path := filepath.Join(dir, "Cargo.toml")
	content := fmt.Sprintf("[package]\nname = \"widget\"\nversion = %q\nedition = \"2021\"\n", version)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// newWorkflow builds a Workflow over a fake runner and stub checker.
func newWorkflow(t *testing.T, cfg *config.RunConfig, runner *recordingRunner, checker *stubChecker) *Workflow {
	t.Helper()

	return &Workflow{
		Config:  cfg,
		Git:     git.NewClientWithRunner("/repo", runner),
		Checker: checker,
	}
}

// TestRunTagNameComputation verifies that the tag name is the plain
// concatenation of prefix and version, with no separator inserted.
func TestRunTagNameComputation(t *testing.T) {
	tests := []struct {
		prefix  string
		version string
		want    string
	}{
		{"v", "1.2.3", "v1.2.3"},
		{"", "1.2.3", "1.2.3"},
		{"release-", "0.4.0", "release-0.4.0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := &config.RunConfig{
				CargoPath: writeCargoToml(t, t.TempDir(), tt.version),
				TagPrefix: tt.prefix,
				Message:   config.DefaultMessage,
				DryRun:    true,
			}
			checker := &stubChecker{}
			wf := newWorkflow(t, cfg, &recordingRunner{}, checker)

			res, err := wf.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.TagName)
			assert.Equal(t, []string{tt.want}, checker.calls, "checker should be asked about the computed name")
		})
	}
}

// TestRunAlreadyExists verifies that an existing tag suppresses every
// mutating subprocess and reports tag-created = false.
func TestRunAlreadyExists(t *testing.T) {
	cfg := &config.RunConfig{
		CargoPath: writeCargoToml(t, t.TempDir(), "2.0.0"),
		TagPrefix: "v",
		Message:   config.DefaultMessage,
		Push:      true,
	}
	runner := &recordingRunner{}
	wf := newWorkflow(t, cfg, runner, &stubChecker{exists: true})

	res, err := wf.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionAlreadyExists, res.Decision)
	assert.Equal(t, "2.0.0", res.Version)
	assert.Equal(t, "v2.0.0", res.TagName)
	assert.False(t, res.TagCreated())
	assert.Empty(t, runner.calls, "no git subprocess may run when the tag exists")
}

// TestRunDryRun verifies that dry-run suppresses all mutation even when
// the tag is absent and push is enabled.
func TestRunDryRun(t *testing.T) {
	cfg := &config.RunConfig{
		CargoPath: writeCargoToml(t, t.TempDir(), "2.0.0"),
		TagPrefix: "v",
		Message:   config.DefaultMessage,
		Push:      true,
		DryRun:    true,
	}
	runner := &recordingRunner{}
	wf := newWorkflow(t, cfg, runner, &stubChecker{exists: false})

	res, err := wf.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionWouldCreate, res.Decision)
	assert.False(t, res.TagCreated())
	assert.Empty(t, runner.calls, "dry run must not invoke any git subprocess")
}

// TestRunCreateAndPush verifies the full creation sequence: identity
// configuration, annotated tag with the rendered message, then a push
// of that single tag.
func TestRunCreateAndPush(t *testing.T) {
	cfg := &config.RunConfig{
		CargoPath: writeCargoToml(t, t.TempDir(), "2.0.0"),
		TagPrefix: "v",
		Message:   "Release {version}",
		Push:      true,
	}
	runner := &recordingRunner{}
	wf := newWorkflow(t, cfg, runner, &stubChecker{exists: false})

	res, err := wf.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionCreatedAndPushed, res.Decision)
	assert.True(t, res.TagCreated())

	assert.Equal(t, []string{
		"config user.name " + BotName,
		"config user.email " + BotEmail,
		"tag -a v2.0.0 -m Release 2.0.0",
		"push origin v2.0.0",
	}, runner.calls)
}

// TestRunCreateWithoutPush verifies that push disabled still creates
// the tag but never invokes a push.
func TestRunCreateWithoutPush(t *testing.T) {
	cfg := &config.RunConfig{
		CargoPath: writeCargoToml(t, t.TempDir(), "2.0.0"),
		TagPrefix: "v",
		Message:   config.DefaultMessage,
		Push:      false,
	}
	runner := &recordingRunner{}
	wf := newWorkflow(t, cfg, runner, &stubChecker{exists: false})

	res, err := wf.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionCreated, res.Decision)
	assert.True(t, res.TagCreated())

	for _, call := range runner.calls {
		assert.NotContains(t, call, "push", "push must never be attempted when disabled")
	}
}

// TestRunCheckerErrorIsFatal verifies that an existence-check failure
// aborts the run before any mutation.
func TestRunCheckerErrorIsFatal(t *testing.T) {
	cfg := &config.RunConfig{
		CargoPath: writeCargoToml(t, t.TempDir(), "2.0.0"),
		TagPrefix: "v",
		Message:   config.DefaultMessage,
		Push:      true,
	}
	runner := &recordingRunner{}
	checkErr := model.NewCLIError(model.ExitRemoteError, "reference lookup failed")
	wf := newWorkflow(t, cfg, runner, &stubChecker{err: checkErr})

	_, err := wf.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, checkErr)
	assert.Empty(t, runner.calls, "no mutation after a failed existence check")
}

// TestRunPushFailureIsFatal verifies that a push rejection propagates
// rather than being masked as success (the unmitigated check/push race).
func TestRunPushFailureIsFatal(t *testing.T) {
	cfg := &config.RunConfig{
		CargoPath: writeCargoToml(t, t.TempDir(), "2.0.0"),
		TagPrefix: "v",
		Message:   config.DefaultMessage,
		Push:      true,
	}
	pushErr := model.NewCLIError(model.ExitGitError, "git push origin v2.0.0 failed: tag already exists")
	runner := &recordingRunner{errs: map[string]error{
		"push origin v2.0.0": pushErr,
	}}
	wf := newWorkflow(t, cfg, runner, &stubChecker{exists: false})

	_, err := wf.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pushErr)
}

// TestRunManifestErrorIsFatal verifies that a missing manifest aborts
// the run before the existence check.
func TestRunManifestErrorIsFatal(t *testing.T) {
	cfg := &config.RunConfig{
		CargoPath: filepath.Join(t.TempDir(), "Cargo.toml"),
		TagPrefix: "v",
		Message:   config.DefaultMessage,
	}
	checker := &stubChecker{}
	wf := newWorkflow(t, cfg, &recordingRunner{}, checker)

	_, err := wf.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, checker.calls, "existence check must not run without a version")
}

// TestRenderMessage verifies template substitution semantics: a single
// {version} substitution, pass-through without the placeholder.
func TestRenderMessage(t *testing.T) {
	tests := []struct {
		name     string
		template string
		version  string
		want     string
	}{
		{"placeholder", "Release {version}", "1.2.3", "Release 1.2.3"},
		{"no placeholder", "Tagged by automation", "1.2.3", "Tagged by automation"},
		{"placeholder only", "{version}", "0.1.0", "0.1.0"},
		{"single substitution", "{version} then {version}", "2.0.0", "2.0.0 then {version}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderMessage(tt.template, tt.version))
		})
	}
}

// TestLocalCheckerFetchFailureTolerated verifies that a failing tag
// fetch is ignored and the local listing still answers.
func TestLocalCheckerFetchFailureTolerated(t *testing.T) {
	runner := &recordingRunner{
		errs: map[string]error{
			"fetch --tags --quiet origin": fmt.Errorf("no remote configured"),
		},
		outputs: map[string]string{
			"tag --list v1.0.0": "v1.0.0\n",
		},
	}
	checker := NewLocalChecker(git.NewClientWithRunner("/repo", runner), nil)

	exists, err := checker.TagExists(context.Background(), "v1.0.0")
	require.NoError(t, err, "fetch failure must be tolerated")
	assert.True(t, exists)
	assert.Equal(t, []string{
		"fetch --tags --quiet origin",
		"tag --list v1.0.0",
	}, runner.calls)
}

// --- end-to-end tests against a real git binary ---

// setupTestRepo initializes a repository with one commit and a
// Cargo.toml declaring the given version, plus a local bare repository
// wired up as the origin remote so pushes work offline.
func setupTestRepo(t *testing.T, version string) (workDir, bareDir string) {
	t.Helper()

	workDir = t.TempDir()
	bareDir = t.TempDir()

	runTestGit(t, bareDir, "init", "--bare")

	runTestGit(t, workDir, "init")
	runTestGit(t, workDir, "config", "user.email", "test@example.com")
	runTestGit(t, workDir, "config", "user.name", "Test User")
	runTestGit(t, workDir, "remote", "add", "origin", bareDir)

	writeCargoToml(t, workDir, version)
	runTestGit(t, workDir, "add", ".")
	runTestGit(t, workDir, "commit", "-m", "initial commit")

	return workDir, bareDir
}

// runTestGit runs a git command in dir and fails the test on error.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// TestRunEndToEnd runs the workflow against a real repository with a
// local bare origin: the tag must be created, annotated with the
// rendered message, and pushed.
func TestRunEndToEnd(t *testing.T) {
	workDir, bareDir := setupTestRepo(t, "2.0.0")

	g := git.NewClient(workDir)
	cfg := &config.RunConfig{
		CargoPath: filepath.Join(workDir, "Cargo.toml"),
		TagPrefix: "v",
		Message:   "Release {version}",
		Push:      true,
	}
	wf := &Workflow{Config: cfg, Git: g, Checker: NewLocalChecker(g, t.Logf)}

	res, err := wf.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", res.Version)
	assert.Equal(t, "v2.0.0", res.TagName)
	assert.Equal(t, model.DecisionCreatedAndPushed, res.Decision)

	// The tag must exist in the bare origin as an annotated tag.
	assert.Contains(t, runTestGit(t, bareDir, "tag", "--list", "v2.0.0"), "v2.0.0")
	objType := strings.TrimSpace(runTestGit(t, workDir, "cat-file", "-t", "v2.0.0"))
	assert.Equal(t, "tag", objType)
	assert.Contains(t, runTestGit(t, workDir, "tag", "--list", "-n1", "v2.0.0"), "Release 2.0.0")

	// The annotation must be attributed to the bot identity.
	tagger := runTestGit(t, workDir, "for-each-ref", "--format=%(taggername)", "refs/tags/v2.0.0")
	assert.Contains(t, tagger, BotName)
}

// TestRunEndToEndIdempotent verifies that a second run against an
// unchanged manifest reports the tag as already existing.
func TestRunEndToEndIdempotent(t *testing.T) {
	workDir, _ := setupTestRepo(t, "2.0.0")

	g := git.NewClient(workDir)
	cfg := &config.RunConfig{
		CargoPath: filepath.Join(workDir, "Cargo.toml"),
		TagPrefix: "v",
		Message:   config.DefaultMessage,
		Push:      true,
	}
	wf := &Workflow{Config: cfg, Git: g, Checker: NewLocalChecker(g, t.Logf)}

	res, err := wf.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionCreatedAndPushed, res.Decision)

	res, err = wf.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionAlreadyExists, res.Decision)
	assert.False(t, res.TagCreated())
}

// TestRunEndToEndDryRun verifies that dry-run leaves a real repository
// untouched.
func TestRunEndToEndDryRun(t *testing.T) {
	workDir, bareDir := setupTestRepo(t, "0.3.0")

	g := git.NewClient(workDir)
	cfg := &config.RunConfig{
		CargoPath: filepath.Join(workDir, "Cargo.toml"),
		TagPrefix: "v",
		Message:   config.DefaultMessage,
		Push:      true,
		DryRun:    true,
	}
	wf := &Workflow{Config: cfg, Git: g, Checker: NewLocalChecker(g, t.Logf)}

	res, err := wf.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionWouldCreate, res.Decision)

	assert.Empty(t, strings.TrimSpace(runTestGit(t, workDir, "tag", "--list")), "no local tag in dry run")
	assert.Empty(t, strings.TrimSpace(runTestGit(t, bareDir, "tag", "--list")), "no remote tag in dry run")
}
