package release

import (
	"context"
	"strings"

	"github.com/mmr-tortoise/cargo-release-tag/internal/config"
	"github.com/mmr-tortoise/cargo-release-tag/internal/git"
	"github.com/mmr-tortoise/cargo-release-tag/internal/github"
	"github.com/mmr-tortoise/cargo-release-tag/internal/manifest"
	"github.com/mmr-tortoise/cargo-release-tag/internal/model"
)

// Fixed bot identity used for tag annotations. Tags created by this
// tool are attributable to automation regardless of the invoking user.
const (
	// BotName is the committer name configured before tagging.
	BotName = "github-actions[bot]"

	// BotEmail is the committer email configured before tagging.
	BotEmail = "41898282+github-actions[bot]@users.noreply.github.com"
)

// ExistenceChecker answers one question: does tag T exist?
//
// Two implementations exist, selected by whether an access token is
// available. The API checker is authoritative and race-resistant; the
// local checker works in restricted environments without a credential,
// at the cost of possibly missing tags in a shallow clone whose
// best-effort tag fetch failed.
type ExistenceChecker interface {
	TagExists(ctx context.Context, name string) (bool, error)
}

// apiChecker queries the remote hosting service's reference API.
type apiChecker struct {
	client *github.Client
	owner  string
	repo   string
}

// NewAPIChecker creates an ExistenceChecker backed by the GitHub
// reference API for the given repository.
func NewAPIChecker(client *github.Client, owner, repo string) ExistenceChecker {
	return &apiChecker{client: client, owner: owner, repo: repo}
}

func (c *apiChecker) TagExists(ctx context.Context, name string) (bool, error) {
	return c.client.TagRefExists(ctx, c.owner, c.repo, name)
}

// localChecker inspects the local repository's tag namespace, after a
// best-effort fetch of remote tags.
type localChecker struct {
	git  *git.Client
	logf func(format string, args ...any)
}

// NewLocalChecker creates an ExistenceChecker backed by the local
// repository. logf receives diagnostic messages and may be nil.
func NewLocalChecker(g *git.Client, logf func(format string, args ...any)) ExistenceChecker {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &localChecker{git: g, logf: logf}
}

func (c *localChecker) TagExists(ctx context.Context, name string) (bool, error) {
	// Fetch failure only affects completeness of the local tag list,
	// not correctness: an already-synced clone still has the tag.
	if err := c.git.FetchTags(); err != nil {
		c.logf("tag fetch failed, checking local tags only: %v", err)
	}
	return c.git.TagExists(name)
}

// Workflow holds the collaborators for a single tagging run.
type Workflow struct {
	// Config is the immutable run configuration.
	Config *config.RunConfig

	// Git performs local repository mutations (identity, tag, push).
	Git *git.Client

	// Checker answers the tag existence question.
	Checker ExistenceChecker

	// Logf receives verbose diagnostic messages. May be nil.
	Logf func(format string, args ...any)
}

// Run executes the workflow:
//
//	read version → compute tag name → check existence →
//	{already exists | dry run | create [+ push]}
//
// Control flows strictly top to bottom; the first failing step aborts
// the run. No step is retried.
func (w *Workflow) Run(ctx context.Context) (*model.Result, error) {
	logf := w.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	version, err := manifest.ReadVersion(w.Config.CargoPath)
	if err != nil {
		return nil, err
	}
	logf("manifest version: %s", version)

	// Plain concatenation; the prefix carries any separator itself.
	tagName := w.Config.TagPrefix + version
	logf("computed tag name: %s", tagName)

	exists, err := w.Checker.TagExists(ctx, tagName)
	if err != nil {
		return nil, err
	}

	result := &model.Result{Version: version, TagName: tagName}

	switch {
	case exists:
		logf("tag %s already exists, nothing to do", tagName)
		result.Decision = model.DecisionAlreadyExists

	case w.Config.DryRun:
		logf("dry run: tag %s would be created", tagName)
		result.Decision = model.DecisionWouldCreate

	default:
		if err := w.Git.ConfigureIdentity(BotName, BotEmail); err != nil {
			return nil, err
		}

		message := RenderMessage(w.Config.Message, version)
		logf("creating annotated tag %s with message %q", tagName, message)
		if err := w.Git.CreateAnnotatedTag(tagName, message); err != nil {
			return nil, err
		}
		result.Decision = model.DecisionCreated

		if w.Config.Push {
			logf("pushing tag %s to origin", tagName)
			// A rejection here (e.g. the tag appeared upstream since the
			// existence check) is fatal; masking it would falsely report
			// success.
			if err := w.Git.PushTag(tagName); err != nil {
				return nil, err
			}
			result.Decision = model.DecisionCreatedAndPushed
		}
	}

	return result, nil
}

// RenderMessage substitutes the literal token {version} in the message
// template with the given version string. A single substitution is
// performed; a template without the placeholder passes through unchanged.
func RenderMessage(template, version string) string {
	return strings.Replace(template, "{version}", version, 1)
}
