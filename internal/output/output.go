// Package output emits the run results for downstream consumption.
//
// Two sinks exist: the key/value outputs file named by GITHUB_OUTPUT
// (the host automation platform's output plumbing) and the markdown
// summary file named by GITHUB_STEP_SUMMARY. The summary is best-effort;
// its absence never affects correctness.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mmr-tortoise/cargo-release-tag/internal/model"
)

// Output keys written for downstream consumption.
const (
	KeyVersion    = "version"
	KeyTagCreated = "tag-created"
	KeyTagName    = "tag-name"
)

// Environment variables naming the sink files.
const (
	outputsEnvVar = "GITHUB_OUTPUT"
	summaryEnvVar = "GITHUB_STEP_SUMMARY"
)

// Pairs returns the three run outputs in their stable order:
// version, tag-created, tag-name. Every non-error path produces all
// three; only the tag-created value differs between branches.
func Pairs(res *model.Result) [][2]string {
	return [][2]string{
		{KeyVersion, res.Version},
		{KeyTagCreated, strconv.FormatBool(res.TagCreated())},
		{KeyTagName, res.TagName},
	}
}

// WritePairs writes the outputs to w, one name=value line per output.
func WritePairs(w io.Writer, res *model.Result) error {
	for _, pair := range Pairs(res) {
		if _, err := fmt.Fprintf(w, "%s=%s\n", pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

// WriteGitHubOutputs appends the outputs to the file named by the
// GITHUB_OUTPUT environment variable. Returns false (and no error) when
// the variable is unset, so callers can fall back to stdout.
func WriteGitHubOutputs(res *model.Result) (bool, error) {
	path := os.Getenv(outputsEnvVar)
	if path == "" {
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open outputs file %s: %w", path, err)
	}
	defer f.Close()

	if err := WritePairs(f, res); err != nil {
		return false, fmt.Errorf("failed to write outputs file %s: %w", path, err)
	}
	return true, nil
}

// WriteStepSummary appends a short markdown table (version / tag /
// pushed) to the file named by GITHUB_STEP_SUMMARY. Does nothing when
// the variable is unset. Intended for runs that actually created a tag.
func WriteStepSummary(res *model.Result) error {
	path := os.Getenv(summaryEnvVar)
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open summary file %s: %w", path, err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "### Release tag\n\n| Version | Tag | Pushed |\n| --- | --- | --- |\n| %s | %s | %t |\n",
		res.Version, res.TagName, res.Decision.Pushed())
	if err != nil {
		return fmt.Errorf("failed to write summary file %s: %w", path, err)
	}
	return nil
}
