// Package config resolves the run configuration for the tagging
// workflow.
//
// Values come from three layers, lowest precedence first: built-in
// defaults, an optional YAML defaults file at the repository root, and
// explicit command-line flags. The access token is the exception — it is
// read from the GITHUB_TOKEN environment variable first, falling back to
// the --token flag, so CI secret injection always wins over a value
// baked into a command line.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/cargo-release-tag/internal/model"
)

// Built-in defaults for the run configuration.
const (
	// DefaultCargoPath is the conventional manifest location relative
	// to the repository root.
	DefaultCargoPath = "Cargo.toml"

	// DefaultTagPrefix is prepended to the version to form the tag name.
	DefaultTagPrefix = "v"

	// DefaultMessage is the annotation message template. The literal
	// token {version} is substituted with the manifest version.
	DefaultMessage = "Release {version}"
)

// DefaultsFileName is the optional per-repository defaults file,
// looked up at the repository root.
const DefaultsFileName = ".cargo-release-tag.yml"

// tokenEnvVar is the conventional environment variable carrying the
// access credential; it takes priority over the --token flag.
const tokenEnvVar = "GITHUB_TOKEN"

// RunConfig holds the fully resolved configuration for a single run.
// Populated once at startup and immutable thereafter.
type RunConfig struct {
	// CargoPath is the manifest file path. Relative paths are resolved
	// against the repository root by the CLI layer.
	CargoPath string

	// TagPrefix is concatenated with the version to form the tag name.
	// No separator is inserted beyond what the prefix already contains.
	TagPrefix string

	// Message is the annotation message template with an optional
	// {version} placeholder.
	Message string

	// Push controls whether a newly created tag is pushed to origin.
	Push bool

	// DryRun suppresses every mutating action when true.
	DryRun bool

	// Token is the access credential for the remote reference API.
	// Empty means the local existence check is used instead.
	Token string

	// Repo optionally overrides the owner/name pair derived from the
	// origin remote, in "owner/name" form.
	Repo string
}

// FileDefaults is the schema of the optional YAML defaults file.
// Pointer fields distinguish "not set" from zero values so the file
// only overrides what it actually declares.
type FileDefaults struct {
	CargoPath *string `yaml:"cargo-path"`
	TagPrefix *string `yaml:"tag-prefix"`
	Message   *string `yaml:"commit-message"`
	Push      *bool   `yaml:"push"`
	DryRun    *bool   `yaml:"dry-run"`
}

// LoadFileDefaults reads the defaults file from the repository root.
// A missing file is not an error and yields an empty FileDefaults;
// a malformed file is fatal.
func LoadFileDefaults(repoRoot string) (*FileDefaults, error) {
	path := filepath.Join(repoRoot, DefaultsFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileDefaults{}, nil
		}
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read defaults file %s", path), err)
	}

	var defaults FileDefaults
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to parse defaults file %s", path), err)
	}
	return &defaults, nil
}

// Apply overwrites cfg fields from the defaults file, but only for
// fields the file declares and the user did not set explicitly.
// flagChanged reports whether the named flag was set on the command line.
func (d *FileDefaults) Apply(cfg *RunConfig, flagChanged func(name string) bool) {
	if d.CargoPath != nil && !flagChanged("cargo-path") {
		cfg.CargoPath = *d.CargoPath
	}
	if d.TagPrefix != nil && !flagChanged("tag-prefix") {
		cfg.TagPrefix = *d.TagPrefix
	}
	if d.Message != nil && !flagChanged("commit-message") {
		cfg.Message = *d.Message
	}
	if d.Push != nil && !flagChanged("push") {
		cfg.Push = *d.Push
	}
	if d.DryRun != nil && !flagChanged("dry-run") {
		cfg.DryRun = *d.DryRun
	}
}

// ResolveToken returns the access token, preferring the GITHUB_TOKEN
// environment variable over the flag value.
func ResolveToken(flagToken string) string {
	if env := os.Getenv(tokenEnvVar); env != "" {
		return env
	}
	return flagToken
}
