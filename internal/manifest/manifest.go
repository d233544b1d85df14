// Package manifest extracts the package version from a Cargo.toml
// build manifest.
//
// Only package.version is consumed, but the file is decoded with a full
// TOML parser: real manifests carry comments, nested tables, and arrays
// in many unrelated sections ([dependencies], [features], [[bin]], ...)
// and the reader must tolerate all of them.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mmr-tortoise/cargo-release-tag/internal/model"
)

// cargoManifest mirrors the subset of Cargo.toml this tool reads.
// Unknown keys and sections are ignored by the decoder.
type cargoManifest struct {
	Package packageSection `toml:"package"`
}

// packageSection holds the [package] table. Version is kept as a
// toml.Primitive because it is not always a string: workspace members
// may declare `version.workspace = true`, which we detect to produce a
// descriptive error instead of a generic type mismatch.
type packageSection struct {
	Name    string         `toml:"name"`
	Version toml.Primitive `toml:"version"`
}

// workspaceField matches `version.workspace = true` in a workspace
// member manifest.
type workspaceField struct {
	Workspace bool `toml:"workspace"`
}

// ReadVersion reads the manifest at path and returns the value of the
// package.version field.
//
// Every failure mode — unreadable file, TOML parse error, absent or
// empty version, workspace-inherited version — is fatal and reported as
// a model.CLIError with ExitManifestError. The attempted path is always
// included in the message so the error is actionable from CI logs.
func ReadVersion(path string) (string, error) {
	var m cargoManifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		verb := "parse"
		if errors.Is(err, fs.ErrNotExist) {
			verb = "read"
		}
		return "", model.WrapCLIError(model.ExitManifestError,
			fmt.Sprintf("failed to %s manifest %s", verb, path), err)
	}

	if !md.IsDefined("package", "version") {
		return "", model.NewCLIError(model.ExitManifestError,
			fmt.Sprintf("manifest %s has no package.version field", path))
	}

	var version string
	if err := md.PrimitiveDecode(m.Package.Version, &version); err != nil {
		// A workspace member declares `version.workspace = true` instead
		// of a literal string. Resolving the workspace manifest is out of
		// scope, so report it explicitly.
		var ws workspaceField
		if md.PrimitiveDecode(m.Package.Version, &ws) == nil && ws.Workspace {
			return "", model.NewCLIError(model.ExitManifestError,
				fmt.Sprintf("manifest %s inherits package.version from its workspace; a literal version string is required", path))
		}
		return "", model.WrapCLIError(model.ExitManifestError,
			fmt.Sprintf("manifest %s: package.version is not a string", path), err)
	}

	if strings.TrimSpace(version) == "" {
		return "", model.NewCLIError(model.ExitManifestError,
			fmt.Sprintf("manifest %s has an empty package.version", path))
	}

	return version, nil
}
