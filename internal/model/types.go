// Package model defines the domain types for the cargo-release-tag CLI.
//
// All entities here are transient — they exist only for the duration of a
// single run. The only durable state this tool produces lives in the Git
// repository itself (the tag ref and its annotation object).
package model

import (
	"fmt"
	"strings"
)

// TagDecision represents the outcome of a single run of the tagging
// workflow. Exactly one decision is reached per run:
//
//	AlreadyExists     — the tag was found (remotely or locally); nothing was done
//	WouldCreate       — dry-run mode; the tag is absent but no mutation happened
//	Created           — an annotated tag was created locally, push disabled
//	CreatedAndPushed  — an annotated tag was created and pushed to origin
type TagDecision string

const (
	// DecisionAlreadyExists indicates the tag already exists and no
	// mutating step was performed.
	DecisionAlreadyExists TagDecision = "already-exists"

	// DecisionWouldCreate indicates the tag is absent but dry-run mode
	// suppressed creation.
	DecisionWouldCreate TagDecision = "would-create"

	// DecisionCreated indicates an annotated tag was created locally
	// and pushing was disabled.
	DecisionCreated TagDecision = "created"

	// DecisionCreatedAndPushed indicates an annotated tag was created
	// locally and pushed to the default remote.
	DecisionCreatedAndPushed TagDecision = "created-and-pushed"
)

// String returns the string representation of TagDecision.
// This satisfies fmt.Stringer for CLI output and logging.
func (d TagDecision) String() string {
	return string(d)
}

// IsValid checks whether the TagDecision value is one of the
// predefined outcomes.
func (d TagDecision) IsValid() bool {
	switch d {
	case DecisionAlreadyExists, DecisionWouldCreate, DecisionCreated, DecisionCreatedAndPushed:
		return true
	default:
		return false
	}
}

// Created reports whether this run actually created a tag.
// AlreadyExists and WouldCreate both leave the repository untouched,
// so they report false.
func (d TagDecision) Created() bool {
	return d == DecisionCreated || d == DecisionCreatedAndPushed
}

// Pushed reports whether the tag created by this run was pushed to
// the default remote.
func (d TagDecision) Pushed() bool {
	return d == DecisionCreatedAndPushed
}

// ParseTagDecision converts a string to a TagDecision.
// Returns an error if the string does not match any valid outcome.
func ParseTagDecision(s string) (TagDecision, error) {
	decision := TagDecision(strings.ToLower(s))
	if !decision.IsValid() {
		return "", fmt.Errorf("invalid tag decision: %q (valid: already-exists, would-create, created, created-and-pushed)", s)
	}
	return decision, nil
}

// Result is the externally observable outcome of a run. It feeds both
// the machine-readable outputs (version / tag-created / tag-name) and
// the human-readable summary.
type Result struct {
	// Version is the raw version string extracted from the manifest.
	Version string `json:"version"`

	// TagName is the computed tag identifier: tag prefix + version,
	// plain concatenation with no separator inserted.
	TagName string `json:"tagName"`

	// Decision is the outcome state reached by the workflow.
	Decision TagDecision `json:"decision"`
}

// TagCreated reports whether the run created a tag. Exposed on Result
// so callers emitting outputs do not need to inspect the decision.
func (r *Result) TagCreated() bool {
	return r.Decision.Created()
}

// ExitCode defines the CLI exit codes. These codes allow CI systems
// and scripts to programmatically determine which stage of the
// workflow failed.
type ExitCode int

const (
	// ExitSuccess indicates the run completed; the tag may or may not
	// have been created (inspect the tag-created output).
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitManifestError indicates the manifest file could not be read,
	// parsed, or is missing the package version field.
	ExitManifestError ExitCode = 2

	// ExitRemoteError indicates the remote reference lookup failed for
	// a reason other than the tag being absent.
	ExitRemoteError ExitCode = 3

	// ExitGitError indicates a Git operation (config/tag/fetch/push) failed.
	ExitGitError ExitCode = 4
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface. If an underlying error exists,
// it is appended to the message.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, enabling errors.Is/errors.As
// to inspect the cause chain.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError without an underlying cause.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError wrapping an underlying error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
