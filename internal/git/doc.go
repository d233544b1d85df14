// Package git wraps the Git CLI operations needed by the tagging
// workflow: identity configuration, annotated tag creation, tag listing,
// tag fetching, and pushing a single tag reference.
//
// All operations are performed via os/exec calls to the git binary
// rather than a Git library like go-git. This approach:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same Git behavior the user sees in their terminal
//   - Keeps annotated-tag semantics identical to git's own
//
// Commands are issued through the Runner interface so tests can record
// and fake subprocess invocations without a real repository.
package git
