// Package release orchestrates the tagging workflow: read the manifest
// version, compute the tag name, check whether the tag already exists,
// and create and optionally push an annotated tag.
//
// The run is a single linear pass with no retries and no concurrency.
// The state machine is:
//
//	Start → VersionRead → ExistenceChecked →
//	  {AlreadyExists | DryRun | Create → Push?} → Result
//
// The known race between the existence check and the push is not
// mitigated: a concurrent upstream tag surfaces as a fatal push error.
package release
