// Package board coordinates reads and writes against one pipeline board.
//
// A Coordinator keeps the in-memory record list a UI renders, applies
// Transition Authority verdicts optimistically, performs the remote writes
// through a Persister, and either reconciles with the stored row or restores
// the pre-move snapshot. Emission finalization is a short sequence of
// idempotent writes; a failure part way through is surfaced as a
// PartialCommitError naming the steps that landed. The Watcher polls
// coordinators on a fixed interval and reports records that appeared since
// the previous pass.
package board
