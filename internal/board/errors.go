package board

import (
	"errors"
	"fmt"
	"strings"

	"agencyboard/internal/pipeline"
)

var (
	// ErrValidation marks input rejected before any remote call.
	ErrValidation = errors.New("validation failed")
	// ErrIllegalTransition marks a move the Transition Authority refused.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrRemote marks a failed remote write whose optimistic state was rolled back.
	ErrRemote = errors.New("remote write failed")
	// ErrPartialCommit marks a finalization that stopped after some writes landed.
	ErrPartialCommit = errors.New("partial commit")
	// ErrRecordNotFound is returned for ids absent from the board.
	ErrRecordNotFound = errors.New("record not found")
	// ErrBusy is returned while a record already has a mutation in flight.
	ErrBusy = errors.New("record has a mutation in flight")
)

// ValidationError reports a bad field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// IllegalTransitionError carries a rejected verdict.
type IllegalTransitionError struct {
	RecordID string
	From     pipeline.StageID
	To       pipeline.StageID
	Reason   pipeline.Reason
	Detail   string
}

func (e *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("move %s → %s rejected: %s", e.From, e.To, e.Reason)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// RemoteFailure wraps a persistence error for a mutating call.
type RemoteFailure struct {
	Op       string
	RecordID string
	Err      error
}

func (e *RemoteFailure) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.RecordID, e.Err)
}

func (e *RemoteFailure) Is(target error) bool { return target == ErrRemote }

func (e *RemoteFailure) Unwrap() error { return e.Err }

// PartialCommitError names the finalization steps that completed before
// Failed stopped the sequence. Every step is an upsert, so repeating the
// same finalize converges.
type PartialCommitError struct {
	RecordID  string
	Target    pipeline.StageID
	Completed []string
	Failed    string
	Err       error
}

func (e *PartialCommitError) Error() string {
	done := "none"
	if len(e.Completed) > 0 {
		done = strings.Join(e.Completed, ", ")
	}
	return fmt.Sprintf("finalize %s to %s stopped at %s (completed: %s): %v", e.RecordID, e.Target, e.Failed, done, e.Err)
}

func (e *PartialCommitError) Is(target error) bool { return target == ErrPartialCommit }

func (e *PartialCommitError) Unwrap() error { return e.Err }
