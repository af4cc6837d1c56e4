package submission

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed submission
type Kind int

const (
	// KindNone means the submission succeeded
	KindNone Kind = iota
	// KindValidation a required field was missing, nothing was written
	KindValidation
	// KindRemoteWrite a store write or delete failed before anything was committed
	KindRemoteWrite
	// KindPartialSubmission a later step failed and the earlier write was compensated
	KindPartialSubmission
	// KindCompensationFailure the compensating delete failed, a partial record is orphaned
	KindCompensationFailure
	// KindTimeout a step did not complete within the step timeout
	KindTimeout
	// KindCanceled the caller canceled the submission between steps
	KindCanceled
)

var kindNames = map[Kind]string{
	KindNone:                "none",
	KindValidation:          "validation",
	KindRemoteWrite:         "remote_write",
	KindPartialSubmission:   "partial_submission",
	KindCompensationFailure: "compensation_failure",
	KindTimeout:             "timeout",
	KindCanceled:            "canceled",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText writes the kind name
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// KindOf classifies err. A nil error is KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		compensation *CompensationFailure
		partial      *PartialSubmissionError
		validation   *ValidationError
		timeout      *TimeoutError
		canceled     *CanceledError
	)
	switch {
	case errors.As(err, &compensation):
		return KindCompensationFailure
	case errors.As(err, &partial):
		return KindPartialSubmission
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &timeout):
		return KindTimeout
	case errors.As(err, &canceled):
		return KindCanceled
	default:
		return KindRemoteWrite
	}
}

// ValidationError names the first required field missing from a case
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// RemoteWriteError is a failed store write or delete
type RemoteWriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }

// PartialSubmissionError is a failure after an earlier step already wrote
// something. Compensated is the path that was deleted to undo it.
type PartialSubmissionError struct {
	Step        State
	Cause       error
	Compensated string
}

func (e *PartialSubmissionError) Error() string {
	return fmt.Sprintf("%s failed, removed %s: %v", e.Step, e.Compensated, e.Cause)
}

func (e *PartialSubmissionError) Unwrap() error { return e.Cause }

// CompensationFailure means the delete undoing a partial write failed, the
// document at Path is orphaned and needs an operator.
type CompensationFailure struct {
	Path  string
	Err   error
	Cause error
}

func (e *CompensationFailure) Error() string {
	return fmt.Sprintf("failed to remove orphaned %s: %v (after: %v)", e.Path, e.Err, e.Cause)
}

func (e *CompensationFailure) Unwrap() []error { return []error{e.Err, e.Cause} }

// TimeoutError is a step that did not finish within the step timeout
type TimeoutError struct {
	Step    State
	Path    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s on %s", e.Step, e.Timeout, e.Path)
}

// CanceledError is a submission stopped by its caller before Step started
type CanceledError struct {
	Step State
	Err  error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("submission canceled before %s: %v", e.Step, e.Err)
}

func (e *CanceledError) Unwrap() error { return e.Err }
