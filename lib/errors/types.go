package errors

import (
	"errors"
	"fmt"
)

// PreconditionError is returned when a check made before any destructive
// step fails: missing privilege, missing network, invalid input file or a
// missing tool. No disk mutation has been attempted.
type PreconditionError struct {
	Check string
	Err   error
}

func (e *PreconditionError) Error() string {
	return "precondition " + e.Check + " failed: " + e.Err.Error()
}

func (e *PreconditionError) Unwrap() error { return e.Err }

func NewPreconditionError(check string, err error) *PreconditionError {
	return &PreconditionError{Check: check, Err: err}
}

// SelectionAbort is returned when the operator declines or cancels a
// prompt. Only the current sub-workflow is aborted.
type SelectionAbort struct {
	Reason string
}

func (e *SelectionAbort) Error() string {
	if e.Reason != "" {
		return "aborted: " + e.Reason
	}
	return "aborted by operator"
}

func NewSelectionAbort(reason string) *SelectionAbort {
	return &SelectionAbort{Reason: reason}
}

// DiskOpError is returned when a partition, format or mount sub-step fails.
// Disk state is left as-is for manual inspection.
type DiskOpError struct {
	Step string
	Err  error
}

func (e *DiskOpError) Error() string {
	return "disk operation " + e.Step + " failed: " + e.Err.Error()
}

func (e *DiskOpError) Unwrap() error { return e.Err }

func NewDiskOpError(step string, err error) *DiskOpError {
	return &DiskOpError{Step: step, Err: err}
}

// RestoreError is returned when an in-chroot configuration step fails. The
// mounted root is left intact.
type RestoreError struct {
	Step  string
	Index int // 1-based position of Step in the restore order.
	Err   error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("deployment incomplete at step %d (%s): %s",
		e.Index, e.Step, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

func NewRestoreError(step string, index int, err error) *RestoreError {
	return &RestoreError{Step: step, Index: index, Err: err}
}

func IsPrecondition(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}

func IsSelectionAbort(err error) bool {
	var target *SelectionAbort
	return errors.As(err, &target)
}

func IsDiskOp(err error) bool {
	var target *DiskOpError
	return errors.As(err, &target)
}

func IsRestore(err error) bool {
	var target *RestoreError
	return errors.As(err, &target)
}
