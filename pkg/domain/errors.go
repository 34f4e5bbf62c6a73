package domain

import (
	"errors"
	"fmt"
)

var ErrInvokerStopped = errors.New("invoker is not accepting invocations")

// TransientStoreError means the manifest store could not be read or written.
// The invocation should be retried.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("manifest store %s failed: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// TriggerSubmissionError means the transfer job could not be started. The
// manifest is left as it was.
type TriggerSubmissionError struct {
	Tokens int
	Err    error
}

func (e *TriggerSubmissionError) Error() string {
	return fmt.Sprintf("starting transfer job with %d tokens failed: %v", e.Tokens, e.Err)
}

func (e *TriggerSubmissionError) Unwrap() error {
	return e.Err
}

// MalformedRecordError is never returned to callers, records failing key
// extraction are skipped.
type MalformedRecordError struct {
	RecordID string
	Reason   string
	Err      error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %q skipped (%s): %v", e.RecordID, e.Reason, e.Err)
	}
	return fmt.Sprintf("record %q skipped (%s)", e.RecordID, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
