package domain

import "time"

const MsgSchemaVersion string = "0.0.1"

type BatchKind string

const (
	BatchKindScheduled    BatchKind = "scheduled"
	BatchKindNotification BatchKind = "notification"
)

// Record is a single inbound message. Body is expected to hold an
// object-created event as JSON.
type Record struct {
	ID   string
	Body []byte
	// DecodeErr is set when the record itself could not be read from the
	// inbound payload. Such records are skipped.
	DecodeErr error
}

type Batch struct {
	Kind    BatchKind
	Records []Record
}

func ScheduledBatch() Batch {
	return Batch{Kind: BatchKindScheduled}
}

func NotificationBatch(records ...Record) Batch {
	return Batch{Kind: BatchKindNotification, Records: records}
}

type OutcomeKind string

const (
	OutcomeAppended OutcomeKind = "appended"
	OutcomeFlushed  OutcomeKind = "flushed"
	OutcomeNoOp     OutcomeKind = "noop"
)

const (
	ReasonScheduled          = "scheduled"
	ReasonSoftLimit          = "soft_limit"
	ReasonRecheckAfterAppend = "recheck_after_append"
	ReasonRecheckFlushFailed = "recheck_flush_failed"
	ReasonEmptyBatch         = "empty_batch"
	ReasonEmptyManifest      = "empty_manifest"
)

// Outcome describes what a single coordinator invocation did. Failures are
// reported as errors, never as an Outcome.
type Outcome struct {
	Kind           OutcomeKind `json:"kind"`
	Reason         string      `json:"reason,omitempty"`
	KeysAppended   int         `json:"keys_appended"`
	TokensFlushed  int         `json:"tokens_flushed"`
	JobID          string      `json:"job_id,omitempty"`
	ManifestLength int         `json:"manifest_length"`
	// Deferred is true when some keys of the batch were not accumulated and
	// the batch should be delivered again.
	Deferred bool `json:"deferred"`
}

type JobHandle struct {
	ID string
}

type FlushEvent struct {
	JobID         string
	FilterPattern string
	Tokens        int
	Reason        string
	FlushedAt     time.Time
}
