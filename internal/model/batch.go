package model

import "time"

// BatchStatus represents the lifecycle state of an import batch.
type BatchStatus string

const (
	StatusPendingReview BatchStatus = "pending-review"
	StatusCommitted     BatchStatus = "committed"
	StatusDiscarded     BatchStatus = "discarded"
)

// RejectReason tags a per-record, non-fatal rejection.
type RejectReason string

const (
	ReasonMalformedRow       RejectReason = "malformed-row"
	ReasonMissingAmount      RejectReason = "missing-amount"
	ReasonMissingTimestamp   RejectReason = "missing-timestamp"
	ReasonAmbiguousDirection RejectReason = "ambiguous-direction"
	ReasonDuplicate          RejectReason = "duplicate"
)

// RejectedRecord preserves a dropped row with a human-readable reason.
// Rejections are kept on the batch for review, never silently discarded.
type RejectedRecord struct {
	Row         int
	Reference   string
	Description string
	Reason      RejectReason
	Detail      string
}

// LinkNote records an advisory outcome that is not a rejection, such as
// a transfer pairing skipped because more than one counterpart matched.
type LinkNote struct {
	CandidateID string
	Note        string
}

// ImportBatch is one run of the import pipeline against one statement.
// It is created in pending-review state and mutated only by the pipeline
// and the commit/discard step. Committed and discarded batches are
// immutable.
type ImportBatch struct {
	ID           string
	AccountID    int
	SourceFormat string
	FileName     string
	Status       BatchStatus
	CreatedAt    time.Time
	Candidates   []CanonicalTransaction
	Rejected     []RejectedRecord
	Notes        []LinkNote
}

// Pending reports whether the batch can still be committed or discarded.
func (b *ImportBatch) Pending() bool {
	return b.Status == StatusPendingReview
}
