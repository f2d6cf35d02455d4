package jobstore

import "time"

// Status is the local lifecycle state of a signing job.
//
// Transitions are strictly forward: pending -> completed or pending -> error.
// A terminal job never changes status again.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Job tracks one uploaded document's signing lifecycle.
//
// The store is the sole owner of job records; all accessors return copies so
// no caller can mutate store state behind the store's back.
type Job struct {
	// ID is an opaque unique identifier, immutable after creation.
	ID string `json:"id"`

	// FileName and FileType carry the original upload metadata.
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`

	Status Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// WorkflowID correlates the job with the signing provider's remote
	// workflow. Empty only before remote creation; set once, never changed.
	WorkflowID string `json:"workflow_id,omitempty"`

	// WorkflowStatus is the last remote status observed during reconciliation.
	WorkflowStatus string `json:"workflow_status,omitempty"`

	// SignedDocument holds the signed artifact. Present iff Status is completed.
	SignedDocument    []byte `json:"-"`
	SignedFileName    string `json:"signed_file_name,omitempty"`
	SignedContentType string `json:"signed_content_type,omitempty"`

	// ErrorMessage is set iff Status is error.
	ErrorMessage string `json:"error_message,omitempty"`
}

// SignedArtifact bundles the result of a completed signing workflow.
type SignedArtifact struct {
	Data []byte

	// FileName overrides the default "-signed" derivation when non-empty.
	FileName string

	// ContentType defaults to application/pdf when empty.
	ContentType string
}
