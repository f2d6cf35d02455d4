// Package provider defines the contract with the remote e-signature service.
//
// Implementations are stateless request/response adapters - all signing state
// lives in the job store. Implementations should be safe for concurrent use
// and must honor context cancellation on every call.
package provider

import "context"

// Provider abstracts the signing provider's workflow API.
type Provider interface {
	// CreateWorkflow opens a remote signing workflow scoped to one signer.
	CreateWorkflow(ctx context.Context, name string, signer SignerInfo) (*Workflow, error)

	// UploadDocument attaches the document bytes to an existing workflow.
	UploadDocument(ctx context.Context, workflowID, fileName string, data []byte) (*Document, error)

	// PlaceSignatureField places a signature box on an uploaded document.
	// Callers may treat failure as non-fatal; the workflow remains usable
	// without a pre-placed field.
	PlaceSignatureField(ctx context.Context, documentID string, field FieldGeometry) error

	// StartWorkflow moves the remote workflow into its started state.
	StartWorkflow(ctx context.Context, workflowID string) (*Workflow, error)

	// FetchWorkflow returns the current remote workflow state.
	// Returns ErrWorkflowNotFound if the workflow does not exist.
	FetchWorkflow(ctx context.Context, workflowID string) (*Workflow, error)

	// DownloadSignedDocument retrieves the signed artifact of a finished
	// workflow.
	DownloadSignedDocument(ctx context.Context, workflowID string) (*SignedDocument, error)
}

// SignerInfo identifies the person asked to sign. Email is required;
// implementations forward only the optional fields that are non-empty.
type SignerInfo struct {
	Email         string
	FirstName     string
	LastName      string
	Locale        string
	Comments      string
	ConsentPageID string
	UserID        string
}

// Workflow is the provider's remote unit of work for one document and its
// signer.
type Workflow struct {
	// ID is the provider-assigned workflow identifier.
	ID string

	// Status is the provider's status string, reported verbatim. Callers
	// normalize before comparing (providers differ in casing).
	Status string
}

// Document identifies a file uploaded into a workflow.
type Document struct {
	// ID is the provider-assigned document identifier. May be empty when
	// the provider does not report one; signature field placement is then
	// skipped.
	ID string
}

// FieldGeometry positions a signature field on a document page.
type FieldGeometry struct {
	Page   int
	X      int
	Y      int
	Width  int
	Height int
}

// SignedDocument is the downloaded artifact of a finished workflow.
type SignedDocument struct {
	Data []byte

	// FileName is parsed from the transport's Content-Disposition header
	// when present; empty otherwise.
	FileName string

	ContentType string
}

// Well-known remote workflow statuses, lower-cased for comparison.
const (
	WorkflowFinished = "finished"
	WorkflowStarted  = "started"
	WorkflowStopped  = "stopped"
	WorkflowRefused  = "refused"
	WorkflowCanceled = "canceled"
	WorkflowFailed   = "failed"
)

// IsTerminalFailure reports whether a normalized remote status means the
// workflow ended without a signed document.
func IsTerminalFailure(status string) bool {
	switch status {
	case WorkflowStopped, WorkflowRefused, WorkflowCanceled, WorkflowFailed:
		return true
	}
	return false
}
