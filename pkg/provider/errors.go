package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors for provider operations.
var (
	// ErrWorkflowNotFound indicates the requested workflow does not exist.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrUnauthorized indicates the API credential was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProviderUnavailable indicates the provider service is unavailable.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ProviderError wraps a failed provider call with its HTTP context.
type ProviderError struct {
	// Op is the operation that failed (e.g., "CreateWorkflow").
	Op string

	// WorkflowID is the remote workflow, if applicable.
	WorkflowID string

	// StatusCode is the HTTP status returned by the provider, zero on
	// transport failure.
	StatusCode int

	// Body is the provider's response body text, truncated for logging.
	Body string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.WorkflowID != "":
		return fmt.Sprintf("provider %s: workflow %s: status %d: %s", e.Op, e.WorkflowID, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("provider %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	case e.WorkflowID != "":
		return fmt.Sprintf("provider %s: workflow %s: %v", e.Op, e.WorkflowID, e.Err)
	default:
		return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
	}
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a missing workflow.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsUnauthorized returns true if the error indicates a rejected credential.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsUnavailable returns true if the error indicates the provider is down.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
