package signing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/signrelay/signrelay/internal/errors"
	"github.com/signrelay/signrelay/internal/observability"
	"github.com/signrelay/signrelay/pkg/jobstore"
	"github.com/signrelay/signrelay/pkg/provider"
)

// StatusResult is the poll response for one job.
type StatusResult struct {
	JobID          string    `json:"job_id"`
	Status         string    `json:"status"`
	UpdatedAt      time.Time `json:"updated_at"`
	FileName       string    `json:"file_name"`
	SignedFileName string    `json:"signed_file_name,omitempty"`
	WorkflowID     string    `json:"workflow_id,omitempty"`
	WorkflowStatus string    `json:"workflow_status,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	DownloadURL    string    `json:"download_url,omitempty"`
}

// DownloadResult is the stored signed artifact.
type DownloadResult struct {
	Data        []byte
	FileName    string
	ContentType string
}

// Status answers a poll for jobID, reconciling a pending correlated job
// against the provider first. Provider errors during reconciliation are
// swallowed and the last known local state is returned, so polling stays
// usable through transient provider outages.
func (s *Service) Status(ctx context.Context, jobID string) (*StatusResult, error) {
	job, ok := s.store.Get(jobID)
	if !ok {
		return nil, apperrors.NewNotFound("job", jobID)
	}

	if job.Status == jobstore.StatusPending && job.WorkflowID != "" {
		s.reconcile(ctx, job)
		// Re-read: reconciliation may have completed or failed the job.
		if refreshed, ok := s.store.Get(jobID); ok {
			job = refreshed
		}
	}

	result := &StatusResult{
		JobID:          job.ID,
		Status:         string(job.Status),
		UpdatedAt:      job.UpdatedAt,
		FileName:       job.FileName,
		SignedFileName: job.SignedFileName,
		WorkflowID:     job.WorkflowID,
		WorkflowStatus: job.WorkflowStatus,
		ErrorMessage:   job.ErrorMessage,
	}
	if job.Status == jobstore.StatusCompleted {
		result.DownloadURL = fmt.Sprintf("/api/sign/%s/file", job.ID)
	}
	return result, nil
}

// reconcile refreshes one pending job from the remote workflow state.
func (s *Service) reconcile(ctx context.Context, job jobstore.Job) {
	log := s.logger.With(
		zap.String("job_id", job.ID),
		zap.String("workflow_id", job.WorkflowID))

	wf, err := s.provider.FetchWorkflow(ctx, job.WorkflowID)
	observability.ObserveProviderCall("FetchWorkflow", err)
	if err != nil {
		// Swallowed: the next poll retries, and the TTL sweeper bounds how
		// long a permanently broken job can linger.
		log.Warn("Workflow status refresh failed, returning last known state", zap.Error(err))
		return
	}

	if wf.Status != "" {
		s.store.SetWorkflowStatus(job.ID, wf.Status)
	}

	switch normalized := strings.ToLower(strings.TrimSpace(wf.Status)); {
	case normalized == provider.WorkflowFinished:
		doc, err := s.provider.DownloadSignedDocument(ctx, job.WorkflowID)
		observability.ObserveProviderCall("DownloadSignedDocument", err)
		if err != nil {
			log.Warn("Signed document download failed, will retry on next poll", zap.Error(err))
			return
		}
		s.store.Complete(job.ID, jobstore.SignedArtifact{
			Data:        doc.Data,
			FileName:    doc.FileName,
			ContentType: doc.ContentType,
		})
		log.Info("Signing job completed", zap.Int("bytes", len(doc.Data)))

	case provider.IsTerminalFailure(normalized):
		s.store.Fail(job.ID, fmt.Sprintf("signing workflow %s", normalized))
		log.Info("Signing job failed remotely", zap.String("workflow_status", normalized))
	}
}

// Download returns the signed artifact for a completed job.
func (s *Service) Download(jobID string) (*DownloadResult, error) {
	job, ok := s.store.Get(jobID)
	if !ok {
		return nil, apperrors.NewNotFound("job", jobID)
	}
	if job.Status != jobstore.StatusCompleted || job.SignedDocument == nil {
		return nil, apperrors.NewConflict("signed document is not ready")
	}
	return &DownloadResult{
		Data:        job.SignedDocument,
		FileName:    job.SignedFileName,
		ContentType: job.SignedContentType,
	}, nil
}
