// Package signing drives a job through the remote e-signature workflow: it
// owns the create -> upload -> place-field -> start sequence on submission
// and reconciles local job state against the provider on every status poll.
package signing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/signrelay/signrelay/internal/errors"
	"github.com/signrelay/signrelay/internal/observability"
	"github.com/signrelay/signrelay/pkg/jobstore"
	"github.com/signrelay/signrelay/pkg/provider"
)

// Options carries the workflow defaults applied to every submission.
type Options struct {
	// DefaultLocale is applied when the signer request has none.
	DefaultLocale string

	// ConsentPageID is applied when the signer request has none. Optional.
	ConsentPageID string

	// Field is the default signature field geometry.
	Field provider.FieldGeometry

	// ValidateDocument checks the upload before any job is created.
	// Nil skips validation (tests).
	ValidateDocument func(data []byte) error
}

// Service orchestrates signing jobs between the job store and the provider.
type Service struct {
	store    *jobstore.Store
	provider provider.Provider
	opts     Options
	logger   *zap.Logger
}

// NewService wires the orchestration layer.
func NewService(store *jobstore.Store, p provider.Provider, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, provider: p, opts: opts, logger: logger}
}

// Submission is one upload request.
type Submission struct {
	FileName     string
	FileType     string
	Data         []byte
	WorkflowName string
	Signer       SignerRequest
}

// SignerRequest is the signer identity supplied by the client. Email is
// required; empty optional fields fall back to configured defaults or are
// omitted entirely.
type SignerRequest struct {
	Email         string
	FirstName     string
	LastName      string
	Locale        string
	Comments      string
	ConsentPageID string
	UserID        string
}

// SubmitResult summarizes a freshly created job.
type SubmitResult struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	WorkflowID     string `json:"workflow_id"`
	WorkflowStatus string `json:"workflow_status"`
	FileName       string `json:"file_name"`
}

// Submit validates the upload, creates a local job, and drives the provider
// through workflow creation, document upload, best-effort signature field
// placement, and workflow start. Any fatal provider failure marks the job
// failed and is returned to the caller; the remote workflow is left as-is
// (no rollback).
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	if err := s.validate(sub); err != nil {
		return nil, err
	}

	job := s.store.Create(sub.FileName, sub.FileType)
	log := s.logger.With(zap.String("job_id", job.ID), zap.String("file_name", sub.FileName))

	signer := s.resolveSigner(sub.Signer)
	name := sub.WorkflowName
	if name == "" {
		name = fmt.Sprintf("Signature request - %s", sub.FileName)
	}

	wf, err := s.provider.CreateWorkflow(ctx, name, signer)
	observability.ObserveProviderCall("CreateWorkflow", err)
	if err != nil {
		s.store.Fail(job.ID, err.Error())
		log.Error("Workflow creation failed", zap.Error(err))
		return nil, err
	}
	s.store.SetWorkflow(job.ID, wf.ID, wf.Status)
	log = log.With(zap.String("workflow_id", wf.ID))

	doc, err := s.provider.UploadDocument(ctx, wf.ID, sub.FileName, sub.Data)
	observability.ObserveProviderCall("UploadDocument", err)
	if err != nil {
		s.store.Fail(job.ID, err.Error())
		log.Error("Document upload failed", zap.Error(err))
		return nil, err
	}

	// Field placement is best-effort: the signer can still place their own
	// signature, so a failure here must not sink the job.
	if doc.ID != "" {
		if err := s.provider.PlaceSignatureField(ctx, doc.ID, s.opts.Field); err != nil {
			observability.ObserveProviderCall("PlaceSignatureField", err)
			log.Warn("Signature field placement failed, continuing without pre-placed field",
				zap.String("document_id", doc.ID),
				zap.Error(err))
		} else {
			observability.ObserveProviderCall("PlaceSignatureField", nil)
		}
	}

	started, err := s.provider.StartWorkflow(ctx, wf.ID)
	observability.ObserveProviderCall("StartWorkflow", err)
	if err != nil {
		s.store.Fail(job.ID, err.Error())
		log.Error("Workflow start failed", zap.Error(err))
		return nil, err
	}

	status := resolveStatus(started.Status, wf.Status)
	s.store.SetWorkflowStatus(job.ID, status)
	log.Info("Signing workflow started", zap.String("workflow_status", status))

	return &SubmitResult{
		JobID:          job.ID,
		Status:         string(jobstore.StatusPending),
		WorkflowID:     wf.ID,
		WorkflowStatus: status,
		FileName:       sub.FileName,
	}, nil
}

func (s *Service) validate(sub Submission) error {
	if len(sub.Data) == 0 {
		return apperrors.NewValidation("file", "file is required")
	}
	if strings.TrimSpace(sub.Signer.Email) == "" {
		return apperrors.NewValidation("signer_email", "signer email is required")
	}
	if s.opts.ValidateDocument != nil {
		if err := s.opts.ValidateDocument(sub.Data); err != nil {
			return apperrors.NewValidation("file", err.Error())
		}
	}
	return nil
}

func (s *Service) resolveSigner(req SignerRequest) provider.SignerInfo {
	info := provider.SignerInfo{
		Email:         strings.TrimSpace(req.Email),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Locale:        req.Locale,
		Comments:      req.Comments,
		ConsentPageID: req.ConsentPageID,
		UserID:        req.UserID,
	}
	if info.Locale == "" {
		info.Locale = s.opts.DefaultLocale
	}
	if info.ConsentPageID == "" {
		info.ConsentPageID = s.opts.ConsentPageID
	}
	return info
}

// resolveStatus prefers the post-start status, then the post-create status,
// then assumes the workflow started.
func resolveStatus(afterStart, afterCreate string) string {
	if afterStart != "" {
		return afterStart
	}
	if afterCreate != "" {
		return afterCreate
	}
	return provider.WorkflowStarted
}
