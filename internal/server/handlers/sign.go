package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/signrelay/signrelay/internal/errors"
	"github.com/signrelay/signrelay/internal/signing"
)

// SigningService is the orchestration surface the sign endpoints need.
type SigningService interface {
	Submit(ctx context.Context, sub signing.Submission) (*signing.SubmitResult, error)
	Status(ctx context.Context, jobID string) (*signing.StatusResult, error)
	Download(jobID string) (*signing.DownloadResult, error)
}

// SignHandlers exposes the signing job endpoints.
type SignHandlers struct {
	svc            SigningService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewSignHandlers wires the signing endpoints. maxUploadBytes caps the
// request body; non-positive values fall back to 20 MiB.
func NewSignHandlers(svc SigningService, maxUploadBytes int64, logger *zap.Logger) *SignHandlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignHandlers{svc: svc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Submit handles POST /api/sign: a multipart upload with the document under
// "file" plus signer_* form fields. Replies 202 with the job summary.
func (h *SignHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, r, apperrors.NewValidation("file",
				fmt.Sprintf("upload exceeds the %d byte limit", tooLarge.Limit)))
			return
		}
		respondWithError(w, r, apperrors.NewValidation("", "request body is not a valid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, r, apperrors.NewValidation("file", "file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, r, apperrors.NewValidation("file", "failed to read uploaded file"))
		return
	}

	sub := signing.Submission{
		FileName:     header.Filename,
		FileType:     header.Header.Get("Content-Type"),
		Data:         data,
		WorkflowName: r.FormValue("workflow_name"),
		Signer: signing.SignerRequest{
			Email:         r.FormValue("signer_email"),
			FirstName:     r.FormValue("signer_first_name"),
			LastName:      r.FormValue("signer_last_name"),
			Locale:        r.FormValue("signer_locale"),
			Comments:      r.FormValue("signer_comments"),
			ConsentPageID: r.FormValue("signer_consent_page_id"),
			UserID:        r.FormValue("signer_user_id"),
		},
	}

	result, err := h.svc.Submit(r.Context(), sub)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	h.logger.Info("Signing job accepted",
		zap.String("job_id", result.JobID),
		zap.String("file_name", result.FileName),
		zap.Int("bytes", len(data)))
	writeJSON(w, http.StatusAccepted, result)
}

// Status handles GET /api/sign/{jobID}.
func (h *SignHandlers) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	result, err := h.svc.Status(r.Context(), jobID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Download handles GET /api/sign/{jobID}/file, streaming the signed artifact
// as an attachment.
func (h *SignHandlers) Download(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	result, err := h.svc.Download(jobID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}
