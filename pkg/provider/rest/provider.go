package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/signrelay/signrelay/pkg/provider"
)

// maxErrorBody caps how much of a failed response is captured into errors.
const maxErrorBody = 4 << 10

// Client implements provider.Provider against the signing service's REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ provider.Provider = (*Client)(nil)

// New creates a REST provider client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type workflowPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type createWorkflowRequest struct {
	Name               string        `json:"name"`
	SignatureProfileID string        `json:"signature_profile_id"`
	OwnerUserID        string        `json:"owner_user_id,omitempty"`
	Signer             signerPayload `json:"signer"`
}

type signerPayload struct {
	Email         string `json:"email"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Locale        string `json:"locale,omitempty"`
	Comments      string `json:"comments,omitempty"`
	ConsentPageID string `json:"consent_page_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
}

// CreateWorkflow opens a remote signing workflow scoped to one signer.
// Optional signer fields are forwarded only when non-empty, which the
// omitempty tags take care of.
func (c *Client) CreateWorkflow(ctx context.Context, name string, signer provider.SignerInfo) (*provider.Workflow, error) {
	reqBody := createWorkflowRequest{
		Name:               name,
		SignatureProfileID: c.cfg.SignatureProfileID,
		OwnerUserID:        c.cfg.UserID,
		Signer: signerPayload{
			Email:         signer.Email,
			FirstName:     signer.FirstName,
			LastName:      signer.LastName,
			Locale:        signer.Locale,
			Comments:      signer.Comments,
			ConsentPageID: signer.ConsentPageID,
			UserID:        signer.UserID,
		},
	}

	var out workflowPayload
	if err := c.doJSON(ctx, "CreateWorkflow", http.MethodPost, "/api/v1/workflows", "", reqBody, &out); err != nil {
		return nil, err
	}
	return &provider.Workflow{ID: out.ID, Status: out.Status}, nil
}

// UploadDocument attaches the document bytes to a workflow as a multipart
// upload.
func (c *Client) UploadDocument(ctx context.Context, workflowID, fileName string, data []byte) (*provider.Document, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, &provider.ProviderError{Op: "UploadDocument", WorkflowID: workflowID, Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return nil, &provider.ProviderError{Op: "UploadDocument", WorkflowID: workflowID, Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &provider.ProviderError{Op: "UploadDocument", WorkflowID: workflowID, Err: err}
	}

	url := fmt.Sprintf("%s/api/v1/workflows/%s/documents", c.cfg.BaseURL, workflowID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, &provider.ProviderError{Op: "UploadDocument", WorkflowID: workflowID, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, &provider.ProviderError{Op: "UploadDocument", WorkflowID: workflowID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.apiError("UploadDocument", workflowID, resp)
	}

	var out struct {
		ID string `json:"id"`
	}
	// Some deployments answer uploads with an empty body; the document id
	// is then unknown and field placement is skipped upstream.
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return nil, &provider.ProviderError{Op: "UploadDocument", WorkflowID: workflowID, Err: err}
	}
	return &provider.Document{ID: out.ID}, nil
}

// PlaceSignatureField places a signature box on an uploaded document.
func (c *Client) PlaceSignatureField(ctx context.Context, documentID string, field provider.FieldGeometry) error {
	reqBody := struct {
		Type   string `json:"type"`
		Page   int    `json:"page"`
		X      int    `json:"x"`
		Y      int    `json:"y"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}{
		Type:   "signature",
		Page:   field.Page,
		X:      field.X,
		Y:      field.Y,
		Width:  field.Width,
		Height: field.Height,
	}
	path := fmt.Sprintf("/api/v1/documents/%s/signature-fields", documentID)
	return c.doJSON(ctx, "PlaceSignatureField", http.MethodPost, path, "", reqBody, nil)
}

// StartWorkflow moves the remote workflow into its started state.
func (c *Client) StartWorkflow(ctx context.Context, workflowID string) (*provider.Workflow, error) {
	var out workflowPayload
	path := fmt.Sprintf("/api/v1/workflows/%s/start", workflowID)
	if err := c.doJSON(ctx, "StartWorkflow", http.MethodPost, path, workflowID, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = workflowID
	}
	return &provider.Workflow{ID: out.ID, Status: out.Status}, nil
}

// FetchWorkflow returns the current remote workflow state.
func (c *Client) FetchWorkflow(ctx context.Context, workflowID string) (*provider.Workflow, error) {
	var out workflowPayload
	path := fmt.Sprintf("/api/v1/workflows/%s", workflowID)
	if err := c.doJSON(ctx, "FetchWorkflow", http.MethodGet, path, workflowID, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = workflowID
	}
	return &provider.Workflow{ID: out.ID, Status: out.Status}, nil
}

// DownloadSignedDocument retrieves the signed artifact of a finished
// workflow. The filename comes from the Content-Disposition header when the
// provider sends one.
func (c *Client) DownloadSignedDocument(ctx context.Context, workflowID string) (*provider.SignedDocument, error) {
	url := fmt.Sprintf("%s/api/v1/workflows/%s/download", c.cfg.BaseURL, workflowID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &provider.ProviderError{Op: "DownloadSignedDocument", WorkflowID: workflowID, Err: err}
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, &provider.ProviderError{Op: "DownloadSignedDocument", WorkflowID: workflowID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.apiError("DownloadSignedDocument", workflowID, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{Op: "DownloadSignedDocument", WorkflowID: workflowID, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	return &provider.SignedDocument{
		Data:        data,
		FileName:    fileNameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: contentType,
	}, nil
}

// doJSON performs a JSON request/response round trip. A nil out discards the
// response body.
func (c *Client) doJSON(ctx context.Context, op, method, path, workflowID string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &provider.ProviderError{Op: op, WorkflowID: workflowID, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return &provider.ProviderError{Op: op, WorkflowID: workflowID, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req)
	if err != nil {
		return &provider.ProviderError{Op: op, WorkflowID: workflowID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(op, workflowID, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &provider.ProviderError{Op: op, WorkflowID: workflowID, Err: err}
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

// apiError converts a non-2xx response into a ProviderError, capturing the
// body text and mapping well-known statuses to sentinel errors.
func (c *Client) apiError(op, workflowID string, resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	body := strings.TrimSpace(string(bodyBytes))

	var cause error
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		cause = provider.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		cause = provider.ErrWorkflowNotFound
	case resp.StatusCode >= 500:
		cause = provider.ErrProviderUnavailable
	default:
		cause = fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return &provider.ProviderError{
		Op:         op,
		WorkflowID: workflowID,
		StatusCode: resp.StatusCode,
		Body:       body,
		Err:        cause,
	}
}

// fileNameFromDisposition extracts the filename parameter from a
// Content-Disposition header. Returns "" when absent or unparseable.
func fileNameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
