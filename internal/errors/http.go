package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signrelay/signrelay/pkg/provider"
)

// HTTPErrorResponse is the JSON envelope for every error the service emits.
type HTTPErrorResponse struct {
	Error HTTPErrorBody `json:"error"`
}

// HTTPErrorBody carries the stable code, a human-readable message, and
// optional request correlation.
type HTTPErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// RespondWithError maps err onto an HTTP status and writes the JSON envelope.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if r != nil {
		body.RequestID = r.Header.Get("X-Request-ID")
	}
	WriteError(w, status, body)
}

// WriteError writes an error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, body HTTPErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{Error: body})
}

func classify(err error) (int, HTTPErrorBody) {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		conflict   *ConflictError
		provErr    *provider.ProviderError
	)

	switch {
	case errors.As(err, &validation):
		body := HTTPErrorBody{Code: CodeValidation, Message: validation.Message}
		if validation.Field != "" {
			body.Details = map[string]any{"field": validation.Field}
		}
		return http.StatusBadRequest, body

	case errors.As(err, &notFound):
		return http.StatusNotFound, HTTPErrorBody{
			Code:    CodeNotFound,
			Message: notFound.Error(),
		}

	case errors.As(err, &conflict):
		return http.StatusConflict, HTTPErrorBody{
			Code:    CodeConflict,
			Message: conflict.Message,
		}

	case errors.As(err, &provErr):
		return http.StatusBadGateway, HTTPErrorBody{
			Code:    CodeProvider,
			Message: provErr.Error(),
		}

	default:
		return http.StatusInternalServerError, HTTPErrorBody{
			Code:    CodeInternal,
			Message: "internal server error",
		}
	}
}
