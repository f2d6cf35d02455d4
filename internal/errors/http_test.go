package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signrelay/signrelay/pkg/provider"
)

func respond(t *testing.T, err error) (int, HTTPErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, err)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", NewValidation("file", "file is required"), http.StatusBadRequest, CodeValidation},
		{"not found", NewNotFound("job", "j-1"), http.StatusNotFound, CodeNotFound},
		{"conflict", NewConflict("not completed yet"), http.StatusConflict, CodeConflict},
		{
			"provider",
			&provider.ProviderError{Op: "CreateWorkflow", StatusCode: 500, Body: "oops", Err: provider.ErrProviderUnavailable},
			http.StatusBadGateway,
			CodeProvider,
		},
		{"unknown", fmt.Errorf("surprise"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := respond(t, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestRespondWithErrorNeverLeaksInternals(t *testing.T) {
	_, body := respond(t, fmt.Errorf("pq: connection refused to 10.0.0.5"))
	assert.Equal(t, "internal server error", body.Error.Message)
	assert.NotContains(t, body.Error.Message, "10.0.0.5")
}

func TestRespondWithErrorWrappedKinds(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", NewValidation("signer_email", "signer email is required"))
	status, body := respond(t, wrapped)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidation, body.Error.Code)
	assert.Equal(t, "signer_email", body.Error.Details["field"])
}

func TestRespondWithErrorIncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, NewNotFound("job", "j-1"))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "req-123", body.Error.RequestID)
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidation("f", "m")))
	assert.True(t, IsNotFound(NewNotFound("job", "x")))
	assert.True(t, IsConflict(NewConflict("m")))
	assert.False(t, IsValidation(fmt.Errorf("other")))
	assert.False(t, IsNotFound(NewConflict("m")))
}
