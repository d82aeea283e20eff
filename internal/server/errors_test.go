package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/repo-expounder/internal/github"
	"github.com/jonathan/repo-expounder/internal/storage"
	"github.com/jonathan/repo-expounder/internal/synthesis"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing github token", &ErrMissingGitHubToken{}, http.StatusUnauthorized},
		{"github auth", &github.AuthError{Message: "bad credentials"}, http.StatusUnauthorized},
		{"validation", &ErrValidation{Field: "owner", Message: "required"}, http.StatusBadRequest},
		{"github not found", &github.NotFoundError{Resource: "acme/ghost"}, http.StatusNotFound},
		{"storage not found", &storage.NotFoundError{Path: "/expounder/x.md"}, http.StatusNotFound},
		{"github rate limit", &github.RateLimitError{}, http.StatusServiceUnavailable},
		{"storage transient", &storage.TransientError{Op: "upload", Err: errors.New("boom")}, http.StatusBadGateway},
		{"schema violation", &synthesis.SchemaViolationError{Reason: "bad output"}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_UnwrapsPipelineErrors(t *testing.T) {
	err := fmt.Errorf("fetching repository content: %w", &github.NotFoundError{Resource: "acme/ghost"})
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))

	err = fmt.Errorf("synthesizing document: %w", &synthesis.SchemaViolationError{Reason: "not json"})
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}
