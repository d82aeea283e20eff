package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/repo-expounder/internal/github"
	"github.com/jonathan/repo-expounder/internal/schemas"
	"github.com/jonathan/repo-expounder/internal/storage"
	"github.com/jonathan/repo-expounder/internal/synthesis"
)

// ErrMissingGitHubToken indicates the request carried no GitHub credential
type ErrMissingGitHubToken struct{}

func (e *ErrMissingGitHubToken) Error() string {
	return "missing X-GitHub-Token header"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Pipeline stages wrap their causes, so matching unwraps.
func HTTPStatus(err error) int {
	var (
		missingToken    *ErrMissingGitHubToken
		validation      *ErrValidation
		schemaErrors    *schemas.ValidationError
		ghAuth          *github.AuthError
		ghNotFound      *github.NotFoundError
		ghRateLimit     *github.RateLimitError
		storageNotFound *storage.NotFoundError
		transient       *storage.TransientError
		violation       *synthesis.SchemaViolationError
	)

	switch {
	case errors.As(err, &missingToken), errors.As(err, &ghAuth):
		return http.StatusUnauthorized
	case errors.As(err, &validation), errors.As(err, &schemaErrors):
		return http.StatusBadRequest
	case errors.As(err, &ghNotFound), errors.As(err, &storageNotFound):
		return http.StatusNotFound
	case errors.As(err, &ghRateLimit):
		return http.StatusServiceUnavailable
	case errors.As(err, &transient):
		return http.StatusBadGateway
	case errors.As(err, &violation):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
