package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
)

// AuthError indicates a missing or invalid GitHub credential. Terminal for
// the request.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github auth failed: %s", e.Message)
}

// NotFoundError indicates the repository, branch, or blob does not exist (or
// the token cannot see it). Terminal for the request.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("github resource not found: %s", e.Resource)
}

// RateLimitError indicates upstream throttling. Callers may retry after
// ResetAt.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github rate limit exceeded (%d/%d remaining), resets at %s",
		e.Remaining, e.Limit, e.ResetAt.Format(time.RFC3339))
}

// APIError wraps any other non-2xx GitHub response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error (status %d): %s", e.StatusCode, e.Message)
}

// wrapError converts go-github errors into the local error taxonomy.
func (c *Client) wrapError(err error, resource string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   c.rateLimiter.ResetTime(),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		resetAt := time.Now()
		if abuseErr.RetryAfter != nil {
			resetAt = resetAt.Add(*abuseErr.RetryAfter)
		}
		return &RateLimitError{ResetAt: resetAt}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{Message: ghErr.Message}
		case http.StatusNotFound:
			return &NotFoundError{Resource: resource}
		default:
			return &APIError{
				StatusCode: ghErr.Response.StatusCode,
				Message:    ghErr.Message,
			}
		}
	}

	return fmt.Errorf("%s: %w", resource, err)
}
