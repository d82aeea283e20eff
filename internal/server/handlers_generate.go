package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/repo-expounder/internal/pipeline"
	"github.com/jonathan/repo-expounder/internal/server/middleware"
)

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	OwnerRepo   string `json:"owner_repo" validate:"required"`
	Ref         string `json:"ref"`
	Description string `json:"description"`
}

// handleGenerate runs the full generation pipeline for one repository and
// returns the generated document. The GitHub credential comes from the
// X-GitHub-Token header and is never persisted.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	token, ok := s.githubToken(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	owner, repo, ok := strings.Cut(req.OwnerRepo, "/")
	if !ok || owner == "" || repo == "" {
		verr := &ErrValidation{Field: "owner_repo", Message: "must be <owner>/<repo>"}
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return
	}

	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := s.generator.Generate(r.Context(), token, pipeline.RunOptions{
		UserID:      userID.String(),
		Owner:       owner,
		Repo:        repo,
		Ref:         req.Ref,
		Description: req.Description,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			// Return first validation error for simplicity
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}
