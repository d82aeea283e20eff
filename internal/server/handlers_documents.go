package server

import (
	"log"
	"net/http"

	"github.com/jonathan/repo-expounder/internal/server/middleware"
	"github.com/jonathan/repo-expounder/internal/types"
)

// ---------------------------------------------------------------------
// Document Handlers
// ---------------------------------------------------------------------

// documentKeyFromRequest builds the storage key for the authenticated user
// from the request path.
func (s *Server) documentKeyFromRequest(w http.ResponseWriter, r *http.Request) (types.DocumentKey, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return types.DocumentKey{}, false
	}

	key := types.DocumentKey{
		UserID:    userID.String(),
		Owner:     r.PathValue("owner"),
		Repo:      r.PathValue("repo"),
		Timestamp: r.PathValue("timestamp"),
	}
	if key.Owner == "" || key.Repo == "" || key.Timestamp == "" {
		s.errorResponse(w, http.StatusBadRequest, "Owner, repo, and timestamp are required")
		return types.DocumentKey{}, false
	}
	return key, true
}

// requireStore rejects document requests when persistence is unconfigured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Document storage is not configured")
		return false
	}
	return true
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entries, err := s.store.List(r.Context(), userID.String())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if entries == nil {
		entries = []types.DocumentEntry{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"readmes": entries})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	key, ok := s.documentKeyFromRequest(w, r)
	if !ok {
		return
	}

	markdown, err := s.store.Download(r.Context(), key)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	// The stored document is served as-is, not wrapped in JSON.
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(markdown)); err != nil {
		log.Printf("Error writing markdown response: %v", err)
	}
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	key, ok := s.documentKeyFromRequest(w, r)
	if !ok {
		return
	}

	if err := s.store.Delete(r.Context(), key); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}
